package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hammerd/hammerd/internal/domain/auction"
)

// SnapshotCache projects engine snapshots into Redis so spectators and
// dashboards can poll or subscribe without touching the engine's write path.
// Each version is stored under a per-auction key and announced on a
// per-auction channel.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSnapshotCache creates a snapshot cache. A zero ttl keeps snapshots
// until overwritten.
func NewSnapshotCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl, logger: logger}
}

func snapshotKey(auctionID string) string {
	return fmt.Sprintf("auction:%s:snapshot", auctionID)
}

func updatesChannel(auctionID string) string {
	return fmt.Sprintf("auction:%s:updates", auctionID)
}

// Store writes a snapshot and publishes its version to subscribers.
// It is wired as the engine's snapshot listener: failures are logged, not
// returned, because losing a cache write must not fail the command that
// produced the snapshot.
func (c *SnapshotCache) Store(snap *auction.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	body, err := json.Marshal(snap)
	if err != nil {
		c.logger.Error("failed to marshal snapshot", "auction_id", snap.AuctionID, "error", err)
		return
	}

	id := snap.AuctionID.String()
	if err := c.client.Set(ctx, snapshotKey(id), body, c.ttl).Err(); err != nil {
		c.logger.Error("failed to cache snapshot", "auction_id", id, "error", err)
		return
	}
	if err := c.client.Publish(ctx, updatesChannel(id), body).Err(); err != nil {
		c.logger.Error("failed to publish snapshot update", "auction_id", id, "error", err)
	}
}

// Get reads the latest cached snapshot for an auction. A cache miss returns
// nil with no error; callers fall back to the engine.
func (c *SnapshotCache) Get(ctx context.Context, auctionID string) (*auction.Snapshot, error) {
	body, err := c.client.Get(ctx, snapshotKey(auctionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached snapshot: %w", err)
	}
	var snap auction.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode cached snapshot: %w", err)
	}
	return &snap, nil
}

// Subscribe returns a channel of snapshot versions for one auction. The
// channel closes when ctx is done.
func (c *SnapshotCache) Subscribe(ctx context.Context, auctionID string) <-chan *auction.Snapshot {
	sub := c.client.Subscribe(ctx, updatesChannel(auctionID))
	out := make(chan *auction.Snapshot)

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var snap auction.Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					c.logger.Error("failed to decode snapshot update", "auction_id", auctionID, "error", err)
					continue
				}
				select {
				case out <- &snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
