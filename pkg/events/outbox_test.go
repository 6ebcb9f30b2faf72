package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct{}

func (fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeTx) Commit(ctx context.Context) error          { return nil }
func (fakeTx) Rollback(ctx context.Context) error        { return nil }
func (fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (fakeTx) Conn() *pgx.Conn                                               { return nil }

type fakeTxManager struct{}

func (fakeTxManager) BeginTx(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

type fakeOutboxRepo struct {
	pending   []*OutboxEvent
	published map[uuid.UUID]OutboxStatus
}

func newFakeOutboxRepo(events ...*OutboxEvent) *fakeOutboxRepo {
	return &fakeOutboxRepo{pending: events, published: make(map[uuid.UUID]OutboxStatus)}
}

func (r *fakeOutboxRepo) GetPendingEvents(ctx context.Context, tx pgx.Tx, limit int) ([]*OutboxEvent, error) {
	var out []*OutboxEvent
	for _, ev := range r.pending {
		if r.published[ev.ID] == OutboxStatusPublished {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) UpdateEventStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status OutboxStatus) error {
	r.published[id] = status
	return nil
}

type fakePublisher struct {
	published []publishedMessage
	failOn    string // event type that fails to publish
}

type publishedMessage struct {
	exchange   string
	routingKey string
	body       []byte
}

func (p *fakePublisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	if p.failOn != "" && routingKey == p.failOn {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, publishedMessage{exchange, routingKey, body})
	return nil
}

func pendingEvent(eventType string, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    OutboxStatusPending,
		CreatedAt: time.Now(),
	}
}

func newTestRelay(repo *fakeOutboxRepo, pub *fakePublisher, batchSize int) *OutboxRelay {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOutboxRelay(repo, pub, fakeTxManager{}, batchSize, time.Millisecond, "auction.events", logger)
}

func TestOutboxRelay_ProcessBatch(t *testing.T) {
	ev1 := pendingEvent("bid.placed", []byte(`{"amount":100}`))
	ev2 := pendingEvent("lot.sold", []byte(`{"final_price":100}`))
	repo := newFakeOutboxRepo(ev1, ev2)
	pub := &fakePublisher{}

	relay := newTestRelay(repo, pub, 10)
	require.NoError(t, relay.ProcessBatch(context.Background()))

	require.Len(t, pub.published, 2)
	assert.Equal(t, "auction.events", pub.published[0].exchange)
	assert.Equal(t, "bid.placed", pub.published[0].routingKey)
	assert.Equal(t, []byte(`{"amount":100}`), pub.published[0].body)
	assert.Equal(t, "lot.sold", pub.published[1].routingKey)

	assert.Equal(t, OutboxStatusPublished, repo.published[ev1.ID])
	assert.Equal(t, OutboxStatusPublished, repo.published[ev2.ID])
}

func TestOutboxRelay_EmptyOutbox(t *testing.T) {
	repo := newFakeOutboxRepo()
	pub := &fakePublisher{}

	relay := newTestRelay(repo, pub, 10)
	require.NoError(t, relay.ProcessBatch(context.Background()))
	assert.Empty(t, pub.published)
}

func TestOutboxRelay_BatchSize(t *testing.T) {
	repo := newFakeOutboxRepo(
		pendingEvent("bid.placed", nil),
		pendingEvent("bid.placed", nil),
		pendingEvent("bid.placed", nil),
	)
	pub := &fakePublisher{}

	relay := newTestRelay(repo, pub, 2)
	require.NoError(t, relay.ProcessBatch(context.Background()))
	assert.Len(t, pub.published, 2)

	// Next batch picks up the remainder
	require.NoError(t, relay.ProcessBatch(context.Background()))
	assert.Len(t, pub.published, 3)
}

func TestOutboxRelay_PublishFailure(t *testing.T) {
	ev := pendingEvent("bid.placed", nil)
	repo := newFakeOutboxRepo(ev)
	pub := &fakePublisher{failOn: "bid.placed"}

	relay := newTestRelay(repo, pub, 10)
	err := relay.ProcessBatch(context.Background())
	require.Error(t, err)
	assert.Empty(t, pub.published)
	assert.NotEqual(t, OutboxStatusPublished, repo.published[ev.ID])
}

func TestOutboxRelay_RunStopsOnContextCancel(t *testing.T) {
	repo := newFakeOutboxRepo(pendingEvent("bid.placed", nil))
	pub := &fakePublisher{}
	relay := newTestRelay(repo, pub, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop on context cancellation")
	}
	assert.NotEmpty(t, pub.published, "initial batch runs before the first tick")
}
