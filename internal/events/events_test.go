package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"glowdesk/internal/logging"
	"glowdesk/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type mockIndexer struct {
	mock.Mock
}

func (m *mockIndexer) IndexClient(ctx context.Context, client *models.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *mockIndexer) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// fakeReader serves queued messages, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestProducer_KeysByTenant(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducer(w)
	tenantID := uuid.New()

	err := p.Publish(context.Background(), models.DomainEvent{
		Type: models.EventClientCreated, TenantID: tenantID, EntityID: uuid.New(), OccurredAt: time.Now(),
	})

	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, tenantID.String(), string(w.msgs[0].Key))
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, models.EventClientCreated, string(w.msgs[0].Headers[0].Value))
}

func eventBytes(t *testing.T, ev models.DomainEvent) []byte {
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return raw
}

func TestHandle_IndexesCreatedClient(t *testing.T) {
	idx := &mockIndexer{}
	c := NewClientConsumer(&fakeReader{}, idx, logging.Discard())
	client := models.Client{ID: uuid.New(), TenantID: uuid.New(), FirstName: "Ana"}
	idx.On("IndexClient", mock.Anything, mock.MatchedBy(func(got *models.Client) bool {
		return got.ID == client.ID && got.FirstName == "Ana"
	})).Return(nil)

	err := c.Handle(context.Background(), eventBytes(t, models.DomainEvent{
		Type: models.EventClientCreated, TenantID: client.TenantID, EntityID: client.ID, Payload: client,
	}))

	require.NoError(t, err)
	idx.AssertExpectations(t)
}

func TestHandle_DeletesClient(t *testing.T) {
	idx := &mockIndexer{}
	c := NewClientConsumer(&fakeReader{}, idx, logging.Discard())
	id := uuid.New()
	idx.On("DeleteClient", mock.Anything, id).Return(nil)

	require.NoError(t, c.Handle(context.Background(), eventBytes(t, models.DomainEvent{Type: models.EventClientDeleted, EntityID: id})))
	idx.AssertExpectations(t)
}

func TestHandle_SkipsOtherEvents(t *testing.T) {
	idx := &mockIndexer{}
	c := NewClientConsumer(&fakeReader{}, idx, logging.Discard())

	assert.NoError(t, c.Handle(context.Background(), []byte("not json")))
	assert.NoError(t, c.Handle(context.Background(), eventBytes(t, models.DomainEvent{Type: models.EventCampaignDispatched})))
	idx.AssertNotCalled(t, "IndexClient", mock.Anything, mock.Anything)
}

func TestRun_RetriesThenMovesOn(t *testing.T) {
	ok, failing := uuid.New(), uuid.New()
	reader := &fakeReader{queue: []kafka.Message{
		{Offset: 1, Value: eventBytes(t, models.DomainEvent{Type: models.EventClientDeleted, EntityID: ok})},
		{Offset: 2, Value: eventBytes(t, models.DomainEvent{Type: models.EventClientDeleted, EntityID: failing})},
	}}
	idx := &mockIndexer{}
	idx.On("DeleteClient", mock.Anything, ok).Return(nil)
	idx.On("DeleteClient", mock.Anything, failing).Return(errors.New("index unavailable"))

	c := NewClientConsumer(reader, idx, logging.Discard())
	c.backoff = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, c.Run(ctx))

	reader.mu.Lock()
	defer reader.mu.Unlock()
	assert.Equal(t, []int64{1, 2}, reader.committed)
	idx.AssertNumberOfCalls(t, "DeleteClient", 1+maxAttempts)
}
