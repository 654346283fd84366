package hub

import (
	"context"
	"sync"
	"testing"

	"strangerchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

type stubClient struct {
	mu       sync.Mutex
	userID   string
	received []models.Notification
	closed   bool
}

func (s *stubClient) UserID() string { return s.userID }

func (s *stubClient) Deliver(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, n)
	return nil
}

func (s *stubClient) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *stubClient) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestRegisterAndNotify(t *testing.T) {
	h := New()
	c := &stubClient{userID: "alice"}
	h.Register(c)

	err := h.Notify(context.Background(), "alice", models.Notification{Kind: models.KindWaiting})
	assert.NoError(t, err)
	assert.Len(t, c.received, 1)
	assert.Equal(t, models.KindWaiting, c.received[0].Kind)
}

func TestNotifyUnknownIdentity(t *testing.T) {
	h := New()
	err := h.Notify(context.Background(), "ghost", models.Notification{Kind: models.KindWaiting})
	assert.Error(t, err)
}

func TestRegisterReplacesAndClosesOld(t *testing.T) {
	h := New()
	first := &stubClient{userID: "alice"}
	second := &stubClient{userID: "alice"}

	h.Register(first)
	h.Register(second)

	assert.True(t, first.isClosed())
	assert.False(t, second.isClosed())

	got, ok := h.Get("alice")
	assert.True(t, ok)
	assert.Same(t, second, got.(*stubClient))
}

func TestUnregisterStaleConnectionKeepsReplacement(t *testing.T) {
	h := New()
	first := &stubClient{userID: "alice"}
	second := &stubClient{userID: "alice"}

	h.Register(first)
	h.Register(second)

	// The stale connection's teardown runs after its replacement took over.
	h.Unregister(first)

	got, ok := h.Get("alice")
	assert.True(t, ok)
	assert.Same(t, second, got.(*stubClient))
}

func TestUnregisterRemovesCurrent(t *testing.T) {
	h := New()
	c := &stubClient{userID: "alice"}

	h.Register(c)
	h.Unregister(c)

	_, ok := h.Get("alice")
	assert.False(t, ok)
	assert.True(t, c.isClosed())
}
