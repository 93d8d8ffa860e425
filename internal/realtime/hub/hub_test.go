package hub

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetdesk/calendar-api/internal/realtime"
)

func newTestHub() *Hub {
	logger := zerolog.Nop()
	return New(&logger)
}

func TestBroadcast_TenantScoped(t *testing.T) {
	h := newTestHub()
	tenantA, tenantB := uuid.New(), uuid.New()

	a := &Client{ID: "a", TenantID: tenantA, Send: make(chan []byte, 1)}
	b := &Client{ID: "b", TenantID: tenantB, Send: make(chan []byte, 1)}
	h.Register(a)
	h.Register(b)

	h.Broadcast(realtime.ChangeEvent{
		Type:          realtime.ChangeDelete,
		TenantID:      tenantA,
		AppointmentID: uuid.New(),
	})

	require.Len(t, a.Send, 1)
	assert.Empty(t, b.Send)
}

func TestBroadcast_DropsSlowClient(t *testing.T) {
	h := newTestHub()
	tenant := uuid.New()

	slow := &Client{ID: "slow", TenantID: tenant, Send: make(chan []byte, 1)}
	h.Register(slow)

	event := realtime.ChangeEvent{Type: realtime.ChangeDelete, TenantID: tenant, AppointmentID: uuid.New()}
	h.Broadcast(event)
	// Buffer now full; the second broadcast must not block.
	h.Broadcast(event)

	assert.Len(t, slow.Send, 1)
}

func TestUnregister_Idempotent(t *testing.T) {
	h := newTestHub()
	c := &Client{ID: "c", TenantID: uuid.New(), Send: make(chan []byte, 1)}

	h.Register(c)
	assert.Equal(t, 1, h.ClientCount())

	h.Unregister(c)
	h.Unregister(c) // second call must not close Send twice
	assert.Equal(t, 0, h.ClientCount())
}
