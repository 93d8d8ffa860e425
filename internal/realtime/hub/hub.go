package hub

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetdesk/calendar-api/internal/realtime"
	"github.com/vetdesk/calendar-api/pkg/metrics"
)

// Client is one connected dashboard session. Send is drained by the
// connection's write pump; a full buffer means the client is too slow
// and the message is dropped rather than blocking the feed.
type Client struct {
	ID       string
	TenantID uuid.UUID
	Send     chan []byte
}

// Hub fans appointment change events out to connected dashboard
// clients, partitioned by tenant.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zerolog.Logger
}

func New(logger *zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	metrics.Default().ConnectedClients.Set(float64(len(h.clients)))
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
	metrics.Default().ConnectedClients.Set(float64(len(h.clients)))
}

// Broadcast delivers a change event to every client of its tenant.
// Slow clients are skipped, never waited on.
func (h *Hub) Broadcast(event realtime.ChangeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal change event for broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.TenantID != event.TenantID {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			metrics.Default().DroppedMessages.Inc()
			h.logger.Warn().Str("client_id", client.ID).Msg("dropping event for slow client")
		}
	}
}

// ClientCount reports connected clients, for health and metrics.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
