package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vetdesk/calendar-api/internal/model"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// ChangeEvent is one row-level appointment change pushed through the
// realtime feed, scoped to a tenant. Delete events carry only the id.
type ChangeEvent struct {
	Type          ChangeType         `json:"type"`
	TenantID      uuid.UUID          `json:"tenant_id"`
	AppointmentID uuid.UUID          `json:"appointment_id"`
	Appointment   *model.Appointment `json:"appointment,omitempty"`
}

// Handlers receive decoded change events. Insert and update carry the
// full row; delete only the id.
type Handlers struct {
	OnInsert func(*model.Appointment)
	OnUpdate func(*model.Appointment)
	OnDelete func(uuid.UUID)
}

// Feed is the push-based appointment change stream. Subscribe returns
// an unsubscribe func; calling it stops delivery and releases the
// underlying subscription.
type Feed interface {
	Subscribe(ctx context.Context, tenantID uuid.UUID, handlers Handlers) (func(), error)
}

// Publisher emits change events into the feed. The booking flow
// publishes after each committed write.
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

type Config struct {
	URL          string
	PoolSize     int
	MinIdleConns int
}

// RedisFeed carries appointment changes over a per-tenant Redis
// pub/sub channel.
type RedisFeed struct {
	client *redis.Client
	logger *zerolog.Logger
}

func NewRedisFeed(cfg Config, logger *zerolog.Logger) (*RedisFeed, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisFeed{client: client, logger: logger}, nil
}

func channelFor(tenantID uuid.UUID) string {
	return "appointments:" + tenantID.String()
}

func (f *RedisFeed) Publish(ctx context.Context, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := f.client.Publish(ctx, channelFor(event.TenantID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe listens on the tenant's channel and dispatches each event
// to the matching handler. Malformed payloads are logged and skipped;
// delivery is in arrival order.
func (f *RedisFeed) Subscribe(ctx context.Context, tenantID uuid.UUID, handlers Handlers) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := f.client.Subscribe(subCtx, channelFor(tenantID))

	// Confirm the subscription before returning so no event published
	// after Subscribe is missed.
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to appointment feed: %w", err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					f.logger.Error().Err(err).Msg("failed to decode change event")
					continue
				}
				dispatch(event, handlers)
			}
		}
	}()

	return func() {
		cancel()
	}, nil
}

func dispatch(event ChangeEvent, handlers Handlers) {
	switch event.Type {
	case ChangeInsert:
		if handlers.OnInsert != nil && event.Appointment != nil {
			handlers.OnInsert(event.Appointment)
		}
	case ChangeUpdate:
		if handlers.OnUpdate != nil && event.Appointment != nil {
			handlers.OnUpdate(event.Appointment)
		}
	case ChangeDelete:
		if handlers.OnDelete != nil {
			handlers.OnDelete(event.AppointmentID)
		}
	}
}

func (f *RedisFeed) Close() error {
	return f.client.Close()
}
