package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Broker publishes feed events onto per-room NATS subjects and hands out
// per-room subscriptions to dispatchers. Delivery is at-most-once; the
// dispatcher's coarse refetch plus the listener's fallback poll make a
// dropped message self-healing at human pace.
type Broker struct {
	nc *nats.Conn
}

func NewBroker(cfg NATSConfig) (*Broker, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &Broker{nc: nc}, nil
}

// Publish sends one feed event to the room's subject.
func (b *Broker) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}
	if err := b.nc.Publish(Subject(event.RoomID), data); err != nil {
		return fmt.Errorf("failed to publish feed event: %w", err)
	}
	return nil
}

// Subscribe opens a room-scoped event stream. The returned cancel func
// stops delivery; the channel is left open because a late callback may
// still be holding it.
func (b *Broker) Subscribe(roomID uuid.UUID) (<-chan Event, func(), error) {
	events := make(chan Event, 64)

	sub, err := b.nc.Subscribe(Subject(roomID), func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to unmarshal feed event")
			return
		}
		select {
		case events <- event:
		default:
			log.Warn().Str("room_id", roomID.String()).Msg("feed channel full, dropping event")
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe to room feed: %w", err)
	}

	cancel := func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to unsubscribe from room feed")
		}
	}
	return events, cancel, nil
}

func (b *Broker) Close() {
	b.nc.Close()
}
