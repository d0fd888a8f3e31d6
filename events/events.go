// Package events publishes interaction events to NATS. Publishing happens
// after the write it describes and never fails the request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Type names an event. The NATS subject is SubjectPrefix + "." + Type.
type Type string

const (
	LikeSet             Type = "like.set"
	LikeCleared         Type = "like.cleared"
	CommentCreated      Type = "comment.created"
	CommentDeleted      Type = "comment.deleted"
	SubscriptionCreated Type = "subscription.created"
	SubscriptionDeleted Type = "subscription.deleted"
)

const SubjectPrefix = "clipnest"

// Event is the envelope written to the wire.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	ActorID    string    `json:"actorId,omitempty"`
	Payload    any       `json:"payload"`
}

// New stamps an event with an id and the current time.
func New(t Type, actorID string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
		Payload:    payload,
	}
}

func Subject(t Type) string {
	return SubjectPrefix + "." + string(t)
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type noop struct{}

// Noop returns a Publisher that drops every event.
func Noop() Publisher { return noop{} }

func (noop) Publish(context.Context, Event) error { return nil }
func (noop) Close() error                        { return nil }

type natsPublisher struct {
	nc *nats.Conn
}

// Connect returns a NATS publisher for url, or the no-op publisher when url
// is empty or the server cannot be reached.
func Connect(url string, logger *slog.Logger) Publisher {
	if url == "" {
		return Noop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("clipnest-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		logger.Warn("nats connect failed, events disabled", "error", err)
		return Noop()
	}
	return &natsPublisher{nc: nc}
}

func (p *natsPublisher) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", evt.Type, err)
	}
	if err := p.nc.Publish(Subject(evt.Type), b); err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	return nil
}

func (p *natsPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}

// Emit publishes evt and logs instead of returning a failure.
func Emit(ctx context.Context, pub Publisher, logger *slog.Logger, evt Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, evt); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("event publish failed", "type", evt.Type, "error", err)
	}
}
