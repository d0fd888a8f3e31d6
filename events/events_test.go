package events

import (
	"context"
	"errors"
	"testing"
)

type failing struct{}

func (failing) Publish(context.Context, Event) error { return errors.New("down") }
func (failing) Close() error                        { return nil }

type captured struct{ events []Event }

func (c *captured) Publish(_ context.Context, evt Event) error {
	c.events = append(c.events, evt)
	return nil
}
func (c *captured) Close() error { return nil }

func TestSubject(t *testing.T) {
	if got := Subject(LikeSet); got != "clipnest.like.set" {
		t.Fatalf("Subject = %q", got)
	}
}

func TestConnectWithoutURLIsNoop(t *testing.T) {
	pub := Connect("", nil)
	if err := pub.Publish(context.Background(), New(CommentCreated, "u1", nil)); err != nil {
		t.Fatalf("noop publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("noop close: %v", err)
	}
}

func TestEmitSwallowsFailures(t *testing.T) {
	Emit(context.Background(), failing{}, nil, New(LikeCleared, "u1", nil))
	Emit(context.Background(), nil, nil, New(LikeCleared, "u1", nil))

	rec := &captured{}
	Emit(context.Background(), rec, nil, New(SubscriptionCreated, "u1", map[string]string{"channel": "c1"}))
	if len(rec.events) != 1 || rec.events[0].Type != SubscriptionCreated {
		t.Fatalf("unexpected recorded events %v", rec.events)
	}
	if rec.events[0].ID == "" || rec.events[0].OccurredAt.IsZero() {
		t.Fatal("event should be stamped")
	}
}
