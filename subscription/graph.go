// Package subscription maintains subscriber to channel edges and the channel
// profile counts derived from them.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/events"
	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type Graph struct {
	users   database.UserRepository
	subs    database.SubscriptionRepository
	events  events.Publisher
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

type Options struct {
	Events  events.Publisher
	Logger  *slog.Logger
	Timeout time.Duration
	Now     func() time.Time
}

func NewGraph(repos database.Repositories, opts Options) *Graph {
	if opts.Events == nil {
		opts.Events = events.Noop()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Graph{
		users:   repos.Users,
		subs:    repos.Subscriptions,
		events:  opts.Events,
		logger:  opts.Logger,
		timeout: opts.Timeout,
		now:     opts.Now,
	}
}

type edgeEvent struct {
	Subscriber string `json:"subscriber"`
	Channel    string `json:"channel"`
}

// Subscribe adds the edge subscriber -> channel.
func (g *Graph) Subscribe(ctx context.Context, subscriber, channel bson.ObjectID) (models.Subscription, error) {
	if subscriber == channel {
		return models.Subscription{}, apperr.InvalidArgumentf("you cannot subscribe to yourself")
	}
	ctx, cancel := database.WithTimeout(ctx, g.timeout)
	defer cancel()

	if _, err := g.users.FindByID(ctx, channel); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Subscription{}, apperr.InvalidArgumentf("channel does not exist")
		}
		return models.Subscription{}, apperr.Wrap(err, "failed to load channel")
	}

	exists, err := g.subs.Exists(ctx, subscriber, channel)
	if err != nil {
		return models.Subscription{}, apperr.Wrap(err, "failed to check subscription")
	}
	if exists {
		return models.Subscription{}, apperr.Conflictf("already subscribed")
	}

	sub := models.Subscription{
		ID:         bson.NewObjectID(),
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  g.now().UTC(),
	}
	if err := g.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.Subscription{}, apperr.Conflictf("already subscribed")
		}
		return models.Subscription{}, apperr.Wrap(err, "failed to subscribe")
	}

	events.Emit(ctx, g.events, g.logger, events.New(events.SubscriptionCreated, subscriber.Hex(), edgeEvent{subscriber.Hex(), channel.Hex()}))
	return sub, nil
}

// Unsubscribe removes the edge subscriber -> channel.
func (g *Graph) Unsubscribe(ctx context.Context, subscriber, channel bson.ObjectID) error {
	ctx, cancel := database.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.subs.Delete(ctx, subscriber, channel); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperr.NotFoundf("subscription not found")
		}
		return apperr.Wrap(err, "failed to unsubscribe")
	}
	events.Emit(ctx, g.events, g.logger, events.New(events.SubscriptionDeleted, subscriber.Hex(), edgeEvent{subscriber.Hex(), channel.Hex()}))
	return nil
}

// ChannelProfile counts the edges of the channel named username. viewer may
// be nil for anonymous callers.
func (g *Graph) ChannelProfile(ctx context.Context, username string, viewer *bson.ObjectID) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, apperr.InvalidArgumentf("username is required")
	}
	ctx, cancel := database.WithTimeout(ctx, g.timeout)
	defer cancel()

	channel, err := g.users.FindByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return models.ChannelProfile{}, apperr.NotFoundf("channel does not exist")
	}
	if err != nil {
		return models.ChannelProfile{}, apperr.Wrap(err, "failed to load channel")
	}

	subscribers, err := g.subs.CountSubscribers(ctx, channel.ID)
	if err != nil {
		return models.ChannelProfile{}, apperr.Wrap(err, "failed to count subscribers")
	}
	subscriptions, err := g.subs.CountSubscriptions(ctx, channel.ID)
	if err != nil {
		return models.ChannelProfile{}, apperr.Wrap(err, "failed to count subscriptions")
	}
	subscribed := false
	if viewer != nil {
		if subscribed, err = g.subs.Exists(ctx, *viewer, channel.ID); err != nil {
			return models.ChannelProfile{}, apperr.Wrap(err, "failed to check subscription")
		}
	}

	return models.ChannelProfile{
		PublicUser:         channel.Public(),
		SubscriberCount:    subscribers,
		SubscriptionCount:  subscriptions,
		IsViewerSubscribed: subscribed,
	}, nil
}

// ChannelSummary is a subscribed channel as listed to its subscriber.
type ChannelSummary struct {
	ID           bson.ObjectID `json:"id"`
	Username     string        `json:"username"`
	FullName     string        `json:"fullname"`
	Avatar       string        `json:"avatar"`
	SubscribedAt time.Time     `json:"subscribedAt"`
}

// ListSubscriptions returns the channels subscriber follows, most recent
// first. Channels whose account no longer exists are skipped.
func (g *Graph) ListSubscriptions(ctx context.Context, subscriber bson.ObjectID) ([]ChannelSummary, error) {
	ctx, cancel := database.WithTimeout(ctx, g.timeout)
	defer cancel()

	edges, err := g.subs.ListBySubscriber(ctx, subscriber)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list subscriptions")
	}
	out := make([]ChannelSummary, 0, len(edges))
	for _, e := range edges {
		u, err := g.users.FindByID(ctx, e.Channel)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(err, "failed to load channel")
		}
		out = append(out, ChannelSummary{
			ID:           u.ID,
			Username:     u.Username,
			FullName:     u.FullName,
			Avatar:       u.Avatar,
			SubscribedAt: e.CreatedAt,
		})
	}
	return out, nil
}
