package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type comments struct{ s *Store }

func cloneComment(c models.Comment) models.Comment {
	c.Likes = slices.Clone(c.Likes)
	if c.Likes == nil {
		c.Likes = []bson.ObjectID{}
	}
	c.Attachments = slices.Clone(c.Attachments)
	return c
}

func (r comments) Create(_ context.Context, comment models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[comment.ID]; ok {
		return database.ErrDuplicate
	}
	r.s.comments[comment.ID] = cloneComment(comment)
	return nil
}

func (r comments) FindByID(_ context.Context, id bson.ObjectID) (models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.comments[id]
	if !ok {
		return models.Comment{}, database.ErrNotFound
	}
	return cloneComment(c), nil
}

func (r comments) ListTopLevel(_ context.Context, target models.Target, order models.CommentSort, page database.Page) ([]models.Comment, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := make([]models.Comment, 0)
	for _, c := range r.s.comments {
		if c.Target == target && c.ParentComment == nil {
			matched = append(matched, cloneComment(c))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch order {
		case models.SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case models.SortPopular:
			if len(a.Likes) != len(b.Likes) {
				return len(a.Likes) > len(b.Likes)
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return paginate(matched, page), int64(len(matched)), nil
}

func (r comments) ListReplies(_ context.Context, parents []bson.ObjectID) ([]models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Comment, 0)
	for _, c := range r.s.comments {
		if c.ParentComment != nil && slices.Contains(parents, *c.ParentComment) {
			out = append(out, cloneComment(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r comments) ListByTarget(_ context.Context, target models.Target) ([]models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Comment, 0)
	for _, c := range r.s.comments {
		if c.Target == target {
			out = append(out, cloneComment(c))
		}
	}
	return out, nil
}

func (r comments) CountByTarget(ctx context.Context, target models.Target) (int64, error) {
	items, err := r.ListByTarget(ctx, target)
	return int64(len(items)), err
}

func (r comments) mutate(id bson.ObjectID, fn func(*models.Comment)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return database.ErrNotFound
	}
	fn(&c)
	r.s.comments[id] = c
	return nil
}

func (r comments) UpdateContent(_ context.Context, id bson.ObjectID, content string, now time.Time) error {
	return r.mutate(id, func(c *models.Comment) {
		c.Content = content
		c.IsEdited = true
		c.UpdatedAt = now
	})
}

func (r comments) AddLike(_ context.Context, id, userID bson.ObjectID) error {
	err := r.mutate(id, func(c *models.Comment) {
		if !slices.Contains(c.Likes, userID) {
			c.Likes = append(slices.Clone(c.Likes), userID)
		}
	})
	if err == database.ErrNotFound {
		return nil
	}
	return err
}

func (r comments) RemoveLike(_ context.Context, id, userID bson.ObjectID) error {
	err := r.mutate(id, func(c *models.Comment) {
		c.Likes = slices.DeleteFunc(slices.Clone(c.Likes), func(u bson.ObjectID) bool { return u == userID })
	})
	if err == database.ErrNotFound {
		return nil
	}
	return err
}

func (r comments) DeleteReplies(_ context.Context, parent bson.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, c := range r.s.comments {
		if c.ParentComment != nil && *c.ParentComment == parent {
			delete(r.s.comments, id)
			n++
		}
	}
	return n, nil
}

func (r comments) Delete(_ context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return database.ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

type likes struct{ s *Store }

func (r likes) Find(_ context.Context, userID bson.ObjectID, target models.Target) (models.Like, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.likes {
		if l.UserID == userID && l.Target == target {
			return l, nil
		}
	}
	return models.Like{}, database.ErrNotFound
}

func (r likes) Create(_ context.Context, like models.Like) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.likes {
		if l.ID == like.ID || (l.UserID == like.UserID && l.Target == like.Target) {
			return database.ErrDuplicate
		}
	}
	r.s.likes[like.ID] = like
	return nil
}

func (r likes) Delete(_ context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.likes[id]; !ok {
		return database.ErrNotFound
	}
	delete(r.s.likes, id)
	return nil
}

func (r likes) Count(_ context.Context, target models.Target, liked *bool) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, l := range r.s.likes {
		if l.Target == target && (liked == nil || l.Liked == *liked) {
			n++
		}
	}
	return n, nil
}

func (r likes) DeleteByTargets(_ context.Context, kind models.TargetKind, ids []bson.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, l := range r.s.likes {
		if l.Target.Kind == kind && slices.Contains(ids, l.Target.ID) {
			delete(r.s.likes, id)
			n++
		}
	}
	return n, nil
}

type subscriptions struct{ s *Store }

func (r subscriptions) Create(_ context.Context, sub models.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.subs {
		if existing.ID == sub.ID || (existing.Subscriber == sub.Subscriber && existing.Channel == sub.Channel) {
			return database.ErrDuplicate
		}
	}
	r.s.subs[sub.ID] = sub
	return nil
}

func (r subscriptions) Delete(_ context.Context, subscriber, channel bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, sub := range r.s.subs {
		if sub.Subscriber == subscriber && sub.Channel == channel {
			delete(r.s.subs, id)
			return nil
		}
	}
	return database.ErrNotFound
}

func (r subscriptions) Exists(_ context.Context, subscriber, channel bson.ObjectID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sub := range r.s.subs {
		if sub.Subscriber == subscriber && sub.Channel == channel {
			return true, nil
		}
	}
	return false, nil
}

func (r subscriptions) count(match func(models.Subscription) bool) int64 {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, sub := range r.s.subs {
		if match(sub) {
			n++
		}
	}
	return n
}

func (r subscriptions) CountSubscribers(_ context.Context, channel bson.ObjectID) (int64, error) {
	return r.count(func(s models.Subscription) bool { return s.Channel == channel }), nil
}

func (r subscriptions) CountSubscriptions(_ context.Context, subscriber bson.ObjectID) (int64, error) {
	return r.count(func(s models.Subscription) bool { return s.Subscriber == subscriber }), nil
}

func (r subscriptions) ListBySubscriber(_ context.Context, subscriber bson.ObjectID) ([]models.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Subscription, 0)
	for _, sub := range r.s.subs {
		if sub.Subscriber == subscriber {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
