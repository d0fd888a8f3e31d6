// Package memory implements the database repositories in process. It keeps
// the same uniqueness guarantees as the MongoDB indexes and is used by tests
// and by local runs without a database.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Store holds every collection behind a single lock.
type Store struct {
	mu       sync.RWMutex
	users    map[bson.ObjectID]models.User
	videos   map[bson.ObjectID]models.Video
	posts    map[bson.ObjectID]models.Post
	comments map[bson.ObjectID]models.Comment
	likes    map[bson.ObjectID]models.Like
	subs     map[bson.ObjectID]models.Subscription
}

func New() *Store {
	return &Store{
		users:    make(map[bson.ObjectID]models.User),
		videos:   make(map[bson.ObjectID]models.Video),
		posts:    make(map[bson.ObjectID]models.Post),
		comments: make(map[bson.ObjectID]models.Comment),
		likes:    make(map[bson.ObjectID]models.Like),
		subs:     make(map[bson.ObjectID]models.Subscription),
	}
}

// Repositories exposes the store through the database interfaces.
func (s *Store) Repositories() database.Repositories {
	return database.Repositories{
		Users:         users{s},
		Videos:        videos{s},
		Posts:         posts{s},
		Comments:      comments{s},
		Likes:         likes{s},
		Subscriptions: subscriptions{s},
	}
}

// LikeRows returns the like rows on target. Useful for tests.
func (s *Store) LikeRows(target models.Target) []models.Like {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Like, 0)
	for _, l := range s.likes {
		if l.Target == target {
			out = append(out, l)
		}
	}
	return out
}

// CommentCount returns the number of stored comments. Useful for tests.
func (s *Store) CommentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.comments)
}

type users struct{ s *Store }

func (r users) Create(_ context.Context, user models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return database.ErrDuplicate
		}
	}
	if _, ok := r.s.users[user.ID]; ok {
		return database.ErrDuplicate
	}
	if user.WatchHistory == nil {
		user.WatchHistory = []bson.ObjectID{}
	}
	r.s.users[user.ID] = user
	return nil
}

func (r users) FindByID(_ context.Context, id bson.ObjectID) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	u.WatchHistory = slices.Clone(u.WatchHistory)
	return u, nil
}

func (r users) FindByUsername(_ context.Context, username string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r users) FindByLogin(_ context.Context, username, email string) (models.User, error) {
	if username == "" && email == "" {
		return models.User{}, database.ErrNotFound
	}
	return r.find(func(u models.User) bool {
		return (username != "" && u.Username == username) || (email != "" && u.Email == email)
	})
}

func (r users) find(match func(models.User) bool) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			u.WatchHistory = slices.Clone(u.WatchHistory)
			return u, nil
		}
	}
	return models.User{}, database.ErrNotFound
}

func (r users) update(id bson.ObjectID, fn func(*models.User) error) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return models.User{}, err
	}
	r.s.users[id] = u
	return u, nil
}

func (r users) UpdateAccount(_ context.Context, id bson.ObjectID, fullName, email string, now time.Time) (models.User, error) {
	return r.update(id, func(u *models.User) error {
		for otherID, other := range r.s.users {
			if otherID != id && other.Email == email {
				return database.ErrDuplicate
			}
		}
		u.FullName = fullName
		u.Email = email
		u.UpdatedAt = now
		return nil
	})
}

func (r users) UpdatePassword(_ context.Context, id bson.ObjectID, passwordHash string, now time.Time) error {
	_, err := r.update(id, func(u *models.User) error {
		u.PasswordHash = passwordHash
		u.UpdatedAt = now
		return nil
	})
	return err
}

func (r users) SetImage(_ context.Context, id bson.ObjectID, field models.ImageField, url string, now time.Time) (string, error) {
	var previous string
	_, err := r.update(id, func(u *models.User) error {
		if field == models.ImageCover {
			previous, u.CoverImage = u.CoverImage, url
		} else {
			previous, u.Avatar = u.Avatar, url
		}
		u.UpdatedAt = now
		return nil
	})
	return previous, err
}

func (r users) SetRefreshToken(_ context.Context, id bson.ObjectID, hash string) error {
	_, err := r.update(id, func(u *models.User) error {
		u.RefreshTokenHash = hash
		return nil
	})
	return err
}

func (r users) SwapRefreshToken(_ context.Context, id bson.ObjectID, expected, hash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || expected == "" || u.RefreshTokenHash != expected {
		return false, nil
	}
	u.RefreshTokenHash = hash
	r.s.users[id] = u
	return true, nil
}

func (r users) ClearRefreshToken(_ context.Context, id bson.ObjectID) error {
	return r.SetRefreshToken(context.Background(), id, "")
}

func (r users) AppendWatchHistory(_ context.Context, id, videoID bson.ObjectID) error {
	_, err := r.update(id, func(u *models.User) error {
		history := slices.DeleteFunc(slices.Clone(u.WatchHistory), func(v bson.ObjectID) bool { return v == videoID })
		u.WatchHistory = append(history, videoID)
		return nil
	})
	return err
}

func paginate[T any](items []T, page database.Page) []T {
	start := int(page.Skip)
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if page.Limit > 0 && start+int(page.Limit) < end {
		end = start + int(page.Limit)
	}
	return items[start:end]
}

type videos struct{ s *Store }

func (r videos) Create(_ context.Context, video models.Video) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.videos[video.ID]; ok {
		return database.ErrDuplicate
	}
	r.s.videos[video.ID] = video
	return nil
}

func (r videos) FindByID(_ context.Context, id bson.ObjectID) (models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.videos[id]
	if !ok {
		return models.Video{}, database.ErrNotFound
	}
	return v, nil
}

func (r videos) FindByIDs(_ context.Context, ids []bson.ObjectID) ([]models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := r.s.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r videos) ListPublished(_ context.Context, owner *bson.ObjectID, page database.Page) ([]models.Video, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := make([]models.Video, 0)
	for _, v := range r.s.videos {
		if v.IsPublished && (owner == nil || v.Owner == *owner) {
			matched = append(matched, v)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, page), int64(len(matched)), nil
}

func (r videos) IncrementViews(_ context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[id]
	if !ok {
		return database.ErrNotFound
	}
	v.Views++
	r.s.videos[id] = v
	return nil
}

func (r videos) Delete(_ context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.videos[id]; !ok {
		return database.ErrNotFound
	}
	delete(r.s.videos, id)
	return nil
}

type posts struct{ s *Store }

func (r posts) Create(_ context.Context, post models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[post.ID]; ok {
		return database.ErrDuplicate
	}
	r.s.posts[post.ID] = post
	return nil
}

func (r posts) FindByID(_ context.Context, id bson.ObjectID) (models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.posts[id]
	if !ok {
		return models.Post{}, database.ErrNotFound
	}
	return p, nil
}

func (r posts) List(_ context.Context, author *bson.ObjectID, includeHidden bool, page database.Page) ([]models.Post, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := make([]models.Post, 0)
	for _, p := range r.s.posts {
		if (includeHidden || p.Visibility == models.VisibilityPublic) && (author == nil || p.Author == *author) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, page), int64(len(matched)), nil
}

func (r posts) Update(_ context.Context, post models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[post.ID]; !ok {
		return database.ErrNotFound
	}
	post.Tags = slices.Clone(post.Tags)
	r.s.posts[post.ID] = post
	return nil
}

func (r posts) Delete(_ context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[id]; !ok {
		return database.ErrNotFound
	}
	delete(r.s.posts, id)
	return nil
}
