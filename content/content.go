// Package content manages videos and posts, the entities likes and comments
// attach to.
package content

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/interaction"
	"github.com/clipnest/backend/media"
	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// newPostWindow is how long a post is flagged as new.
const newPostWindow = 24 * time.Hour

type Service struct {
	videos   database.VideoRepository
	posts    database.PostRepository
	users    database.UserRepository
	comments *interaction.CommentManager
	likes    *interaction.LikeEngine
	cleanup  media.CleanupFunc
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

type Options struct {
	Cleanup media.CleanupFunc
	Logger  *slog.Logger
	Timeout time.Duration
	Now     func() time.Time
}

func NewService(repos database.Repositories, comments *interaction.CommentManager, likes *interaction.LikeEngine, opts Options) *Service {
	if opts.Cleanup == nil {
		opts.Cleanup = func(context.Context, ...string) {}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		videos:   repos.Videos,
		posts:    repos.Posts,
		users:    repos.Users,
		comments: comments,
		likes:    likes,
		cleanup:  opts.Cleanup,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
		now:      opts.Now,
	}
}

// Page is a window of a listing.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int64 `json:"page"`
	Limit   int64 `json:"limit"`
	HasMore bool  `json:"hasMore"`
}

func newPage[T any](items []T, total, page, limit int64) Page[T] {
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit, HasMore: page*limit < total}
}

func window(page, limit int64) (database.Page, error) {
	if page < 1 || limit < 1 {
		return database.Page{}, apperr.InvalidArgumentf("page and limit must be positive")
	}
	return database.Page{Skip: (page - 1) * limit, Limit: limit}, nil
}

type NewVideo struct {
	Title       string
	Description string
	VideoFile   string
	Thumbnail   string
	Duration    float64
	IsPublished bool
}

func (s *Service) CreateVideo(ctx context.Context, owner bson.ObjectID, in NewVideo) (models.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.Video{}, apperr.InvalidArgumentf("title is required")
	}
	if in.VideoFile == "" || in.Thumbnail == "" {
		return models.Video{}, apperr.InvalidArgumentf("video file and thumbnail are required")
	}
	if in.Duration < 0 {
		return models.Video{}, apperr.InvalidArgumentf("duration must not be negative")
	}
	now := s.now().UTC()
	video := models.Video{
		ID:          bson.NewObjectID(),
		VideoFile:   in.VideoFile,
		Thumbnail:   in.Thumbnail,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Duration:    in.Duration,
		IsPublished: in.IsPublished,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.videos.Create(ctx, video); err != nil {
		return models.Video{}, apperr.Wrap(err, "failed to create video")
	}
	return video, nil
}

func (s *Service) ListVideos(ctx context.Context, owner *bson.ObjectID, page, limit int64) (Page[models.Video], error) {
	w, err := window(page, limit)
	if err != nil {
		return Page[models.Video]{}, err
	}
	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	defer cancel()
	items, total, err := s.videos.ListPublished(ctx, owner, w)
	if err != nil {
		return Page[models.Video]{}, apperr.Wrap(err, "failed to list videos")
	}
	return newPage(items, total, page, limit), nil
}

// GetVideo loads a video. An authenticated viewer counts as a view and the
// video moves to the end of their watch history.
func (s *Service) GetVideo(ctx context.Context, id bson.ObjectID, viewer *bson.ObjectID) (models.Video, error) {
	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	defer cancel()

	video, err := s.videos.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.Video{}, apperr.NotFoundf("video not found")
	}
	if err != nil {
		return models.Video{}, apperr.Wrap(err, "failed to load video")
	}
	isOwner := viewer != nil && *viewer == video.Owner
	if !video.IsPublished && !isOwner {
		return models.Video{}, apperr.NotFoundf("video not found")
	}
	if viewer == nil {
		return video, nil
	}

	if err := s.videos.IncrementViews(ctx, id); err != nil {
		return models.Video{}, apperr.Wrap(err, "failed to record view")
	}
	video.Views++
	if err := s.users.AppendWatchHistory(ctx, *viewer, id); err != nil {
		return models.Video{}, apperr.Wrap(err, "failed to update watch history")
	}
	return video, nil
}

// DeleteVideo removes a video owned by actor after its comments and likes.
func (s *Service) DeleteVideo(ctx context.Context, id, actor bson.ObjectID) error {
	video, err := s.ownedVideo(ctx, id, actor)
	if err != nil {
		return err
	}
	if _, err := s.comments.PurgeTarget(ctx, models.VideoTarget(id)); err != nil {
		return err
	}

	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.videos.Delete(ctx, id); err != nil && !errors.Is(err, database.ErrNotFound) {
		return apperr.Wrap(err, "failed to delete video")
	}
	s.cleanup(ctx, video.BlobURLs()...)
	return nil
}

func (s *Service) ownedVideo(ctx context.Context, id, actor bson.ObjectID) (models.Video, error) {
	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	defer cancel()
	video, err := s.videos.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.Video{}, apperr.NotFoundf("video not found")
	}
	if err != nil {
		return models.Video{}, apperr.Wrap(err, "failed to load video")
	}
	if video.Owner != actor {
		return models.Video{}, apperr.Forbiddenf("you can only delete your own videos")
	}
	return video, nil
}

// WatchHistory returns the videos a user watched, most recent first.
// Deleted videos are skipped.
func (s *Service) WatchHistory(ctx context.Context, userID bson.ObjectID) ([]models.Video, error) {
	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFoundf("user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load user")
	}
	found, err := s.videos.FindByIDs(ctx, user.WatchHistory)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load videos")
	}
	byID := make(map[bson.ObjectID]models.Video, len(found))
	for _, v := range found {
		byID[v.ID] = v
	}
	history := slices.Clone(user.WatchHistory)
	slices.Reverse(history)
	out := make([]models.Video, 0, len(history))
	for _, id := range history {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type NewPost struct {
	Title      string
	Content    string
	MediaURL   string
	MediaType  models.MediaType
	Tags       []string
	Visibility models.Visibility
}

// PostView is a post with its computed stats.
type PostView struct {
	models.Post
	Stats models.PostStats `json:"stats"`
}

func (s *Service) CreatePost(ctx context.Context, author bson.ObjectID, in NewPost) (models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" || in.Content == "" {
		return models.Post{}, apperr.InvalidArgumentf("title and content are required")
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	if !validVisibility(in.Visibility) {
		return models.Post{}, apperr.InvalidArgumentf("invalid visibility %q", in.Visibility)
	}
	if in.MediaURL == "" {
		in.MediaType = models.MediaNone
	}
	tags := normalizeTags(in.Tags)

	now := s.now().UTC()
	post := models.Post{
		ID:         bson.NewObjectID(),
		Title:      in.Title,
		Content:    in.Content,
		Author:     author,
		MediaURL:   in.MediaURL,
		MediaType:  in.MediaType,
		Tags:       tags,
		Visibility: in.Visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.posts.Create(ctx, post); err != nil {
		return models.Post{}, apperr.Wrap(err, "failed to create post")
	}
	return post, nil
}

// PostUpdate holds the changes to a post. Empty fields and nil Tags keep the
// stored value. A MediaURL replaces the current media.
type PostUpdate struct {
	Title      string
	Content    string
	Tags       []string
	Visibility models.Visibility
	MediaURL   string
	MediaType  models.MediaType
}

// UpdatePost applies in to a post authored by actor. Replaced media is
// deleted once the post no longer references it.
func (s *Service) UpdatePost(ctx context.Context, id, actor bson.ObjectID, in PostUpdate) (models.Post, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	if post.Author != actor {
		return models.Post{}, apperr.Forbiddenf("you can only update your own posts")
	}
	if in.Visibility != "" && !validVisibility(in.Visibility) {
		return models.Post{}, apperr.InvalidArgumentf("invalid visibility %q", in.Visibility)
	}

	if v := strings.TrimSpace(in.Title); v != "" {
		post.Title = v
	}
	if v := strings.TrimSpace(in.Content); v != "" {
		post.Content = v
	}
	if in.Tags != nil {
		post.Tags = normalizeTags(in.Tags)
	}
	if in.Visibility != "" {
		post.Visibility = in.Visibility
	}
	var replaced string
	if in.MediaURL != "" {
		replaced = post.MediaURL
		post.MediaURL, post.MediaType = in.MediaURL, in.MediaType
	}
	post.UpdatedAt = s.now().UTC()

	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Post{}, apperr.NotFoundf("post not found")
		}
		return models.Post{}, apperr.Wrap(err, "failed to update post")
	}
	if replaced != "" && replaced != post.MediaURL {
		s.cleanup(ctx, replaced)
	}
	return post, nil
}

func validVisibility(v models.Visibility) bool {
	switch v {
	case models.VisibilityPublic, models.VisibilityPrivate, models.VisibilityFollowers:
		return true
	}
	return false
}

// normalizeTags lowercases and trims tags and drops blanks and duplicates.
func normalizeTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	return tags
}

// ListPosts lists public posts, or all posts of author when the viewer is
// that author.
func (s *Service) ListPosts(ctx context.Context, author, viewer *bson.ObjectID, page, limit int64) (Page[PostView], error) {
	w, err := window(page, limit)
	if err != nil {
		return Page[PostView]{}, err
	}
	includeHidden := author != nil && viewer != nil && *author == *viewer

	listCtx, cancel := database.WithTimeout(ctx, s.timeout)
	items, total, err := s.posts.List(listCtx, author, includeHidden, w)
	cancel()
	if err != nil {
		return Page[PostView]{}, apperr.Wrap(err, "failed to list posts")
	}

	views := make([]PostView, 0, len(items))
	for _, p := range items {
		view, err := s.withStats(ctx, p)
		if err != nil {
			return Page[PostView]{}, err
		}
		views = append(views, view)
	}
	return newPage(views, total, page, limit), nil
}

func (s *Service) GetPost(ctx context.Context, id bson.ObjectID, viewer *bson.ObjectID) (PostView, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return PostView{}, err
	}
	if post.Visibility != models.VisibilityPublic && (viewer == nil || *viewer != post.Author) {
		return PostView{}, apperr.NotFoundf("post not found")
	}
	return s.withStats(ctx, post)
}

// DeletePost removes a post owned by actor after its comments and likes.
func (s *Service) DeletePost(ctx context.Context, id, actor bson.ObjectID) error {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return err
	}
	if post.Author != actor {
		return apperr.Forbiddenf("you can only delete your own posts")
	}
	if _, err := s.comments.PurgeTarget(ctx, models.PostTarget(id)); err != nil {
		return err
	}

	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.posts.Delete(ctx, id); err != nil && !errors.Is(err, database.ErrNotFound) {
		return apperr.Wrap(err, "failed to delete post")
	}
	s.cleanup(ctx, post.BlobURLs()...)
	return nil
}

func (s *Service) findPost(ctx context.Context, id bson.ObjectID) (models.Post, error) {
	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	defer cancel()
	post, err := s.posts.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.Post{}, apperr.NotFoundf("post not found")
	}
	if err != nil {
		return models.Post{}, apperr.Wrap(err, "failed to load post")
	}
	return post, nil
}

func (s *Service) withStats(ctx context.Context, post models.Post) (PostView, error) {
	target := models.PostTarget(post.ID)
	likes, err := s.likes.CountLikes(ctx, target)
	if err != nil {
		return PostView{}, err
	}
	comments, err := s.comments.CountComments(ctx, target)
	if err != nil {
		return PostView{}, err
	}
	return PostView{
		Post: post,
		Stats: models.PostStats{
			LikesCount:    likes,
			CommentsCount: comments,
			IsNew:         s.now().Sub(post.CreatedAt) < newPostWindow,
		},
	}, nil
}
