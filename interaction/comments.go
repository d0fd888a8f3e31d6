package interaction

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/events"
	"github.com/clipnest/backend/media"
	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CommentManager owns the comment tree: top-level comments on a video or
// post and one level of replies under them.
type CommentManager struct {
	comments database.CommentRepository
	likes    database.LikeRepository
	resolver *Resolver
	events   events.Publisher
	cleanup  media.CleanupFunc
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

type CommentManagerOptions struct {
	Events events.Publisher
	// Cleanup removes attachment blobs of deleted comments.
	Cleanup media.CleanupFunc
	Logger  *slog.Logger
	Timeout time.Duration
	Now     func() time.Time
}

func NewCommentManager(repos database.Repositories, resolver *Resolver, opts CommentManagerOptions) *CommentManager {
	if opts.Events == nil {
		opts.Events = events.Noop()
	}
	if opts.Cleanup == nil {
		opts.Cleanup = func(context.Context, ...string) {}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CommentManager{
		comments: repos.Comments,
		likes:    repos.Likes,
		resolver: resolver,
		events:   opts.Events,
		cleanup:  opts.Cleanup,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
		now:      opts.Now,
	}
}

type NewCommentInput struct {
	// Target is the video or post commented on. A comment target is read as
	// a reply to that comment.
	Target      models.Target
	Content     string
	ParentID    *bson.ObjectID
	Attachments []string
}

// Create stores a top-level comment, or a reply when a parent is given.
func (m *CommentManager) Create(ctx context.Context, author bson.ObjectID, in NewCommentInput) (models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return models.Comment{}, apperr.InvalidArgumentf("comment content is required")
	}
	if in.Target.Kind == models.KindComment && in.ParentID == nil {
		parentID := in.Target.ID
		in.ParentID = &parentID
	}

	now := m.now().UTC()
	var (
		comment models.Comment
		err     error
	)
	if in.ParentID != nil {
		comment, err = m.newReply(ctx, author, in, now)
	} else {
		if in.Target.Kind != models.KindVideo && in.Target.Kind != models.KindPost {
			return models.Comment{}, apperr.InvalidArgumentf("comments attach to videos or posts")
		}
		if _, err := m.resolver.Resolve(ctx, in.Target); err != nil {
			return models.Comment{}, err
		}
		comment, err = models.NewComment(author, in.Target, in.Content, now)
	}
	if err != nil {
		return models.Comment{}, asInvalid(err)
	}
	comment.Attachments = nonEmpty(in.Attachments)

	ctx, cancel := database.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.comments.Create(ctx, comment); err != nil {
		return models.Comment{}, apperr.Wrap(err, "failed to create comment")
	}

	events.Emit(ctx, m.events, m.logger, events.New(events.CommentCreated, author.Hex(), comment))
	return comment, nil
}

func (m *CommentManager) newReply(ctx context.Context, author bson.ObjectID, in NewCommentInput, now time.Time) (models.Comment, error) {
	entity, err := m.resolver.Resolve(ctx, models.CommentTarget(*in.ParentID))
	if apperr.Is(err, apperr.NotFound) {
		return models.Comment{}, apperr.NotFoundf("parent comment not found")
	}
	if err != nil {
		return models.Comment{}, err
	}
	parent := *entity.Comment
	if parent.IsReply {
		return models.Comment{}, apperr.InvalidArgumentf("replies cannot be nested")
	}
	if in.Target.Kind != models.KindComment && in.Target != parent.Target {
		return models.Comment{}, apperr.InvalidArgumentf("parent comment belongs to other content")
	}
	return models.NewReply(author, parent, in.Content, now)
}

// CommentPage is one page of top-level comments with their replies.
type CommentPage struct {
	Comments []models.CommentThread `json:"comments"`
	Total    int64                  `json:"totalComments"`
	Page     int64                  `json:"page"`
	Limit    int64                  `json:"limit"`
	HasMore  bool                   `json:"hasMore"`
}

// List paginates the top-level comments of target. Replies are inlined in
// full under each parent, newest first.
func (m *CommentManager) List(ctx context.Context, target models.Target, sort models.CommentSort, page, limit int64) (CommentPage, error) {
	if target.Kind != models.KindVideo && target.Kind != models.KindPost {
		return CommentPage{}, apperr.InvalidArgumentf("comments attach to videos or posts")
	}
	if page < 1 || limit < 1 {
		return CommentPage{}, apperr.InvalidArgumentf("page and limit must be positive")
	}
	if _, err := m.resolver.Resolve(ctx, target); err != nil {
		return CommentPage{}, err
	}

	ctx, cancel := database.WithTimeout(ctx, m.timeout)
	defer cancel()

	top, total, err := m.comments.ListTopLevel(ctx, target, sort, database.Page{Skip: (page - 1) * limit, Limit: limit})
	if err != nil {
		return CommentPage{}, apperr.Wrap(err, "failed to list comments")
	}
	parents := make([]bson.ObjectID, 0, len(top))
	for _, c := range top {
		parents = append(parents, c.ID)
	}
	byParent := make(map[bson.ObjectID][]models.Comment, len(top))
	if len(parents) > 0 {
		replies, err := m.comments.ListReplies(ctx, parents)
		if err != nil {
			return CommentPage{}, apperr.Wrap(err, "failed to list replies")
		}
		for _, r := range replies {
			byParent[*r.ParentComment] = append(byParent[*r.ParentComment], r)
		}
	}

	threads := make([]models.CommentThread, 0, len(top))
	for _, c := range top {
		replies := byParent[c.ID]
		if replies == nil {
			replies = []models.Comment{}
		}
		threads = append(threads, models.CommentThread{Comment: c, LikesCount: c.LikesCount(), Replies: replies})
	}
	return CommentPage{
		Comments: threads,
		Total:    total,
		Page:     page,
		Limit:    limit,
		HasMore:  page*limit < total,
	}, nil
}

// Update replaces the content of a comment owned by actor.
func (m *CommentManager) Update(ctx context.Context, id, actor bson.ObjectID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.InvalidArgumentf("comment content is required")
	}
	comment, err := m.owned(ctx, id, actor, "edit")
	if err != nil {
		return models.Comment{}, err
	}

	ctx, cancel := database.WithTimeout(ctx, m.timeout)
	defer cancel()
	now := m.now().UTC()
	if err := m.comments.UpdateContent(ctx, id, content, now); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Comment{}, apperr.NotFoundf("comment not found")
		}
		return models.Comment{}, apperr.Wrap(err, "failed to update comment")
	}
	comment.Content = content
	comment.IsEdited = true
	comment.UpdatedAt = now
	return comment, nil
}

// Delete removes a comment owned by actor and, for a top-level comment, its
// replies. It returns the number of comments removed.
func (m *CommentManager) Delete(ctx context.Context, id, actor bson.ObjectID) (int64, error) {
	comment, err := m.owned(ctx, id, actor, "delete")
	if err != nil {
		return 0, err
	}

	ctx, cancel := database.WithTimeout(ctx, m.timeout)
	defer cancel()
	removed, blobs, err := m.deleteTree(ctx, comment)
	if err != nil {
		return removed, err
	}
	m.cleanup(ctx, blobs...)

	events.Emit(ctx, m.events, m.logger, events.New(events.CommentDeleted, actor.Hex(), map[string]any{
		"commentId": comment.ID.Hex(),
		"target":    comment.Target,
		"removed":   removed,
	}))
	return removed, nil
}

// deleteTree deletes children before the parent: like rows, then replies,
// then the comment. A crash midway leaves at worst orphaned children and a
// rerun finishes the job.
func (m *CommentManager) deleteTree(ctx context.Context, comment models.Comment) (int64, []string, error) {
	ids := []bson.ObjectID{comment.ID}
	blobs := append([]string{}, comment.Attachments...)

	if !comment.IsReply {
		replies, err := m.comments.ListReplies(ctx, []bson.ObjectID{comment.ID})
		if err != nil {
			return 0, nil, apperr.Wrap(err, "failed to list replies")
		}
		for _, r := range replies {
			ids = append(ids, r.ID)
			blobs = append(blobs, r.Attachments...)
		}
	}

	if _, err := m.likes.DeleteByTargets(ctx, models.KindComment, ids); err != nil {
		return 0, nil, apperr.Wrap(err, "failed to delete comment likes")
	}
	var removed int64
	if !comment.IsReply {
		n, err := m.comments.DeleteReplies(ctx, comment.ID)
		if err != nil {
			return 0, nil, apperr.Wrap(err, "failed to delete replies")
		}
		removed += n
	}
	if err := m.comments.Delete(ctx, comment.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
		return removed, nil, apperr.Wrap(err, "failed to delete comment")
	}
	return removed + 1, blobs, nil
}

// PurgeTarget removes everything hanging off a video or post before the
// document itself is deleted: its comments with their likes, and the like
// rows on the target.
func (m *CommentManager) PurgeTarget(ctx context.Context, target models.Target) (int64, error) {
	ctx, cancel := database.WithTimeout(ctx, m.timeout)
	defer cancel()

	all, err := m.comments.ListByTarget(ctx, target)
	if err != nil {
		return 0, apperr.Wrap(err, "failed to list comments")
	}
	ids := make([]bson.ObjectID, 0, len(all))
	var blobs []string
	for _, c := range all {
		ids = append(ids, c.ID)
		blobs = append(blobs, c.Attachments...)
	}
	if len(ids) > 0 {
		if _, err := m.likes.DeleteByTargets(ctx, models.KindComment, ids); err != nil {
			return 0, apperr.Wrap(err, "failed to delete comment likes")
		}
	}

	var removed int64
	// Replies first so no reply outlives its parent.
	for _, pass := range []bool{true, false} {
		for _, c := range all {
			if c.IsReply != pass {
				continue
			}
			if err := m.comments.Delete(ctx, c.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
				return removed, apperr.Wrap(err, "failed to delete comment")
			}
			removed++
		}
	}
	if _, err := m.likes.DeleteByTargets(ctx, target.Kind, []bson.ObjectID{target.ID}); err != nil {
		return removed, apperr.Wrap(err, "failed to delete likes")
	}
	m.cleanup(ctx, blobs...)
	return removed, nil
}

// CountComments counts every comment on target, replies included.
func (m *CommentManager) CountComments(ctx context.Context, target models.Target) (int64, error) {
	ctx, cancel := database.WithTimeout(ctx, m.timeout)
	defer cancel()
	n, err := m.comments.CountByTarget(ctx, target)
	if err != nil {
		return 0, apperr.Wrap(err, "failed to count comments")
	}
	return n, nil
}

func (m *CommentManager) owned(ctx context.Context, id, actor bson.ObjectID, verb string) (models.Comment, error) {
	entity, err := m.resolver.Resolve(ctx, models.CommentTarget(id))
	if err != nil {
		return models.Comment{}, err
	}
	if entity.Comment.Owner != actor {
		return models.Comment{}, apperr.Forbiddenf("you can only %s your own comments", verb)
	}
	return *entity.Comment, nil
}

func asInvalid(err error) error {
	if errors.Is(err, models.ErrEmptyContent) || errors.Is(err, models.ErrInvalidCommentTarget) {
		return apperr.InvalidArgumentf("%s", err.Error())
	}
	return err
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
