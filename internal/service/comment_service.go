package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"inkraft/internal/models"
	"inkraft/internal/notifications"
	"inkraft/internal/observability"
	"inkraft/internal/ratelimit"
	"inkraft/internal/repository"
	"inkraft/internal/trust"
)

const maxCommentLen = 10000

// DefaultAutoApproveTrust is the trust score from which new comments skip the
// moderation queue.
const DefaultAutoApproveTrust = 1.2

type CommentService struct {
	comments         repository.CommentRepository
	posts            repository.PostRepository
	users            repository.UserRepository
	limiter          ratelimit.Limiter
	notifier         *notifications.Notifier
	autoApproveTrust float64
	now              func() time.Time
}

type CreateCommentInput struct {
	UserID   uint
	PostSlug string
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	UserID    uint
	PostSlug  string
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	PostSlug  string
	CommentID uint
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	limiter ratelimit.Limiter,
	notifier *notifications.Notifier,
	autoApproveTrust float64,
) *CommentService {
	if autoApproveTrust <= 0 {
		autoApproveTrust = DefaultAutoApproveTrust
	}
	return &CommentService{
		comments:         comments,
		posts:            posts,
		users:            users,
		limiter:          limiter,
		notifier:         notifier,
		autoApproveTrust: autoApproveTrust,
		now:              utcNow,
	}
}

func validateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return nil
}

func (s *CommentService) publishedPost(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.Published {
		return nil, models.NewNotFoundError("Post", slug)
	}
	return post, nil
}

// checkRate consumes one attempt from the user's quota. A failing limiter
// backend lets the comment through.
func (s *CommentService) checkRate(ctx context.Context, user *models.User) error {
	if s.limiter == nil {
		return nil
	}
	d, err := s.limiter.Allow(ctx, user.ID, user.TrustScore)
	if err != nil {
		slog.WarnContext(ctx, "comment rate limiter unavailable", "user_id", user.ID, "err", err)
		return nil
	}
	if !d.Allowed {
		observability.RateLimitRejections.WithLabelValues(fmt.Sprint(d.Limit)).Inc()
		return models.NewRateLimitedError(
			fmt.Sprintf("Comment limit reached (%d per %d minutes)", d.Limit, int(ratelimit.Window.Minutes())),
			d.RetryAfter,
		)
	}
	return nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	user, err := activeUser(ctx, s.users, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	post, err := s.publishedPost(ctx, in.PostSlug)
	if err != nil {
		return nil, err
	}

	depth := 0
	var parent *models.Comment
	if in.ParentID != nil {
		parent, err = s.comments.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, models.NewValidationError("Parent comment belongs to another post")
		}
		if parent.Deleted || parent.ModerationStatus == models.ModerationRejected {
			return nil, models.NewValidationError("Cannot reply to a removed comment")
		}
		depth = parent.Depth + 1
		if depth > models.MaxCommentDepth {
			return nil, models.NewValidationError(fmt.Sprintf("Replies cannot be nested deeper than %d levels", models.MaxCommentDepth))
		}
	}

	if err := s.checkRate(ctx, user); err != nil {
		return nil, err
	}

	status := models.ModerationPending
	if trust.AutoApproves(user.TrustScore, s.autoApproveTrust) {
		status = models.ModerationApproved
	}
	comment := &models.Comment{
		Content:          in.Content,
		PostID:           post.ID,
		UserID:           user.ID,
		ParentID:         in.ParentID,
		Depth:            depth,
		ModerationStatus: status,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.WithLabelValues(string(status)).Inc()

	if status == models.ModerationApproved {
		s.notifyPublished(ctx, comment, post, parent)
	}
	return s.comments.GetByID(ctx, comment.ID)
}

// notifyPublished tells the post author and the parent's author about a
// newly visible comment. Notification failures are logged only.
func (s *CommentService) notifyPublished(ctx context.Context, c *models.Comment, post *models.Post, parent *models.Comment) {
	notify := func(userID uint, kind string) {
		if userID == c.UserID {
			return
		}
		ev := notifications.Event{Type: kind, PostID: post.ID, PostSlug: post.Slug, CommentID: c.ID, ActorID: c.UserID}
		if err := s.notifier.Notify(ctx, userID, ev); err != nil {
			slog.WarnContext(ctx, "failed to publish comment notification", "user_id", userID, "type", kind, "err", err)
		}
	}
	if parent != nil {
		notify(parent.UserID, notifications.EventCommentReply)
		if parent.UserID == post.AuthorID {
			return
		}
	}
	notify(post.AuthorID, notifications.EventPostComment)
}

// ListComments returns the visible comment tree of a post. viewerID may be 0.
func (s *CommentService) ListComments(ctx context.Context, slug string, viewerID uint) ([]*models.Comment, error) {
	post, err := s.publishedPost(ctx, slug)
	if err != nil {
		return nil, err
	}
	all, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return BuildCommentTree(all, viewerID), nil
}

// BuildCommentTree nests comments under their parents, keeping approved
// comments and the viewer's own pending ones. A deleted comment stays as a
// placeholder only while some reply under it is still shown. comments must be
// ordered oldest first.
func BuildCommentTree(comments []*models.Comment, viewerID uint) []*models.Comment {
	children := make(map[uint][]*models.Comment, len(comments))
	var roots []*models.Comment
	for _, c := range comments {
		c.Replies = nil
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	var build func(c *models.Comment) *models.Comment
	build = func(c *models.Comment) *models.Comment {
		visible := !c.Deleted && (c.ModerationStatus == models.ModerationApproved ||
			(viewerID != 0 && c.UserID == viewerID && c.ModerationStatus == models.ModerationPending))
		if !visible && !c.Deleted {
			return nil
		}
		var replies []*models.Comment
		for _, child := range children[c.ID] {
			if shown := build(child); shown != nil {
				replies = append(replies, shown)
			}
		}
		if c.Deleted {
			if len(replies) == 0 {
				return nil
			}
			return &models.Comment{
				ID:               c.ID,
				Content:          models.DeletedCommentPlaceholder,
				PostID:           c.PostID,
				ParentID:         c.ParentID,
				Depth:            c.Depth,
				ModerationStatus: c.ModerationStatus,
				Deleted:          true,
				CreatedAt:        c.CreatedAt,
				UpdatedAt:        c.UpdatedAt,
				Replies:          replies,
			}
		}
		c.Replies = replies
		return c
	}

	tree := make([]*models.Comment, 0, len(roots))
	for _, r := range roots {
		if shown := build(r); shown != nil {
			tree = append(tree, shown)
		}
	}
	return tree
}

// loadForPost fetches a live comment and checks it belongs to the post in the URL.
func (s *CommentService) loadForPost(ctx context.Context, slug string, commentID uint) (*models.Comment, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != post.ID || comment.Deleted {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	user, err := activeUser(ctx, s.users, in.UserID)
	if err != nil {
		return nil, err
	}
	comment, err := s.loadForPost(ctx, in.PostSlug, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != user.ID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	if comment.ModerationStatus == models.ModerationRejected {
		return nil, models.NewValidationError("Rejected comments cannot be edited")
	}
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	if err := s.comments.UpdateContent(ctx, comment.ID, in.Content); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	user, err := activeUser(ctx, s.users, in.UserID)
	if err != nil {
		return err
	}
	comment, err := s.loadForPost(ctx, in.PostSlug, in.CommentID)
	if err != nil {
		return err
	}
	if !ownsOrAdmin(user, comment.UserID) {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	if err := s.comments.SoftDelete(ctx, comment, user.ID, s.now()); err != nil {
		return err
	}
	if user.ID != comment.UserID {
		observability.NewAuditLogger().LogAdminAction(ctx, user.ID, "delete_comment", "comment", comment.ID, nil)
	}
	return nil
}

// ModerateComment approves or rejects a pending comment and adjusts its
// author's trust.
func (s *CommentService) ModerateComment(ctx context.Context, adminID, commentID uint, approve bool) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.Deleted {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	status, decision, event := models.ModerationRejected, "reject", notifications.EventCommentRejected
	if approve {
		status, decision, event = models.ModerationApproved, "approve", notifications.EventCommentApproved
	}
	if err := s.comments.SetModeration(ctx, comment.ID, status, adminID, s.now()); err != nil {
		return nil, err
	}
	observability.CommentsModerated.WithLabelValues(decision).Inc()
	observability.NewAuditLogger().LogAdminAction(ctx, adminID, decision+"_comment", "comment", comment.ID, nil)

	author, err := s.users.GetByID(ctx, comment.UserID)
	if err != nil {
		return nil, err
	}
	if next := trust.AfterModeration(author.TrustScore, author.TrustFrozen, approve); next != author.TrustScore {
		if err := s.users.UpdateFields(ctx, author.ID, map[string]any{"trust_score": next}); err != nil {
			return nil, err
		}
	}

	post, err := s.posts.GetByID(ctx, comment.PostID)
	if err != nil && !models.HasCode(err, models.CodeNotFound) {
		return nil, err
	}
	ev := notifications.Event{Type: event, CommentID: comment.ID, ActorID: adminID}
	if post != nil {
		ev.PostID, ev.PostSlug = post.ID, post.Slug
	}
	if err := s.notifier.Notify(ctx, author.ID, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish moderation notification", "user_id", author.ID, "err", err)
	}
	if approve && post != nil {
		var parent *models.Comment
		if comment.ParentID != nil {
			if p, err := s.comments.GetByID(ctx, *comment.ParentID); err == nil {
				parent = p
			}
		}
		s.notifyPublished(ctx, comment, post, parent)
	}
	return s.comments.GetByID(ctx, comment.ID)
}

// AdminListComments lists comments for the moderation queue. An empty status
// lists every state.
func (s *CommentService) AdminListComments(ctx context.Context, f repository.CommentFilter) ([]*models.Comment, int64, error) {
	return s.comments.List(ctx, f)
}
