package service

import (
	"NewsComments/internal/models"
	"NewsComments/internal/repository"
	"NewsComments/internal/tree"
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"slices"
	"time"
)

var (
	// ErrNotPermitted is the single outcome of every rejected comment
	// operation: missing news, comment or parent, wrong author, elapsed edit
	// window, duplicate vote. The reason is logged, not returned.
	ErrNotPermitted = errors.New("comment operation not permitted")
	// ErrInvalidInput marks a caller contract violation.
	ErrInvalidInput = repository.ErrInvalidInput
)

const DefaultEditWindow = time.Hour

type NewsRepository interface {
	GetNewsByID(ctx context.Context, id int64) (*models.News, error)
	IncrCommentCount(ctx context.Context, id int64, delta int64) error
}

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	IncrReplies(ctx context.Context, id int64) (bool, error)
}

type Options struct {
	EditWindow time.Duration
	Sort       tree.SortFunc
	Now        func() time.Time
}

type Service struct {
	threads    *repository.ThreadStore
	timeline   *repository.Timeline
	news       NewsRepository
	users      UserRepository
	walker     *tree.Walker
	editWindow time.Duration
	now        func() time.Time
	log        *zap.Logger
}

func NewService(threads *repository.ThreadStore, timeline *repository.Timeline, news NewsRepository, users UserRepository, opts Options, log *zap.Logger) *Service {
	if opts.EditWindow <= 0 {
		opts.EditWindow = DefaultEditWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		threads:    threads,
		timeline:   timeline,
		news:       news,
		users:      users,
		walker:     tree.NewWalker(opts.Sort),
		editWindow: opts.EditWindow,
		now:        opts.Now,
		log:        log.Named("service"),
	}
}

func (s *Service) reject(reason string, fields ...zap.Field) error {
	s.log.Debug("Comment operation rejected", append(fields, zap.String("reason", reason))...)
	return ErrNotPermitted
}

// SubmitComment inserts a new comment when req.CommentID is models.RootID,
// otherwise updates the existing comment, or deletes it when req.Body is
// empty. ParentID is only used for inserts.
func (s *Service) SubmitComment(ctx context.Context, userID int64, req models.CommentRequest) (*models.Result, error) {
	fields := []zap.Field{zap.Int64("news_id", req.NewsID), zap.Int64("comment_id", req.CommentID), zap.Int64("user_id", userID)}

	if _, err := s.news.GetNewsByID(ctx, req.NewsID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.reject("news not found", fields...)
		}
		return nil, fmt.Errorf("failed to get news: %w", err)
	}

	if req.CommentID == models.RootID {
		return s.insertComment(ctx, userID, req, fields)
	}
	return s.editComment(ctx, userID, req, fields)
}

func (s *Service) insertComment(ctx context.Context, userID int64, req models.CommentRequest, fields []zap.Field) (*models.Result, error) {
	var parent *models.Comment
	if req.ParentID != nil && *req.ParentID != models.RootID {
		p, err := s.threads.Fetch(ctx, req.NewsID, *req.ParentID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.reject("parent not found", append(fields, zap.Int64("parent_id", *req.ParentID))...)
		}
		if err != nil {
			return nil, err
		}
		parent = p
	}

	now := s.now().Unix()
	id, err := s.threads.Insert(ctx, req.NewsID, models.Draft{
		ParentID: req.ParentID,
		UserID:   userID,
		Body:     req.Body,
		CTime:    now,
		Up:       []int64{userID},
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, s.reject("parent not found", fields...)
	}
	if err != nil {
		return nil, err
	}

	if err := s.news.IncrCommentCount(ctx, req.NewsID, 1); err != nil {
		s.log.Error("Failed to increment news comment counter", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to increment news comment counter: %w", err)
	}
	if err := s.timeline.Append(ctx, userID, req.NewsID, id, now); err != nil {
		return nil, err
	}
	if parent != nil {
		if _, err := s.users.IncrReplies(ctx, parent.UserID); err != nil {
			return nil, err
		}
	}

	s.log.Debug("Comment inserted", append(fields, zap.Int64("new_id", id))...)
	return &models.Result{NewsID: req.NewsID, CommentID: id, Op: models.OpInsert}, nil
}

func (s *Service) editComment(ctx context.Context, userID int64, req models.CommentRequest, fields []zap.Field) (*models.Result, error) {
	c, err := s.threads.Fetch(ctx, req.NewsID, req.CommentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, s.reject("comment not found", fields...)
	}
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, s.reject("not the author", fields...)
	}
	if !s.editable(c) {
		return nil, s.reject("edit window elapsed", fields...)
	}

	if req.Body == "" {
		if err := s.threads.DelComment(ctx, req.NewsID, req.CommentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, s.reject("comment not found", fields...)
			}
			return nil, err
		}
		if err := s.news.IncrCommentCount(ctx, req.NewsID, -1); err != nil {
			s.log.Error("Failed to decrement news comment counter", append(fields, zap.Error(err))...)
			return nil, fmt.Errorf("failed to decrement news comment counter: %w", err)
		}
		return &models.Result{NewsID: req.NewsID, CommentID: req.CommentID, Op: models.OpDelete}, nil
	}

	updates := []repository.Update{repository.BodyUpdate{Body: req.Body}}
	if c.Deleted() {
		updates = append(updates, repository.UndeleteUpdate{})
	}
	if err := s.threads.Edit(ctx, req.NewsID, req.CommentID, updates...); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.reject("comment not found", fields...)
		}
		return nil, err
	}
	return &models.Result{NewsID: req.NewsID, CommentID: req.CommentID, Op: models.OpUpdate}, nil
}

// editable reports whether the comment is still inside its edit window.
// The window is open while ctime > now - window.
func (s *Service) editable(c *models.Comment) bool {
	return c.CTime > s.now().Unix()-int64(s.editWindow/time.Second)
}

// VoteComment records one vote of the user in the given direction. A second
// vote in the same direction is rejected; up and down are independent sets.
func (s *Service) VoteComment(ctx context.Context, threadID, commentID, userID int64, direction models.Direction) error {
	if !direction.Valid() {
		return fmt.Errorf("vote direction %q: %w", direction, ErrInvalidInput)
	}
	fields := []zap.Field{zap.Int64("news_id", threadID), zap.Int64("comment_id", commentID), zap.Int64("user_id", userID), zap.String("direction", string(direction))}

	c, err := s.threads.Fetch(ctx, threadID, commentID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.reject("comment not found", fields...)
	}
	if err != nil {
		return err
	}

	votes := c.Votes(direction)
	if slices.Contains(votes, userID) {
		return s.reject("duplicate vote", fields...)
	}
	voters := append(slices.Clone(votes), userID)
	if err := s.threads.Edit(ctx, threadID, commentID, repository.VoteSetUpdate{Direction: direction, Voters: voters}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.reject("comment not found", fields...)
		}
		return err
	}
	return nil
}

// RenderComments walks the thread from root in depth-first pre-order. Nothing
// is visited when the thread has no top-level comment.
func (s *Service) RenderComments(ctx context.Context, threadID, root int64, visit tree.VisitFunc) error {
	idx, err := s.threads.FetchThread(ctx, threadID)
	if err != nil {
		return err
	}
	if !idx.HasTopLevel() {
		return nil
	}
	return s.walker.Walk(ctx, idx, root, 0, visit)
}

func (s *Service) GetComment(ctx context.Context, threadID, commentID int64) (*models.Comment, error) {
	return s.threads.Fetch(ctx, threadID, commentID)
}

func (s *Service) CommentsInThread(ctx context.Context, threadID int64) (int64, error) {
	return s.threads.CommentsInThread(ctx, threadID)
}

func (s *Service) RemoveThread(ctx context.Context, threadID int64) error {
	s.log.Info("Removing thread", zap.Int64("news_id", threadID))
	return s.threads.RemoveThread(ctx, threadID)
}

func (s *Service) GetUserComments(ctx context.Context, userID, start, count int64) (*models.UserComments, error) {
	comments, total, err := s.timeline.Page(ctx, userID, start, count)
	if err != nil {
		return nil, err
	}
	return &models.UserComments{Comments: comments, Total: total, Start: start, Count: count}, nil
}
