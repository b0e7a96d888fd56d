package service

import (
	"NewsComments/internal/models"
	"NewsComments/internal/repository"
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

// deletedUser stands in for authors whose account no longer exists.
var deletedUser = models.User{ID: -1, Username: "deleted_user"}

// RenderThread returns the views of the whole thread in walk order.
func (s *Service) RenderThread(ctx context.Context, threadID, viewerID int64) ([]models.CommentView, error) {
	return s.renderFrom(ctx, threadID, models.RootID, viewerID)
}

// RenderSubthread renders one comment and the replies below it.
func (s *Service) RenderSubthread(ctx context.Context, threadID, commentID, viewerID int64) (*models.Subthread, error) {
	c, err := s.threads.Fetch(ctx, threadID, commentID)
	if err != nil {
		return nil, err
	}
	u, err := s.author(ctx, c.UserID)
	if err != nil {
		return nil, err
	}
	replies, err := s.renderFrom(ctx, threadID, commentID, viewerID)
	if err != nil {
		return nil, err
	}
	return &models.Subthread{
		Comment: s.view(c, u, viewerID, true),
		Replies: replies,
	}, nil
}

func (s *Service) renderFrom(ctx context.Context, threadID, root, viewerID int64) ([]models.CommentView, error) {
	views := []models.CommentView{}
	authors := make(map[int64]*models.User)
	err := s.RenderComments(ctx, threadID, root, func(ctx context.Context, c *models.Comment) error {
		u, ok := authors[c.ID]
		if !ok {
			var err error
			if u, err = s.author(ctx, c.UserID); err != nil {
				return err
			}
			authors[c.ID] = u
		}
		views = append(views, s.view(c, u, viewerID, false))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *Service) author(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		du := deletedUser
		return &du, nil
	}
	return u, err
}

// view builds the presentation record of a comment for viewerID (0 when
// anonymous). Deleted comments become bare placeholders.
func (s *Service) view(c *models.Comment, u *models.User, viewerID int64, showParent bool) models.CommentView {
	v := models.CommentView{
		ID:         c.ID,
		ThreadID:   c.ThreadID,
		ParentID:   c.ParentID,
		Level:      c.Level,
		Score:      models.Score(c),
		TopComment: c.TopComment,
	}
	if c.Deleted() {
		v.Deleted = true
		return v
	}

	v.Author = u.Username
	v.UserID = c.UserID
	v.Body = strings.TrimSpace(c.Body)
	v.CTime = c.CTime
	v.ShowParent = showParent && c.ParentID > models.RootID
	if c.TopComment || viewerID <= 0 {
		return v
	}

	switch {
	case slices.Contains(c.Up, viewerID):
		v.Voted = models.VoteUp
	case slices.Contains(c.Down, viewerID):
		v.Voted = models.VoteDown
	}
	if viewerID == c.UserID && s.editable(c) {
		v.Editable = true
		elapsed := s.now().Unix() - c.CTime
		v.MinutesLeft = (int64(s.editWindow/time.Second) - elapsed) / 60
	}
	return v
}
