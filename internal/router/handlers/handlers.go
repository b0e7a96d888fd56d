package handlers

import (
	"NewsComments/internal/models"
	"NewsComments/internal/repository"
	"NewsComments/internal/service"
	"errors"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"
	"net/http"
	"strconv"
)

// UserIDHeader carries the authenticated user id set by the auth proxy.
const UserIDHeader = "X-User-ID"

type CommentHandler struct {
	service  *service.Service
	validate *validator.Validate
}

func NewCommentHandler(service *service.Service) *CommentHandler {
	return &CommentHandler{service: service, validate: validator.New()}
}

type submitRequest struct {
	CommentID *int64 `json:"comment_id"`
	ParentID  *int64 `json:"parent_id"`
	Body      string `json:"body" validate:"max=10000"`
}

type voteRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

func (h *CommentHandler) SubmitComment(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	newsID, ok := pathID(c, "news_id")
	if !ok {
		return
	}
	userID, ok := actingUser(c)
	if !ok {
		return
	}

	req := &submitRequest{}
	if err := json.NewDecoder(c.Request.Body).Decode(req); err != nil {
		log.Warn("Failed to decode request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ginext.H{"error": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("Invalid comment request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ginext.H{"error": err.Error()})
		return
	}

	commentID := models.RootID
	if req.CommentID != nil {
		commentID = *req.CommentID
	}
	result, err := h.service.SubmitComment(c.Request.Context(), userID, models.CommentRequest{
		NewsID:    newsID,
		CommentID: commentID,
		ParentID:  req.ParentID,
		Body:      req.Body,
	})
	if err != nil {
		respondError(c, log, "Failed to submit comment", err)
		return
	}
	status := http.StatusOK
	if result.Op == models.OpInsert {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

func (h *CommentHandler) VoteComment(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	newsID, ok := pathID(c, "news_id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}
	userID, ok := actingUser(c)
	if !ok {
		return
	}

	req := &voteRequest{}
	if err := json.NewDecoder(c.Request.Body).Decode(req); err != nil {
		log.Warn("Failed to decode request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ginext.H{"error": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, ginext.H{"error": err.Error()})
		return
	}

	err := h.service.VoteComment(c.Request.Context(), newsID, commentID, userID, models.Direction(req.Direction))
	if err != nil {
		respondError(c, log, "Failed to vote comment", err)
		return
	}
	c.JSON(http.StatusOK, ginext.H{"news_id": newsID, "comment_id": commentID, "direction": req.Direction})
}

func (h *CommentHandler) GetThread(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	newsID, ok := pathID(c, "news_id")
	if !ok {
		return
	}

	views, err := h.service.RenderThread(c.Request.Context(), newsID, viewer(c))
	if err != nil {
		respondError(c, log, "Failed to render comments", err)
		return
	}
	c.JSON(http.StatusOK, ginext.H{"news_id": newsID, "comments": views})
}

func (h *CommentHandler) GetSubthread(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	newsID, ok := pathID(c, "news_id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	sub, err := h.service.RenderSubthread(c.Request.Context(), newsID, commentID, viewer(c))
	if err != nil {
		respondError(c, log, "Failed to render subthread", err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *CommentHandler) CountComments(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	newsID, ok := pathID(c, "news_id")
	if !ok {
		return
	}

	count, err := h.service.CommentsInThread(c.Request.Context(), newsID)
	if err != nil {
		respondError(c, log, "Failed to count comments", err)
		return
	}
	c.JSON(http.StatusOK, ginext.H{"news_id": newsID, "count": count})
}

func (h *CommentHandler) RemoveThread(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	newsID, ok := pathID(c, "news_id")
	if !ok {
		return
	}

	if err := h.service.RemoveThread(c.Request.Context(), newsID); err != nil {
		respondError(c, log, "Failed to remove thread", err)
		return
	}
	log.Debug("Removed thread", zap.Int64("news_id", newsID))
	c.JSON(http.StatusOK, ginext.H{"news_id": newsID})
}

func (h *CommentHandler) GetUserComments(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	start, ok := queryInt(c, "start", 0)
	if !ok {
		return
	}
	count, ok := queryInt(c, "count", 20)
	if !ok {
		return
	}
	if start < 0 {
		start = 0
	}
	if count < 1 || count > 100 {
		count = 20
	}

	page, err := h.service.GetUserComments(c.Request.Context(), userID, start, count)
	if err != nil {
		respondError(c, log, "Failed to get user comments", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func respondError(c *ginext.Context, log *zap.Logger, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		log.Warn(msg, zap.Error(err))
		c.JSON(http.StatusBadRequest, ginext.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotPermitted):
		log.Debug(msg, zap.Error(err))
		c.JSON(http.StatusForbidden, ginext.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		log.Debug(msg, zap.Error(err))
		c.JSON(http.StatusNotFound, ginext.H{"error": "Not found"})
	default:
		log.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, ginext.H{"error": msg})
	}
}

func pathID(c *ginext.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ginext.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *ginext.Context, name string, def int64) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ginext.H{"error": "Invalid " + name})
		return 0, false
	}
	return n, true
}

func actingUser(c *ginext.Context) (int64, bool) {
	id := viewer(c)
	if id <= 0 {
		c.JSON(http.StatusUnauthorized, ginext.H{"error": "Missing " + UserIDHeader})
		return 0, false
	}
	return id, true
}

// viewer is the requesting user, 0 when anonymous.
func viewer(c *ginext.Context) int64 {
	id, err := strconv.ParseInt(c.GetHeader(UserIDHeader), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
