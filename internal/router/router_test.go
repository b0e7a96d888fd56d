package router

import (
	"NewsComments/internal/models"
	"NewsComments/internal/repository"
	"NewsComments/internal/router/handlers"
	"NewsComments/internal/service"
	"context"
	"fmt"
	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type stubNews struct {
	mu       sync.Mutex
	comments map[int64]int64
}

func (n *stubNews) GetNewsByID(_ context.Context, id int64) (*models.News, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	count, ok := n.comments[id]
	if !ok {
		return nil, fmt.Errorf("news %d: %w", id, repository.ErrNotFound)
	}
	return &models.News{ID: id, Comments: count}, nil
}

func (n *stubNews) IncrCommentCount(_ context.Context, id int64, delta int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.comments[id] += delta
	return nil
}

func newTestServer(t *testing.T) (http.Handler, *repository.Users) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zap.NewNop()
	kv := repository.NewRedisKV(client)
	threads := repository.NewThreadStore(kv, "comment", log)
	timeline := repository.NewTimeline(kv, threads, log)
	users := repository.NewUsers(kv, log)
	news := &stubNews{comments: map[int64]int64{1: 0}}

	svc := service.NewService(threads, timeline, news, users, service.Options{}, log)
	rout := NewRouter("test", handlers.NewCommentHandler(svc), log)
	return rout.GetEngine(), users
}

func do(t *testing.T, h http.Handler, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set(handlers.UserIDHeader, strconv.FormatInt(userID, 10))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSubmitAndRenderThread(t *testing.T) {
	h, users := newTestServer(t)
	require.NoError(t, users.Save(context.Background(), models.User{ID: 7, Username: "alice"}))

	w := do(t, h, http.MethodPost, "/comments/1", 7, `{"parent_id":-1,"body":"first"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var res models.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, models.Result{NewsID: 1, CommentID: 1, Op: models.OpInsert}, res)

	w = do(t, h, http.MethodPost, "/comments/1", 7, `{"parent_id":1,"body":"reply"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/comments/1", 7, "")
	require.Equal(t, http.StatusOK, w.Code)
	var thread struct {
		NewsID   int64                `json:"news_id"`
		Comments []models.CommentView `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &thread))
	require.Len(t, thread.Comments, 2)
	assert.Equal(t, int64(1), thread.Comments[0].ID)
	assert.Equal(t, "alice", thread.Comments[0].Author)
	assert.True(t, thread.Comments[0].Editable)
	assert.Equal(t, 1, thread.Comments[1].Level)

	w = do(t, h, http.MethodGet, "/threads/1/count", 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"news_id":1,"count":2}`, w.Body.String())
}

func TestSubmitErrors(t *testing.T) {
	h, _ := newTestServer(t)

	cases := []struct {
		name   string
		path   string
		user   int64
		body   string
		status int
	}{
		{"anonymous", "/comments/1", 0, `{"parent_id":-1,"body":"x"}`, http.StatusUnauthorized},
		{"bad news id", "/comments/abc", 7, `{"parent_id":-1,"body":"x"}`, http.StatusBadRequest},
		{"bad json", "/comments/1", 7, `{"parent_id":`, http.StatusBadRequest},
		{"no parent", "/comments/1", 7, `{"body":"x"}`, http.StatusBadRequest},
		{"unknown news", "/comments/2", 7, `{"parent_id":-1,"body":"x"}`, http.StatusForbidden},
		{"unknown parent", "/comments/1", 7, `{"parent_id":42,"body":"x"}`, http.StatusForbidden},
		{"unknown comment", "/comments/1", 7, `{"comment_id":42,"body":"x"}`, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tc.path, tc.user, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestEditAndDelete(t *testing.T) {
	h, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/comments/1", 7, `{"parent_id":-1,"body":"first"}`).Code)

	w := do(t, h, http.MethodPost, "/comments/1", 8, `{"comment_id":1,"body":"hijack"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodPost, "/comments/1", 7, `{"comment_id":1,"body":"edited"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"news_id":1,"comment_id":1,"op":"update"}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/comments/1", 7, `{"comment_id":1,"body":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"news_id":1,"comment_id":1,"op":"delete"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/comments/1", 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"news_id":1,"comments":[]}`, w.Body.String())
}

func TestVote(t *testing.T) {
	h, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/comments/1", 7, `{"parent_id":-1,"body":"first"}`).Code)

	w := do(t, h, http.MethodPost, "/comments/1/1/vote", 8, `{"direction":"down"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/comments/1/1/vote", 8, `{"direction":"down"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodPost, "/comments/1/1/vote", 7, `{"direction":"up"}`)
	assert.Equal(t, http.StatusForbidden, w.Code, "author already voted up on insert")

	w = do(t, h, http.MethodPost, "/comments/1/1/vote", 8, `{"direction":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/comments/1/9/vote", 8, `{"direction":"up"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodGet, "/comments/1/1", 8, "")
	require.Equal(t, http.StatusOK, w.Code)
	var sub models.Subthread
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.Equal(t, models.VoteDown, sub.Comment.Voted)
	assert.Equal(t, 0, sub.Comment.Score)
	assert.Empty(t, sub.Replies)
}

func TestSubthreadNotFound(t *testing.T) {
	h, _ := newTestServer(t)
	w := do(t, h, http.MethodGet, "/comments/1/5", 0, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserCommentsAndRemoveThread(t *testing.T) {
	h, _ := newTestServer(t)
	for i := 0; i < 3; i++ {
		w := do(t, h, http.MethodPost, "/comments/1", 7, `{"parent_id":-1,"body":"c`+strconv.Itoa(i)+`"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(t, h, http.MethodGet, "/users/7/comments?start=1&count=5", 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	var page models.UserComments
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Comments, 2)

	w = do(t, h, http.MethodDelete, "/threads/1", 7, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/threads/1/count", 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"news_id":1,"count":0}`, w.Body.String())
}

func TestUserCommentsRejectsBadPaging(t *testing.T) {
	h, _ := newTestServer(t)

	for _, query := range []string{"start=abc", "count=1x", "start=0&count=9223372036854775808"} {
		w := do(t, h, http.MethodGet, "/users/7/comments?"+query, 0, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}

	w := do(t, h, http.MethodGet, "/users/7/comments?start=-3&count=500", 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	var page models.UserComments
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(0), page.Start)
	assert.Equal(t, int64(20), page.Count)
}
