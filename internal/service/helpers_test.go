package service

import (
	"NewsComments/internal/models"
	"NewsComments/internal/repository"
	"context"
	"fmt"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"sync"
	"testing"
	"time"
)

const testEpoch int64 = 1700000000

type fakeNews struct {
	mu       sync.Mutex
	comments map[int64]int64
}

func newFakeNews(ids ...int64) *fakeNews {
	n := &fakeNews{comments: make(map[int64]int64)}
	for _, id := range ids {
		n.comments[id] = 0
	}
	return n
}

func (n *fakeNews) GetNewsByID(_ context.Context, id int64) (*models.News, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	count, ok := n.comments[id]
	if !ok {
		return nil, fmt.Errorf("news %d: %w", id, repository.ErrNotFound)
	}
	return &models.News{ID: id, Title: "news", Comments: count}, nil
}

func (n *fakeNews) IncrCommentCount(_ context.Context, id int64, delta int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.comments[id]; !ok {
		return fmt.Errorf("news %d: %w", id, repository.ErrNotFound)
	}
	n.comments[id] += delta
	return nil
}

func (n *fakeNews) count(id int64) int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.comments[id]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(unix int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Unix(unix, 0)
}

type fixture struct {
	svc      *Service
	threads  *repository.ThreadStore
	timeline *repository.Timeline
	users    *repository.Users
	news     *fakeNews
	clock    *clock
	mr       *miniredis.Miniredis
}

type fixtureOption func(kv repository.KV) repository.KV

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var kv repository.KV = repository.NewRedisKV(client)
	for _, opt := range opts {
		kv = opt(kv)
	}

	log := zap.NewNop()
	threads := repository.NewThreadStore(kv, "comment", log)
	timeline := repository.NewTimeline(kv, threads, log)
	users := repository.NewUsers(kv, log)
	news := newFakeNews(1, 2)
	clk := &clock{}
	clk.Set(testEpoch)

	svc := NewService(threads, timeline, news, users, Options{EditWindow: time.Hour, Now: clk.Now}, log)
	return &fixture{svc: svc, threads: threads, timeline: timeline, users: users, news: news, clock: clk, mr: mr}
}

func ptr(id int64) *int64 {
	return &id
}

func (f *fixture) insert(t *testing.T, newsID, userID, parentID int64, body string) int64 {
	t.Helper()
	res, err := f.svc.SubmitComment(context.Background(), userID, models.CommentRequest{
		NewsID:    newsID,
		CommentID: models.RootID,
		ParentID:  ptr(parentID),
		Body:      body,
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	return res.CommentID
}

// racingKV holds the first n HGet calls until all of them have read, so
// concurrent read-modify-write sequences see the same stale state.
type racingKV struct {
	repository.KV
	mu      sync.Mutex
	pending int
	release chan struct{}
}

func withRace(n int) fixtureOption {
	return func(kv repository.KV) repository.KV {
		return &racingKV{KV: kv, pending: n, release: make(chan struct{})}
	}
}

func (r *racingKV) HGet(ctx context.Context, key, field string) (string, bool, error) {
	val, ok, err := r.KV.HGet(ctx, key, field)
	r.mu.Lock()
	if r.pending == 0 {
		r.mu.Unlock()
		return val, ok, err
	}
	r.pending--
	if r.pending == 0 {
		close(r.release)
	}
	r.mu.Unlock()
	<-r.release
	return val, ok, err
}
