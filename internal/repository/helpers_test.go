package repository

import (
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"testing"
)

func newTestKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisKV(client), mr
}

func newTestStore(t *testing.T) (*ThreadStore, *miniredis.Miniredis) {
	t.Helper()
	kv, mr := newTestKV(t)
	return NewThreadStore(kv, "comment", zap.NewNop()), mr
}

func parent(id int64) *int64 {
	return &id
}
