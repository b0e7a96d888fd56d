package repository

import (
	"NewsComments/internal/models"
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"strconv"
	"strings"
)

// Timeline indexes the comments of each user in a sorted set scored by
// creation time. Entries are never removed.
type Timeline struct {
	kv      KV
	threads *ThreadStore
	log     *zap.Logger
}

func NewTimeline(kv KV, threads *ThreadStore, log *zap.Logger) *Timeline {
	return &Timeline{
		kv:      kv,
		threads: threads,
		log:     log.Named("timeline"),
	}
}

func timelineKey(userID int64) string {
	return "user.comments:" + strconv.FormatInt(userID, 10)
}

func (t *Timeline) Append(ctx context.Context, userID, threadID, commentID, when int64) error {
	member := fmt.Sprintf("%d-%d", threadID, commentID)
	if err := t.kv.ZAdd(ctx, timelineKey(userID), float64(when), member); err != nil {
		t.log.Error("Failed to append to user timeline", zap.Int64("user_id", userID), zap.String("member", member), zap.Error(err))
		return fmt.Errorf("failed to append to user timeline: %w", err)
	}
	return nil
}

// Page returns up to count comments of the user, most recent first, starting
// at offset start, and the total number of indexed entries. References to
// comments that no longer exist are skipped.
func (t *Timeline) Page(ctx context.Context, userID, start, count int64) ([]*models.Comment, int64, error) {
	key := timelineKey(userID)
	total, err := t.kv.ZCard(ctx, key)
	if err != nil {
		t.log.Error("Failed to count user comments", zap.Int64("user_id", userID), zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count user comments: %w", err)
	}
	if count <= 0 || start < 0 || start >= total {
		return []*models.Comment{}, total, nil
	}

	if count > total-start {
		count = total - start
	}
	members, err := t.kv.ZRevRange(ctx, key, start, start+count-1)
	if err != nil {
		t.log.Error("Failed to read user timeline", zap.Int64("user_id", userID), zap.Error(err))
		return nil, 0, fmt.Errorf("failed to read user timeline: %w", err)
	}

	comments := make([]*models.Comment, 0, len(members))
	for _, member := range members {
		threadID, commentID, ok := parseMember(member)
		if !ok {
			t.log.Warn("Skipping malformed timeline entry", zap.Int64("user_id", userID), zap.String("member", member))
			continue
		}
		c, err := t.threads.Fetch(ctx, threadID, commentID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		comments = append(comments, c)
	}
	return comments, total, nil
}

func parseMember(member string) (int64, int64, bool) {
	threadPart, commentPart, found := strings.Cut(member, "-")
	if !found {
		return 0, 0, false
	}
	threadID, err := strconv.ParseInt(threadPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	commentID, err := strconv.ParseInt(commentPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return threadID, commentID, true
}
