package repository

import (
	"NewsComments/internal/models"
	"NewsComments/internal/tree"
	"context"
	"fmt"
	"go.uber.org/zap"
	"strconv"
)

// counterField holds the per-thread id allocator inside the thread hash.
const counterField = "nextid"

// ThreadStore keeps every comment of a news item in one hash,
// thread:<namespace>:<thread_id>, one JSON document per comment id.
type ThreadStore struct {
	kv        KV
	namespace string
	log       *zap.Logger
}

func NewThreadStore(kv KV, namespace string, log *zap.Logger) *ThreadStore {
	return &ThreadStore{
		kv:        kv,
		namespace: namespace,
		log:       log.Named("thread_store"),
	}
}

func (s *ThreadStore) threadKey(threadID int64) string {
	return fmt.Sprintf("thread:%s:%d", s.namespace, threadID)
}

func (s *ThreadStore) Fetch(ctx context.Context, threadID, commentID int64) (*models.Comment, error) {
	r, err := s.fetchRecord(ctx, threadID, commentID)
	if err != nil {
		return nil, err
	}
	return r.toComment(threadID, commentID), nil
}

func (s *ThreadStore) fetchRecord(ctx context.Context, threadID, commentID int64) (*record, error) {
	raw, ok, err := s.kv.HGet(ctx, s.threadKey(threadID), strconv.FormatInt(commentID, 10))
	if err != nil {
		s.log.Error("Failed to fetch comment", zap.Int64("thread_id", threadID), zap.Int64("comment_id", commentID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch comment: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("comment %d in thread %d: %w", commentID, threadID, ErrNotFound)
	}
	return decodeRecord(raw)
}

// Insert allocates the next id of the thread and stores the draft under it.
// The id is consumed even if the write fails, so ids may have gaps but are
// never handed out twice.
func (s *ThreadStore) Insert(ctx context.Context, threadID int64, d models.Draft) (int64, error) {
	if d.ParentID == nil {
		return 0, fmt.Errorf("insert into thread %d without parent_id: %w", threadID, ErrInvalidInput)
	}
	key := s.threadKey(threadID)
	if *d.ParentID != models.RootID {
		_, ok, err := s.kv.HGet(ctx, key, strconv.FormatInt(*d.ParentID, 10))
		if err != nil {
			s.log.Error("Failed to look up parent comment", zap.Int64("thread_id", threadID), zap.Int64("parent_id", *d.ParentID), zap.Error(err))
			return 0, fmt.Errorf("failed to look up parent comment: %w", err)
		}
		if !ok {
			s.log.Debug("Parent comment not found on insert", zap.Int64("thread_id", threadID), zap.Int64("parent_id", *d.ParentID))
			return 0, fmt.Errorf("parent comment %d in thread %d: %w", *d.ParentID, threadID, ErrNotFound)
		}
	}

	doc, err := newRecord(d).encode()
	if err != nil {
		return 0, err
	}

	id, err := s.kv.HIncrBy(ctx, key, counterField, 1)
	if err != nil {
		s.log.Error("Failed to allocate comment id", zap.Int64("thread_id", threadID), zap.Error(err))
		return 0, fmt.Errorf("failed to allocate comment id: %w", err)
	}
	if err := s.kv.HSet(ctx, key, strconv.FormatInt(id, 10), doc); err != nil {
		s.log.Error("Failed to store comment", zap.Int64("thread_id", threadID), zap.Int64("comment_id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to store comment: %w", err)
	}
	return id, nil
}

// Edit applies the updates to the stored comment and writes it back. The read
// and the write are not atomic: concurrent edits of one comment are
// last-write-wins.
func (s *ThreadStore) Edit(ctx context.Context, threadID, commentID int64, updates ...Update) error {
	r, err := s.fetchRecord(ctx, threadID, commentID)
	if err != nil {
		return err
	}
	for _, u := range updates {
		u.apply(r)
	}
	doc, err := r.encode()
	if err != nil {
		return err
	}
	if err := s.kv.HSet(ctx, s.threadKey(threadID), strconv.FormatInt(commentID, 10), doc); err != nil {
		s.log.Error("Failed to update comment", zap.Int64("thread_id", threadID), zap.Int64("comment_id", commentID), zap.Error(err))
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

func (s *ThreadStore) DelComment(ctx context.Context, threadID, commentID int64) error {
	return s.Edit(ctx, threadID, commentID, DeleteFlagUpdate{})
}

// RemoveThread drops every comment of the thread together with its id counter.
func (s *ThreadStore) RemoveThread(ctx context.Context, threadID int64) error {
	if err := s.kv.Del(ctx, s.threadKey(threadID)); err != nil {
		s.log.Error("Failed to remove thread", zap.Int64("thread_id", threadID), zap.Error(err))
		return fmt.Errorf("failed to remove thread: %w", err)
	}
	return nil
}

// CommentsInThread counts stored comments, soft-deleted ones included.
func (s *ThreadStore) CommentsInThread(ctx context.Context, threadID int64) (int64, error) {
	n, err := s.kv.HLen(ctx, s.threadKey(threadID))
	if err != nil {
		s.log.Error("Failed to count comments", zap.Int64("thread_id", threadID), zap.Error(err))
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	return n - 1, nil
}

// FetchThread reads the whole thread in one call and groups it by parent id.
func (s *ThreadStore) FetchThread(ctx context.Context, threadID int64) (tree.Index, error) {
	fields, err := s.kv.HGetAll(ctx, s.threadKey(threadID))
	if err != nil {
		s.log.Error("Failed to fetch thread", zap.Int64("thread_id", threadID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch thread: %w", err)
	}

	comments := make([]*models.Comment, 0, len(fields))
	for field, raw := range fields {
		if field == counterField {
			continue
		}
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			s.log.Warn("Skipping unexpected thread field", zap.Int64("thread_id", threadID), zap.String("field", field))
			continue
		}
		r, err := decodeRecord(raw)
		if err != nil {
			s.log.Warn("Skipping unreadable comment", zap.Int64("thread_id", threadID), zap.Int64("comment_id", id), zap.Error(err))
			continue
		}
		if int64(r.ParentID) == id {
			s.log.Warn("Skipping self-parented comment", zap.Int64("thread_id", threadID), zap.Int64("comment_id", id))
			continue
		}
		comments = append(comments, r.toComment(threadID, id))
	}
	return tree.NewIndex(comments), nil
}
