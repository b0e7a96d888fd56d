package tree

import (
	"NewsComments/internal/models"
	"context"
)

// SortFunc orders the siblings of one level. level is the depth of the
// siblings, 0 for top-level comments.
type SortFunc func(children []*models.Comment, level int) []*models.Comment

// VisitFunc is called for every rendered comment in depth-first pre-order.
type VisitFunc func(ctx context.Context, c *models.Comment) error

type Walker struct {
	sort SortFunc
}

func NewWalker(sort SortFunc) *Walker {
	return &Walker{sort: sort}
}

// Walk visits the subtree below parentID. A soft-deleted comment is still
// visited when it has replies so they stay reachable; a deleted leaf is skipped.
// Each comment is visited at most once, so parent cycles in stored data end
// the descent instead of recursing forever.
func (w *Walker) Walk(ctx context.Context, idx Index, parentID int64, level int, visit VisitFunc) error {
	seen := map[int64]struct{}{parentID: {}}
	return w.walk(ctx, idx, parentID, level, seen, visit)
}

func (w *Walker) walk(ctx context.Context, idx Index, parentID int64, level int, seen map[int64]struct{}, visit VisitFunc) error {
	children := idx.Children(parentID)
	if len(children) == 0 {
		return nil
	}
	if w.sort != nil {
		children = w.sort(append([]*models.Comment(nil), children...), level)
	}

	for _, c := range children {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}

		c.Level = level
		hasReplies := idx.HasChildren(c.ID)
		if !c.Deleted() || hasReplies {
			if err := visit(ctx, c); err != nil {
				return err
			}
		}
		if hasReplies {
			if err := w.walk(ctx, idx, c.ID, level+1, seen, visit); err != nil {
				return err
			}
		}
	}
	return nil
}
