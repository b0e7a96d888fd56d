package tree

import (
	"NewsComments/internal/models"
	"sort"
)

// Index maps a parent comment id (or models.RootID) to its direct children.
// It is rebuilt from a full thread scan on every read and never persisted.
type Index map[int64][]*models.Comment

// NewIndex groups comments by parent id. Siblings are kept in ascending id
// order so walks do not depend on the order the backend returned them in.
func NewIndex(comments []*models.Comment) Index {
	idx := make(Index)
	for _, c := range comments {
		idx[c.ParentID] = append(idx[c.ParentID], c)
	}
	for _, children := range idx {
		sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	}
	return idx
}

func (idx Index) Children(parentID int64) []*models.Comment {
	return idx[parentID]
}

func (idx Index) HasChildren(id int64) bool {
	return len(idx[id]) > 0
}

func (idx Index) HasTopLevel() bool {
	return idx.HasChildren(models.RootID)
}

// Len is the number of comments in the index.
func (idx Index) Len() int {
	n := 0
	for _, children := range idx {
		n += len(children)
	}
	return n
}
