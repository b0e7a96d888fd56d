package tree

import (
	"NewsComments/internal/models"
	"fmt"
	"sort"
)

// ByTime orders siblings oldest first.
func ByTime(children []*models.Comment, _ int) []*models.Comment {
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].CTime != children[j].CTime {
			return children[i].CTime < children[j].CTime
		}
		return children[i].ID < children[j].ID
	})
	return children
}

// ByScoreThenTime ranks top-level comments by score, newest first on ties,
// and keeps replies in chronological order.
func ByScoreThenTime(children []*models.Comment, level int) []*models.Comment {
	if level > 0 {
		return ByTime(children, level)
	}
	sort.SliceStable(children, func(i, j int) bool {
		si, sj := models.Score(children[i]), models.Score(children[j])
		if si != sj {
			return si > sj
		}
		return children[i].CTime > children[j].CTime
	})
	return children
}

// SortByName resolves the comment_sort setting.
func SortByName(name string) (SortFunc, error) {
	switch name {
	case "", "none", "id":
		return nil, nil
	case "time":
		return ByTime, nil
	case "score":
		return ByScoreThenTime, nil
	default:
		return nil, fmt.Errorf("unknown comment sort %q", name)
	}
}
