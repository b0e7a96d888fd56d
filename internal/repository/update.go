package repository

import "NewsComments/internal/models"

// Update is one field replacement applied by ThreadStore.Edit. The set of
// variants is closed: only the types in this file implement it.
type Update interface {
	apply(r *record)
}

type BodyUpdate struct {
	Body string
}

func (u BodyUpdate) apply(r *record) {
	r.Body = u.Body
}

type DeleteFlagUpdate struct{}

func (DeleteFlagUpdate) apply(r *record) {
	r.Del = 1
}

type UndeleteUpdate struct{}

func (UndeleteUpdate) apply(r *record) {
	r.Del = 0
}

// VoteSetUpdate replaces the whole vote set of one direction.
type VoteSetUpdate struct {
	Direction models.Direction
	Voters    []int64
}

func (u VoteSetUpdate) apply(r *record) {
	voters := make([]flexInt, len(u.Voters))
	for i, id := range u.Voters {
		voters[i] = flexInt(id)
	}
	if u.Direction == models.VoteDown {
		r.Down = voters
		return
	}
	r.Up = voters
}
