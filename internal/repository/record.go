package repository

import (
	"NewsComments/internal/models"
	"bytes"
	"fmt"
	"github.com/goccy/go-json"
	"math"
	"strconv"
)

// flexInt decodes from a JSON number or a numeric string. Comments written by
// other clients of the same hashes may carry ids and timestamps as strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		data = []byte(s)
	}
	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	// Fractions and exponents ("12.0", "1e3") are accepted only when they
	// hold a whole number that a float represents exactly.
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil || n != math.Trunc(n) || math.Abs(n) > maxExactFloat {
		return fmt.Errorf("not an integer: %s", data)
	}
	*f = flexInt(n)
	return nil
}

const maxExactFloat = 1 << 53

// record is the JSON document stored in a thread hash field.
type record struct {
	Score      flexInt   `json:"score"`
	Body       string    `json:"body"`
	ParentID   flexInt   `json:"parent_id"`
	UserID     flexInt   `json:"user_id"`
	CTime      flexInt   `json:"ctime"`
	Up         []flexInt `json:"up,omitempty"`
	Down       []flexInt `json:"down,omitempty"`
	Del        flexInt   `json:"del,omitempty"`
	TopComment bool      `json:"topcomment,omitempty"`
}

func decodeRecord(raw string) (*record, error) {
	var r record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("failed to decode comment: %w", err)
	}
	return &r, nil
}

func (r *record) encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode comment: %w", err)
	}
	return string(b), nil
}

func (r *record) toComment(threadID, id int64) *models.Comment {
	return &models.Comment{
		ID:         id,
		ThreadID:   threadID,
		ParentID:   int64(r.ParentID),
		UserID:     int64(r.UserID),
		Body:       r.Body,
		CTime:      int64(r.CTime),
		Score:      int(r.Score),
		Up:         toIDs(r.Up),
		Down:       toIDs(r.Down),
		Del:        int(r.Del),
		TopComment: r.TopComment,
	}
}

func newRecord(d models.Draft) *record {
	r := &record{
		Body:     d.Body,
		ParentID: flexInt(*d.ParentID),
		UserID:   flexInt(d.UserID),
		CTime:    flexInt(d.CTime),
	}
	for _, id := range d.Up {
		r.Up = append(r.Up, flexInt(id))
	}
	return r
}

func toIDs(vals []flexInt) []int64 {
	if len(vals) == 0 {
		return nil
	}
	ids := make([]int64, len(vals))
	for i, v := range vals {
		ids[i] = int64(v)
	}
	return ids
}
