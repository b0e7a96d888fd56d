package models

// RootID is the parent id of top-level comments and the default walk root.
const RootID int64 = -1

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Direction string

const (
	VoteUp   Direction = "up"
	VoteDown Direction = "down"
)

func (d Direction) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// Comment is a stored comment decorated with its numeric thread and comment ids.
// Level is only set while the comment is being walked.
type Comment struct {
	ID         int64   `json:"id"`
	ThreadID   int64   `json:"thread_id"`
	ParentID   int64   `json:"parent_id"`
	UserID     int64   `json:"user_id"`
	Body       string  `json:"body"`
	CTime      int64   `json:"ctime"`
	Score      int     `json:"score"`
	Up         []int64 `json:"up,omitempty"`
	Down       []int64 `json:"down,omitempty"`
	Del        int     `json:"del,omitempty"`
	TopComment bool    `json:"topcomment,omitempty"`
	Level      int     `json:"level"`
}

func (c *Comment) Deleted() bool {
	return c.Del == 1
}

// Votes returns the vote set for the given direction.
func (c *Comment) Votes(d Direction) []int64 {
	if d == VoteDown {
		return c.Down
	}
	return c.Up
}

// Score is the number of up votes minus the number of down votes.
func Score(c *Comment) int {
	return len(c.Up) - len(c.Down)
}

// Draft is the input of a thread insert. ParentID must be set.
type Draft struct {
	ParentID *int64
	UserID   int64
	Body     string
	CTime    int64
	Up       []int64
}

type CommentRequest struct {
	NewsID    int64  `json:"news_id"`
	CommentID int64  `json:"comment_id"`
	ParentID  *int64 `json:"parent_id,omitempty"`
	Body      string `json:"body"`
}

type Result struct {
	NewsID    int64 `json:"news_id"`
	CommentID int64 `json:"comment_id"`
	Op        Op    `json:"op"`
}

type News struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	UserID   int64  `json:"user_id"`
	CTime    int64  `json:"ctime"`
	Comments int64  `json:"comments"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Replies  int64  `json:"replies"`
}

// CommentView is the presentation form of a walked comment.
type CommentView struct {
	ID          int64     `json:"id"`
	ThreadID    int64     `json:"thread_id"`
	ParentID    int64     `json:"parent_id"`
	Level       int       `json:"level"`
	Author      string    `json:"author,omitempty"`
	UserID      int64     `json:"user_id,omitempty"`
	Body        string    `json:"body,omitempty"`
	CTime       int64     `json:"ctime,omitempty"`
	Score       int       `json:"score"`
	Deleted     bool      `json:"deleted,omitempty"`
	TopComment  bool      `json:"topcomment,omitempty"`
	Voted       Direction `json:"voted,omitempty"`
	Editable    bool      `json:"editable,omitempty"`
	MinutesLeft int64     `json:"minutes_left,omitempty"`
	ShowParent  bool      `json:"show_parent,omitempty"`
}

type Subthread struct {
	Comment CommentView   `json:"comment"`
	Replies []CommentView `json:"replies"`
}

type UserComments struct {
	Comments []*Comment `json:"comments"`
	Total    int64      `json:"total"`
	Start    int64      `json:"start"`
	Count    int64      `json:"count"`
}
