package review

import "time"

type Review struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary aggregates the whole review board.
type Summary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
