package catalog

import "time"

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	Category    string
	ImageURL    *string
	Available   bool
	Popular     bool
	CreatedAt   time.Time
}
