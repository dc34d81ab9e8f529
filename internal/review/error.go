package review

import "errors"

var ErrInvalidRating = errors.New("rating must be between 1 and 5")
