package encouragement

import "errors"

var (
	// ErrRecordNotFound is returned by a Repository when a student has no record yet.
	ErrRecordNotFound = errors.New("encouragement record not found")
)
