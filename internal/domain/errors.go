package domain

import "errors"

// ErrNotFound is returned when the requested namespace has no stored batches.
var ErrNotFound = errors.New("not found")
