package repository

import "errors"

// ErrNotFound is returned when a draft or historical proposal does not exist.
var ErrNotFound = errors.New("not found")
