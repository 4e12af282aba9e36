package domain

import "errors"

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("item not found")
	ErrPersistence = errors.New("persistence failure")
)
