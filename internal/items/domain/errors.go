package domain

import "errors"

var (
	ErrItemNotFound   = errors.New("item not found")
	ErrNotInitialized = errors.New("persistence not initialized")
)
