package state

import (
	"context"
	"errors"
)

// ErrDecode marks a stored value that exists but could not be decoded.
var ErrDecode = errors.New("state: undecodable value")

// Store keeps one value of type T per conversation key.
type Store[T any] interface {
	// Get returns the stored value and whether it was present.
	Get(ctx context.Context, key int64) (T, bool, error)
	Put(ctx context.Context, key int64, value T) error
	Delete(ctx context.Context, key int64) error
}
