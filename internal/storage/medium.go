// Package storage provides the persistent key-value media that section
// collections are written to.
package storage

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by media that enforce a capacity limit when a
// write would exceed it.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Medium is a persistent string-keyed store of string values. Writes replace
// the previous value for the key in full.
type Medium interface {
	// Get returns the value stored under key. The boolean is false when no
	// value exists; that case is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
}
