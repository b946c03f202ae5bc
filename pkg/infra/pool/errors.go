// Package pool provides managed ants worker pools.
package pool

import "errors"

var (
	// ErrPoolClosed is returned when submitting to a released pool.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolNotFound is returned when a named pool does not exist.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrPoolAlreadyExists is returned when registering a duplicate pool name.
	ErrPoolAlreadyExists = errors.New("pool already exists")

	// ErrManagerNotInitialized is returned when the global manager is not set up.
	ErrManagerNotInitialized = errors.New("pool manager not initialized")

	// ErrPoolOverload is returned when a nonblocking pool is full.
	ErrPoolOverload = errors.New("pool is overloaded")
)
