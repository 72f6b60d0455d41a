// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// pool.go — the connection-pool collaborator contract consumed by the
// kvpool client: Pool hands out Conns bound to one store session, and a
// Conn exposes the primitive commands the client is allowed to issue.

// Package pool defines the connection pool contract used by kvpool and
// provides a go-redis backed implementation and an in-memory one.
package pool

import (
	"context"
	"errors"
	"time"
)

// ErrNil is returned by Conn reads when the key or field does not exist.
// Callers use errors.Is(err, pool.ErrNil) to tell a miss from a failure.
var ErrNil = errors.New("pool: nil reply")

// ErrExhausted is returned by Acquire when no connection became free
// before the acquire timeout elapsed.
var ErrExhausted = errors.New("pool: exhausted")

// ErrDestroyed is returned by Acquire after Destroy.
var ErrDestroyed = errors.New("pool: destroyed")

// Pool lends connections for the duration of one logical operation.
type Pool interface {
	// Acquire borrows a connection. It blocks while the pool is at
	// capacity, until ctx is done or the pool's own timeout elapses.
	Acquire(ctx context.Context) (Conn, error)
	// Release returns c to the pool. It is safe to call more than once and
	// on a connection in an error state.
	Release(c Conn)
	// Destroy closes every connection. The pool is unusable afterwards.
	Destroy() error
}

// Conn is one stateful store session. Select changes the active database
// for as long as the connection is held.
type Conn interface {
	Select(ctx context.Context, index int) error

	Get(ctx context.Context, key []byte) ([]byte, error)
	Set(ctx context.Context, key, value []byte) error
	// SetEx writes value with a time-to-live in one atomic command.
	SetEx(ctx context.Context, key []byte, ttl time.Duration, value []byte) error
	Del(ctx context.Context, keys ...[]byte) (int64, error)

	// HSet writes every field of fields into the hash at key.
	HSet(ctx context.Context, key []byte, fields map[string][]byte) error
	// HGetAll returns an empty map (not ErrNil) when key does not exist.
	HGetAll(ctx context.Context, key []byte) (map[string][]byte, error)
	HGet(ctx context.Context, key, field []byte) ([]byte, error)
	HDel(ctx context.Context, key []byte, fields ...[]byte) (int64, error)

	// Expire reports whether key existed and the TTL was applied.
	Expire(ctx context.Context, key []byte, ttl time.Duration) (bool, error)
	FlushDB(ctx context.Context) error
}
