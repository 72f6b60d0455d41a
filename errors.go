// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// errors.go — sentinel error variables returned by the public kvpool API,
// split into caller mistakes (always returned), outcomes (not found, type
// mismatch) and infrastructure failures (subject to the failure policy).

// Package kvpool provides a pooled, database-aware client over a Redis-
// protocol key-value store with typed put/get operations for text, JSON,
// binary objects, hashes and files.
package kvpool

import "errors"

// Caller errors. These are returned regardless of the failure policy.
var (
	ErrInvalidArgument = errors.New("kvpool: invalid argument")
	ErrInvalidConfig   = errors.New("kvpool: invalid configuration")
	ErrClosed          = errors.New("kvpool: client closed")
)

// Outcome errors
var (
	ErrNotFound     = errors.New("kvpool: not found")
	ErrTypeMismatch = errors.New("kvpool: stored object has a different type")
	ErrDecode       = errors.New("kvpool: failed to decode stored value")
)

// Infrastructure errors
var (
	ErrConnection = errors.New("kvpool: connection unavailable")
	ErrWire       = errors.New("kvpool: store command failed")
	ErrEncode     = errors.New("kvpool: failed to encode value for storage")
	ErrFile       = errors.New("kvpool: file i/o failed")
)

// errorKind names the class of err for logs and metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrWire):
		return "wire"
	case errors.Is(err, ErrEncode):
		return "encode"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrTypeMismatch):
		return "mismatch"
	case errors.Is(err, ErrFile):
		return "file"
	default:
		return "unknown"
	}
}
