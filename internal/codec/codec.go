// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// codec.go — the Codec interface and the errors every codec reports.

// Package codec converts application values to and from the byte payloads
// written to the store. Every codec is stateless and safe for concurrent use.
package codec

import "errors"

// Codec encodes and decodes structured values for storage.
type Codec interface {
	// Marshal serializes v into bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes data into v (must be a pointer).
	Unmarshal(data []byte, v any) error
	// Name returns the codec identifier used for diagnostics.
	Name() string
}

var (
	// ErrTypeMismatch is returned by Binary.Unmarshal when the stored value
	// was written from a different concrete type than the target.
	ErrTypeMismatch = errors.New("codec: stored type does not match target")

	// ErrCorrupt is returned when a payload cannot be parsed at all.
	ErrCorrupt = errors.New("codec: corrupt payload")

	// ErrNotPointer is returned when an Unmarshal target is not a non-nil pointer.
	ErrNotPointer = errors.New("codec: target must be a non-nil pointer")
)
