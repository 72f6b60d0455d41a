// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// metrics.go — the Recorder interface and its no-op implementation.

// Package metrics provides the Recorder interface used by the client and
// its implementations.
package metrics

import "time"

// Recorder receives operational measurements from the client.
type Recorder interface {
	// RecordLatency records the wall time of one logical operation on db.
	RecordLatency(op string, db int, d time.Duration)
	// RecordMiss records an operation that found no value.
	RecordMiss(op string)
	// RecordError records a failed operation; kind is the error class
	// ("connection", "wire", "encode", "decode", "file", "mismatch").
	RecordError(op, kind string)
	// RecordLease records a connection lease being taken (true) or
	// returned (false).
	RecordLease(acquired bool)
}

// Noop is a Recorder that discards all data.
type Noop struct{}

func (Noop) RecordLatency(op string, db int, d time.Duration) {}
func (Noop) RecordMiss(op string)                             {}
func (Noop) RecordError(op, kind string)                      {}
func (Noop) RecordLease(acquired bool)                        {}
