// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// config.go — client configuration, defaults, validation, the failure and
// type-mismatch policies, and the per-operation options (DB, TTL).

package kvpool

import (
	"fmt"
	"strings"
	"time"

	"github.com/AndrewDonelson/kvpool/internal/clock"
	"github.com/AndrewDonelson/kvpool/internal/codec"
	"github.com/AndrewDonelson/kvpool/internal/metrics"
)

// Re-export types so callers only import this package.
type MetricsRecorder = metrics.Recorder

// NewVictoriaMetrics returns a MetricsRecorder backed by a private
// VictoriaMetrics set. Its WritePrometheus method exposes the data.
func NewVictoriaMetrics(prefix string) *metrics.Victoria {
	return metrics.NewVictoria(prefix)
}

const (
	// DefaultDatabases is the number of logical databases a stock server has.
	DefaultDatabases = 16
	// DefaultDB is the database used when an operation omits DB().
	DefaultDB = 15
)

// FailurePolicy decides what a caller sees when an operation fails after
// its arguments were validated.
type FailurePolicy int

const (
	// PolicyStrict returns every failure and not-found as an error.
	PolicyStrict FailurePolicy = iota
	// PolicyBestEffort logs failures and returns the neutral value with a
	// nil error. Absent keys also yield the neutral value.
	PolicyBestEffort
)

func (p FailurePolicy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyBestEffort:
		return "best-effort"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy parses "strict" or "best-effort".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return PolicyStrict, nil
	case "best-effort", "besteffort", "lenient":
		return PolicyBestEffort, nil
	default:
		return 0, fmt.Errorf("%w: unknown failure policy %q", ErrInvalidConfig, s)
	}
}

// MismatchPolicy decides how GetObject reports a stored object whose type
// differs from the target, or a payload that is not a binary object.
type MismatchPolicy int

const (
	// MismatchAbsent treats the value as absent.
	MismatchAbsent MismatchPolicy = iota
	// MismatchError returns ErrTypeMismatch (or ErrDecode for corrupt data).
	MismatchError
)

// Config contains all Client configuration.
type Config struct {
	// Databases is the number of logical databases on the server; every
	// index must be in [0, Databases). Default 16.
	Databases int
	// DefaultDB is used when an operation omits DB(). Default 15.
	DefaultDB *int
	// Charset encodes keys, text values, hash fields and JSON text.
	// Default "UTF-8".
	Charset string

	Policy   FailurePolicy
	Mismatch MismatchPolicy

	// Encryptor, when set, seals every stored value payload.
	Encryptor Encryptor

	// Optional overrideable components
	Clock   clock.Clock
	Metrics MetricsRecorder
	Logger  Logger
}

// IntPtr is a helper for Config.DefaultDB.
func IntPtr(i int) *int { return &i }

func (c *Config) defaults() {
	if c.Databases == 0 {
		c.Databases = DefaultDatabases
	}
	if c.DefaultDB == nil {
		def := DefaultDB
		if def >= c.Databases {
			def = c.Databases - 1
		}
		c.DefaultDB = &def
	}
	if c.Charset == "" {
		c.Charset = codec.DefaultCharset
	}
	if c.Clock == nil {
		c.Clock = clock.Real{}
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Noop{}
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
}

func (c *Config) validate() error {
	if c.Databases <= 0 {
		return fmt.Errorf("%w: databases must be positive, got %d", ErrInvalidConfig, c.Databases)
	}
	if d := *c.DefaultDB; d < 0 || d >= c.Databases {
		return fmt.Errorf("%w: default db %d outside [0, %d)", ErrInvalidConfig, d, c.Databases)
	}
	if c.Policy != PolicyStrict && c.Policy != PolicyBestEffort {
		return fmt.Errorf("%w: unknown failure policy %d", ErrInvalidConfig, c.Policy)
	}
	if c.Mismatch != MismatchAbsent && c.Mismatch != MismatchError {
		return fmt.Errorf("%w: unknown mismatch policy %d", ErrInvalidConfig, c.Mismatch)
	}
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Per-operation options
// ────────────────────────────────────────────────────────────────────────────

// Option adjusts a single operation.
type Option func(*opOptions)

type opOptions struct {
	db  int
	ttl time.Duration
}

// DB targets database index instead of Config.DefaultDB.
func DB(index int) Option {
	return func(o *opOptions) { o.db = index }
}

// TTL gives a written value a lifetime. It applies to Put, PutJSON,
// PutObject, PutFile and PutFilePath and is ignored by other operations.
// Zero means no expiry.
func TTL(d time.Duration) Option {
	return func(o *opOptions) { o.ttl = d }
}

func (c *Client) resolve(opts []Option) opOptions {
	o := opOptions{db: *c.cfg.DefaultDB}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
