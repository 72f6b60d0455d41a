// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// client.go — the Client: construction and shutdown, the lease that scopes
// one borrowed connection to one operation, argument validation, and the
// outcome classification shared by every operation.

package kvpool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AndrewDonelson/kvpool/internal/clock"
	"github.com/AndrewDonelson/kvpool/internal/codec"
	"github.com/AndrewDonelson/kvpool/pool"
)

// ────────────────────────────────────────────────────────────────────────────
// Stats
// ────────────────────────────────────────────────────────────────────────────

type clientStats struct {
	Ops      atomic.Int64
	Misses   atomic.Int64
	Failures atomic.Int64
	Acquired atomic.Int64
	Released atomic.Int64
}

// Stats is the snapshot returned by Client.Stats().
type Stats struct {
	Ops      int64
	Misses   int64
	Failures int64
	// Acquired and Released count connection leases; they are equal
	// whenever no operation is in flight.
	Acquired int64
	Released int64
}

// ────────────────────────────────────────────────────────────────────────────
// Client
// ────────────────────────────────────────────────────────────────────────────

// Client is a pooled, database-aware store client. It is safe for
// concurrent use; every operation borrows its own connection.
type Client struct {
	pool    pool.Pool
	cfg     Config
	text    codec.Text
	json    codec.JSON
	binary  codec.Binary
	raw     codec.Raw
	logger  Logger
	metrics MetricsRecorder
	stats   clientStats
	closed  atomic.Bool
}

// New creates a Client over p. The client owns p from here on and destroys
// it on Close.
func New(p pool.Pool, cfg Config) (*Client, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: pool is nil", ErrInvalidConfig)
	}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	text, err := codec.NewText(cfg.Charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c := &Client{
		pool:    p,
		cfg:     cfg,
		text:    text,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
	c.logger.Info("kvpool: client ready",
		"databases", cfg.Databases, "default_db", *cfg.DefaultDB,
		"charset", text.Name(), "policy", cfg.Policy.String())
	return c, nil
}

// Close destroys the pool. Subsequent operations return ErrClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.pool.Destroy(); err != nil {
		c.logger.Error("kvpool: pool destroy failed", "err", err)
		return err
	}
	c.logger.Info("kvpool: client closed")
	return nil
}

// Stats returns a snapshot of operational counters.
func (c *Client) Stats() Stats {
	return Stats{
		Ops:      c.stats.Ops.Load(),
		Misses:   c.stats.Misses.Load(),
		Failures: c.stats.Failures.Load(),
		Acquired: c.stats.Acquired.Load(),
		Released: c.stats.Released.Load(),
	}
}

// Databases returns the configured number of logical databases.
func (c *Client) Databases() int { return c.cfg.Databases }

// DefaultDB returns the database used when an operation omits DB().
func (c *Client) DefaultDB() int { return *c.cfg.DefaultDB }

// ────────────────────────────────────────────────────────────────────────────
// Lease
// ────────────────────────────────────────────────────────────────────────────

// lease is one connection borrowed for one operation. release returns it
// to the pool exactly once no matter how many exit paths call it.
type lease struct {
	c    *Client
	conn pool.Conn
	once sync.Once
}

func (l *lease) release() {
	l.once.Do(func() {
		l.c.pool.Release(l.conn)
		l.c.stats.Released.Add(1)
		l.c.metrics.RecordLease(false)
	})
}

// acquire borrows a connection and selects db on it.
func (c *Client) acquire(ctx context.Context, db int) (*lease, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	c.stats.Acquired.Add(1)
	c.metrics.RecordLease(true)
	l := &lease{c: c, conn: conn}
	if err := conn.Select(ctx, db); err != nil {
		l.release()
		return nil, fmt.Errorf("%w: select %d: %v", ErrConnection, db, err)
	}
	return l, nil
}

// exec runs fn against a connection scoped to db. The lease is released
// on every path, including a panic inside fn. Errors from fn are
// classified: pool.ErrNil becomes ErrNotFound, errors already carrying a
// kvpool sentinel pass through, anything else is ErrWire.
func (c *Client) exec(ctx context.Context, db int, fn func(pool.Conn) error) error {
	l, err := c.acquire(ctx, db)
	if err != nil {
		return err
	}
	defer l.release()
	return classify(fn(l.conn))
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pool.ErrNil):
		return ErrNotFound
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDecode),
		errors.Is(err, ErrTypeMismatch), errors.Is(err, ErrEncode),
		errors.Is(err, ErrFile), errors.Is(err, ErrConnection):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrWire, err)
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Outcome handling
// ────────────────────────────────────────────────────────────────────────────

// call describes one in-flight operation for logging and metrics.
type call struct {
	c     *Client
	op    string
	key   string
	db    int
	start time.Time
	// surface marks decode and mismatch failures as reportable under
	// PolicyBestEffort.
	surface bool
}

func (c *Client) begin(op, key string, db int) *call {
	c.stats.Ops.Add(1)
	return &call{c: c, op: op, key: key, db: db, start: c.cfg.Clock.Now()}
}

// settle records the outcome of the operation and applies the failure
// policy: the returned error is what the caller sees.
func (cl *call) settle(err error) error {
	c := cl.c
	c.metrics.RecordLatency(cl.op, cl.db, clock.Since(c.cfg.Clock, cl.start))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		c.stats.Misses.Add(1)
		c.metrics.RecordMiss(cl.op)
		c.logger.Debug("kvpool: not found", "op", cl.op, "db", cl.db, "key", cl.key)
		if c.cfg.Policy == PolicyBestEffort {
			return nil
		}
		return err
	}

	c.stats.Failures.Add(1)
	c.metrics.RecordError(cl.op, errorKind(err))
	c.logger.Error("kvpool: operation failed", "op", cl.op, "db", cl.db, "key", cl.key, "err", err)
	if c.cfg.Policy == PolicyBestEffort && !cl.reportable(err) {
		return nil
	}
	return err
}

func (cl *call) reportable(err error) bool {
	return cl.surface && (errors.Is(err, ErrDecode) || errors.Is(err, ErrTypeMismatch))
}

// ────────────────────────────────────────────────────────────────────────────
// Validation and payload helpers
// ────────────────────────────────────────────────────────────────────────────

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

// check validates the arguments every operation shares. It runs before
// any connection is touched.
func (c *Client) check(key string, db int) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return invalid("key is empty")
	}
	return c.checkDB(db)
}

func (c *Client) checkDB(db int) error {
	if db < 0 || db >= c.cfg.Databases {
		return invalid("database index %d must be between 0 and %d", db, c.cfg.Databases-1)
	}
	return nil
}

func checkTTL(o opOptions) error {
	if o.ttl < 0 {
		return invalid("ttl must not be negative, got %s", o.ttl)
	}
	return nil
}

// keyBytes encodes a key in the configured charset.
func (c *Client) keyBytes(key string) ([]byte, error) {
	b, err := c.text.Encode(key)
	if err != nil {
		return nil, fmt.Errorf("%w: key: %v", ErrEncode, err)
	}
	return b, nil
}

// seal prepares a value payload for the wire.
func (c *Client) seal(b []byte) ([]byte, error) {
	if c.cfg.Encryptor == nil {
		return b, nil
	}
	out, err := c.cfg.Encryptor.Encrypt(b)
	if err != nil {
		return nil, fmt.Errorf("%w: seal: %v", ErrEncode, err)
	}
	return out, nil
}

// open reverses seal on a payload read from the wire.
func (c *Client) open(b []byte) ([]byte, error) {
	if c.cfg.Encryptor == nil {
		return b, nil
	}
	out, err := c.cfg.Encryptor.Decrypt(b)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrDecode, err)
	}
	return out, nil
}

// write stores payload at key, with a TTL when one was requested.
func (c *Client) write(ctx context.Context, key, payload []byte, o opOptions) error {
	return c.exec(ctx, o.db, func(conn pool.Conn) error {
		if o.ttl > 0 {
			return conn.SetEx(ctx, key, o.ttl, payload)
		}
		return conn.Set(ctx, key, payload)
	})
}

// read fetches and opens the payload at key.
func (c *Client) read(ctx context.Context, key []byte, db int) ([]byte, error) {
	var payload []byte
	err := c.exec(ctx, db, func(conn pool.Conn) error {
		b, err := conn.Get(ctx, key)
		if err != nil {
			return err
		}
		payload = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.open(payload)
}

func isBlank(b []byte) bool {
	return strings.TrimSpace(string(b)) == ""
}
