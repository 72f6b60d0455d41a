// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// memory.go — in-process Pool for development, the CLI memory backend and
// tests. Implements the string and hash command subset of a Redis server
// over per-database concurrent maps with lazy TTL expiry.

package pool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/AndrewDonelson/kvpool/internal/clock"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrWrongType is returned when a command is applied to a key holding the
// other kind of value (string vs hash).
var ErrWrongType = errors.New("pool: WRONGTYPE operation against a key holding the wrong kind of value")

// MemoryOptions configures a Memory pool.
type MemoryOptions struct {
	// Databases is the number of logical databases (default 16).
	Databases int
	// Capacity bounds concurrent leases (default 10).
	Capacity int
	// AcquireTimeout bounds how long Acquire waits; zero waits for ctx.
	AcquireTimeout time.Duration
	Clock          clock.Clock
}

// memEntry is one stored key. Exactly one of value or hash is set; a
// stored hash is never mutated in place.
type memEntry struct {
	value     []byte
	hash      map[string][]byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is an in-process Pool.
type Memory struct {
	dbs       []*xsync.MapOf[string, memEntry]
	slots     chan struct{}
	timeout   time.Duration
	clock     clock.Clock
	inUse     atomic.Int64
	destroyed atomic.Bool
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts MemoryOptions) *Memory {
	if opts.Databases <= 0 {
		opts.Databases = 16
	}
	if opts.Capacity <= 0 {
		opts.Capacity = 10
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	m := &Memory{
		dbs:     make([]*xsync.MapOf[string, memEntry], opts.Databases),
		slots:   make(chan struct{}, opts.Capacity),
		timeout: opts.AcquireTimeout,
		clock:   opts.Clock,
	}
	for i := range m.dbs {
		m.dbs[i] = xsync.NewMapOf[string, memEntry]()
	}
	return m
}

// Acquire leases a connection bound to database 0.
func (m *Memory) Acquire(ctx context.Context) (Conn, error) {
	if m.destroyed.Load() {
		return nil, ErrDestroyed
	}
	var timeout <-chan time.Time
	if m.timeout > 0 {
		t := time.NewTimer(m.timeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case m.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, ErrExhausted
	}
	m.inUse.Add(1)
	return &memConn{m: m}, nil
}

// Release returns c. Repeated calls are no-ops.
func (m *Memory) Release(c Conn) {
	mc, ok := c.(*memConn)
	if !ok || mc == nil || mc.m != m || !mc.released.CompareAndSwap(false, true) {
		return
	}
	m.inUse.Add(-1)
	<-m.slots
}

// Destroy drops all data and rejects further leases.
func (m *Memory) Destroy() error {
	if !m.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	for _, db := range m.dbs {
		db.Clear()
	}
	return nil
}

// InUse returns the number of leases currently held.
func (m *Memory) InUse() int { return int(m.inUse.Load()) }

// Len returns the number of live keys in database index.
func (m *Memory) Len(index int) int {
	if index < 0 || index >= len(m.dbs) {
		return 0
	}
	now := m.clock.Now()
	n := 0
	m.dbs[index].Range(func(_ string, e memEntry) bool {
		if !e.expired(now) {
			n++
		}
		return true
	})
	return n
}

// ── Conn ─────────────────────────────────────────────────────────────────────

type memConn struct {
	m        *Memory
	db       int
	released atomic.Bool
}

func (c *memConn) store() *xsync.MapOf[string, memEntry] { return c.m.dbs[c.db] }

// load returns the live entry for key, evicting it if it has expired.
func (c *memConn) load(key string) (memEntry, bool) {
	s := c.store()
	e, ok := s.Load(key)
	if !ok {
		return memEntry{}, false
	}
	if e.expired(c.m.clock.Now()) {
		s.Delete(key)
		return memEntry{}, false
	}
	return e, true
}

func (c *memConn) Select(_ context.Context, index int) error {
	if index < 0 || index >= len(c.m.dbs) {
		return fmt.Errorf("pool: ERR DB index %d is out of range", index)
	}
	c.db = index
	return nil
}

func (c *memConn) Get(_ context.Context, key []byte) ([]byte, error) {
	e, ok := c.load(string(key))
	if !ok {
		return nil, ErrNil
	}
	if e.hash != nil {
		return nil, ErrWrongType
	}
	return append([]byte(nil), e.value...), nil
}

func (c *memConn) Set(_ context.Context, key, value []byte) error {
	c.store().Store(string(key), memEntry{value: append([]byte{}, value...)})
	return nil
}

func (c *memConn) SetEx(_ context.Context, key []byte, ttl time.Duration, value []byte) error {
	if ttl <= 0 {
		return fmt.Errorf("pool: setex requires a positive ttl, got %s", ttl)
	}
	c.store().Store(string(key), memEntry{
		value:     append([]byte{}, value...),
		expiresAt: c.m.clock.Now().Add(ttl),
	})
	return nil
}

func (c *memConn) Del(_ context.Context, keys ...[]byte) (int64, error) {
	var n int64
	for _, k := range keys {
		if _, ok := c.load(string(k)); ok {
			c.store().Delete(string(k))
			n++
		}
	}
	return n, nil
}

func (c *memConn) HSet(_ context.Context, key []byte, fields map[string][]byte) error {
	now := c.m.clock.Now()
	var err error
	c.store().Compute(string(key), func(old memEntry, loaded bool) (memEntry, bool) {
		if loaded && old.expired(now) {
			old, loaded = memEntry{}, false
		}
		if loaded && old.hash == nil {
			err = ErrWrongType
			return old, false
		}
		next := make(map[string][]byte, len(old.hash)+len(fields))
		for f, v := range old.hash {
			next[f] = v
		}
		for f, v := range fields {
			next[f] = append([]byte{}, v...)
		}
		return memEntry{hash: next, expiresAt: old.expiresAt}, false
	})
	return err
}

func (c *memConn) HGetAll(_ context.Context, key []byte) (map[string][]byte, error) {
	e, ok := c.load(string(key))
	if !ok {
		return map[string][]byte{}, nil
	}
	if e.hash == nil {
		return nil, ErrWrongType
	}
	out := make(map[string][]byte, len(e.hash))
	for f, v := range e.hash {
		out[f] = append([]byte(nil), v...)
	}
	return out, nil
}

func (c *memConn) HGet(_ context.Context, key, field []byte) ([]byte, error) {
	e, ok := c.load(string(key))
	if !ok {
		return nil, ErrNil
	}
	if e.hash == nil {
		return nil, ErrWrongType
	}
	v, ok := e.hash[string(field)]
	if !ok {
		return nil, ErrNil
	}
	return append([]byte(nil), v...), nil
}

func (c *memConn) HDel(_ context.Context, key []byte, fields ...[]byte) (int64, error) {
	now := c.m.clock.Now()
	var (
		n   int64
		err error
	)
	c.store().Compute(string(key), func(old memEntry, loaded bool) (memEntry, bool) {
		if !loaded || old.expired(now) {
			return old, true
		}
		if old.hash == nil {
			err = ErrWrongType
			return old, false
		}
		next := make(map[string][]byte, len(old.hash))
		for f, v := range old.hash {
			next[f] = v
		}
		for _, f := range fields {
			if _, ok := next[string(f)]; ok {
				delete(next, string(f))
				n++
			}
		}
		// A hash with no fields does not exist.
		return memEntry{hash: next, expiresAt: old.expiresAt}, len(next) == 0
	})
	return n, err
}

func (c *memConn) Expire(_ context.Context, key []byte, ttl time.Duration) (bool, error) {
	now := c.m.clock.Now()
	applied := false
	c.store().Compute(string(key), func(old memEntry, loaded bool) (memEntry, bool) {
		if !loaded || old.expired(now) {
			return old, true
		}
		applied = true
		if ttl <= 0 {
			return old, true
		}
		old.expiresAt = now.Add(ttl)
		return old, false
	})
	return applied, nil
}

func (c *memConn) FlushDB(_ context.Context) error {
	c.store().Clear()
	return nil
}
