// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// redis.go — go-redis backed Pool. Each lease is a dedicated *redis.Conn
// taken from the go-redis connection pool, so SELECT only affects the
// borrower. A weighted semaphore caps concurrent leases at PoolSize.
// Release puts a connection back on the client's own database before it
// returns to the go-redis pool.

package pool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// RedisOptions configures a Redis pool.
type RedisOptions struct {
	Addr     string
	Username string
	Password string

	// PoolSize bounds concurrent leases and the go-redis pool (default 10).
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// AcquireTimeout bounds how long Acquire waits for a free lease.
	// Zero waits until the caller's context is done.
	AcquireTimeout time.Duration

	// Client, when set, is used instead of dialing Addr. The pool takes
	// ownership and closes it on Destroy. Commands issued directly on it
	// keep running against its configured database.
	Client *redis.Client

	// Logger receives connection failures seen on Release (default: no-op).
	Logger *zap.Logger
}

// resetTimeout bounds the SELECT issued on Release.
const resetTimeout = 3 * time.Second

// Redis is a Pool over a go-redis client.
type Redis struct {
	client    *redis.Client
	baseDB    int
	sem       *semaphore.Weighted
	size      int64
	timeout   time.Duration
	log       *zap.Logger
	inUse     atomic.Int64
	discarded atomic.Int64
	destroyed atomic.Bool
}

// NewRedis creates a Redis pool. It does not dial; use Ping to verify
// connectivity.
func NewRedis(opts RedisOptions) *Redis {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}
	client := opts.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:         opts.Addr,
			Username:     opts.Username,
			Password:     opts.Password,
			PoolSize:     opts.PoolSize,
			MinIdleConns: opts.MinIdleConns,
			DialTimeout:  opts.DialTimeout,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		})
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis{
		client:  client,
		baseDB:  client.Options().DB,
		sem:     semaphore.NewWeighted(int64(opts.PoolSize)),
		size:    int64(opts.PoolSize),
		timeout: opts.AcquireTimeout,
		log:     log,
	}
}

// Acquire leases a dedicated connection.
func (p *Redis) Acquire(ctx context.Context) (Conn, error) {
	if p.destroyed.Load() {
		return nil, ErrDestroyed
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrExhausted, err)
		}
		return nil, err
	}
	p.inUse.Add(1)
	return &redisConn{conn: p.client.Conn()}, nil
}

// Release returns c to the go-redis pool. A connection that changed
// database is switched back to the client's own first; when that fails it
// is discarded instead. Repeated calls are no-ops.
func (p *Redis) Release(c Conn) {
	rc, ok := c.(*redisConn)
	if !ok || rc == nil || !rc.released.CompareAndSwap(false, true) {
		return
	}
	defer func() {
		p.inUse.Add(-1)
		p.sem.Release(1)
	}()

	if rc.selected && !p.destroyed.Load() {
		ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
		err := rc.conn.Select(ctx, p.baseDB).Err()
		cancel()
		if err != nil {
			p.discard(rc, err)
			return
		}
	}
	if err := rc.conn.Close(); err != nil {
		p.discarded.Add(1)
		p.log.Warn("pool: closing connection failed", zap.Error(err))
	}
}

// discard keeps rc's socket from being reused. QUIT makes the server hang
// up; go-redis drops the connection when the reply read fails or, at the
// latest, when its idle health check next sees the closed socket.
func (p *Redis) discard(rc *redisConn, cause error) {
	p.discarded.Add(1)
	p.log.Warn("pool: discarding connection, database reset failed",
		zap.Int("db", p.baseDB), zap.Error(cause))
	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	_ = rc.conn.Process(ctx, redis.NewStatusCmd(ctx, "quit"))
	cancel()
	_ = rc.conn.Close()
}

// Destroy closes the underlying client.
func (p *Redis) Destroy() error {
	if !p.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	return p.client.Close()
}

// Ping checks that the server is reachable.
func (p *Redis) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Size returns the lease capacity.
func (p *Redis) Size() int { return int(p.size) }

// InUse returns the number of leases currently held.
func (p *Redis) InUse() int { return int(p.inUse.Load()) }

// Discarded returns how many connections failed on Release and were
// dropped.
func (p *Redis) Discarded() int { return int(p.discarded.Load()) }

// ── Conn ─────────────────────────────────────────────────────────────────────

type redisConn struct {
	conn *redis.Conn
	// selected is set once SELECT was sent.
	selected bool
	released atomic.Bool
}

// nilAware maps go-redis's redis.Nil to ErrNil.
func nilAware(err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrNil
	}
	return err
}

func (c *redisConn) Select(ctx context.Context, index int) error {
	c.selected = true
	return c.conn.Select(ctx, index).Err()
}

func (c *redisConn) Get(ctx context.Context, key []byte) ([]byte, error) {
	b, err := c.conn.Get(ctx, string(key)).Bytes()
	return b, nilAware(err)
}

func (c *redisConn) Set(ctx context.Context, key, value []byte) error {
	return c.conn.Set(ctx, string(key), value, 0).Err()
}

// SetEx writes value with a lifetime. go-redis sends PX for sub-second or
// fractional TTLs and EX otherwise.
func (c *redisConn) SetEx(ctx context.Context, key []byte, ttl time.Duration, value []byte) error {
	if ttl <= 0 {
		return fmt.Errorf("pool: setex requires a positive ttl, got %s", ttl)
	}
	return c.conn.Set(ctx, string(key), value, ttl).Err()
}

func (c *redisConn) Del(ctx context.Context, keys ...[]byte) (int64, error) {
	return c.conn.Del(ctx, toStrings(keys)...).Result()
}

func (c *redisConn) HSet(ctx context.Context, key []byte, fields map[string][]byte) error {
	values := make(map[string]interface{}, len(fields))
	for f, v := range fields {
		values[f] = v
	}
	return c.conn.HSet(ctx, string(key), values).Err()
}

func (c *redisConn) HGetAll(ctx context.Context, key []byte) (map[string][]byte, error) {
	m, err := c.conn.HGetAll(ctx, string(key)).Result()
	if err != nil {
		return nil, nilAware(err)
	}
	out := make(map[string][]byte, len(m))
	for f, v := range m {
		out[f] = []byte(v)
	}
	return out, nil
}

func (c *redisConn) HGet(ctx context.Context, key, field []byte) ([]byte, error) {
	b, err := c.conn.HGet(ctx, string(key), string(field)).Bytes()
	return b, nilAware(err)
}

func (c *redisConn) HDel(ctx context.Context, key []byte, fields ...[]byte) (int64, error) {
	return c.conn.HDel(ctx, string(key), toStrings(fields)...).Result()
}

func (c *redisConn) Expire(ctx context.Context, key []byte, ttl time.Duration) (bool, error) {
	if ttl%time.Second != 0 {
		return c.conn.PExpire(ctx, string(key), ttl).Result()
	}
	return c.conn.Expire(ctx, string(key), ttl).Result()
}

func (c *redisConn) FlushDB(ctx context.Context) error {
	return c.conn.FlushDB(ctx).Err()
}

func toStrings(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}
