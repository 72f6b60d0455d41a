// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// admin_ops.go — key lifetime and database maintenance.

package kvpool

import (
	"context"
	"time"

	"github.com/AndrewDonelson/kvpool/pool"
)

// Expire gives an existing key a lifetime of ttl. It reports whether the
// key existed and the lifetime was set; an absent key is false with a nil
// error.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration, opts ...Option) (bool, error) {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return false, err
	}
	if ttl <= 0 {
		return false, invalid("expire ttl must be positive, got %s", ttl)
	}
	cl := c.begin(opExpire, key, o.db)
	k, err := c.keyBytes(key)
	if err != nil {
		return false, cl.settle(err)
	}
	var ok bool
	err = c.exec(ctx, o.db, func(conn pool.Conn) error {
		var err error
		ok, err = conn.Expire(ctx, k, ttl)
		return err
	})
	if err != nil {
		return false, cl.settle(err)
	}
	return ok, cl.settle(nil)
}

// FlushDB removes every key in database index.
func (c *Client) FlushDB(ctx context.Context, index int) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.checkDB(index); err != nil {
		return err
	}
	cl := c.begin(opFlushDB, "", index)
	err := c.exec(ctx, index, func(conn pool.Conn) error {
		return conn.FlushDB(ctx)
	})
	if err == nil {
		c.logger.Info("kvpool: database flushed", "db", index)
	}
	return cl.settle(err)
}
