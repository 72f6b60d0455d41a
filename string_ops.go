// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// string_ops.go — text values: Put, Get and Delete.

package kvpool

import (
	"context"
	"fmt"

	"github.com/AndrewDonelson/kvpool/pool"
)

// Operation names used in logs and metrics.
const (
	opPut       = "put"
	opGet       = "get"
	opDelete    = "delete"
	opPutJSON   = "put_json"
	opGetJSON   = "get_json"
	opPutObject = "put_object"
	opGetObject = "get_object"
	opPutMap    = "put_map"
	opGetMap    = "get_map"
	opGetField  = "get_field"
	opDelField  = "del_field"
	opPutFile   = "put_file"
	opGetFile   = "get_file"
	opExpire    = "expire"
	opFlushDB   = "flushdb"
)

// Put stores value at key as text. With TTL the key expires after d.
func (c *Client) Put(ctx context.Context, key, value string, opts ...Option) error {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return err
	}
	if err := checkTTL(o); err != nil {
		return err
	}
	cl := c.begin(opPut, key, o.db)
	return cl.settle(c.putText(ctx, key, value, o))
}

func (c *Client) putText(ctx context.Context, key, value string, o opOptions) error {
	k, err := c.keyBytes(key)
	if err != nil {
		return err
	}
	v, err := c.text.Encode(value)
	if err != nil {
		return fmt.Errorf("%w: value: %v", ErrEncode, err)
	}
	payload, err := c.seal(v)
	if err != nil {
		return err
	}
	return c.write(ctx, k, payload, o)
}

// Get returns the text stored at key. An absent key is ErrNotFound under
// PolicyStrict and "" with a nil error under PolicyBestEffort.
func (c *Client) Get(ctx context.Context, key string, opts ...Option) (string, error) {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return "", err
	}
	cl := c.begin(opGet, key, o.db)
	s, err := c.getText(ctx, key, o.db)
	if err != nil {
		return "", cl.settle(err)
	}
	return s, cl.settle(nil)
}

func (c *Client) getText(ctx context.Context, key string, db int) (string, error) {
	k, err := c.keyBytes(key)
	if err != nil {
		return "", err
	}
	b, err := c.read(ctx, k, db)
	if err != nil {
		return "", err
	}
	s, err := c.text.Decode(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return s, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Client) Delete(ctx context.Context, key string, opts ...Option) error {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return err
	}
	cl := c.begin(opDelete, key, o.db)
	k, err := c.keyBytes(key)
	if err != nil {
		return cl.settle(err)
	}
	return cl.settle(c.exec(ctx, o.db, func(conn pool.Conn) error {
		_, err := conn.Del(ctx, k)
		return err
	}))
}
