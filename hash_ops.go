// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// hash_ops.go — hash entries: field→text maps stored under one key.

package kvpool

import (
	"context"
	"fmt"

	"github.com/AndrewDonelson/kvpool/pool"
)

// PutMap sets every field of m on the hash at key. Fields not in m are
// left as they are. m must not be empty.
func (c *Client) PutMap(ctx context.Context, key string, m map[string]string, opts ...Option) error {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return err
	}
	if len(m) == 0 {
		return invalid("map is empty")
	}
	cl := c.begin(opPutMap, key, o.db)
	k, err := c.keyBytes(key)
	if err != nil {
		return cl.settle(err)
	}
	fields := make(map[string][]byte, len(m))
	for f, v := range m {
		fb, err := c.text.Encode(f)
		if err != nil {
			return cl.settle(fmt.Errorf("%w: field %q: %v", ErrEncode, f, err))
		}
		vb, err := c.text.Encode(v)
		if err != nil {
			return cl.settle(fmt.Errorf("%w: field %q value: %v", ErrEncode, f, err))
		}
		if vb, err = c.seal(vb); err != nil {
			return cl.settle(err)
		}
		fields[string(fb)] = vb
	}
	return cl.settle(c.exec(ctx, o.db, func(conn pool.Conn) error {
		return conn.HSet(ctx, k, fields)
	}))
}

// GetMap returns every field of the hash at key. An absent key yields an
// empty map and a nil error. The returned map is never nil.
func (c *Client) GetMap(ctx context.Context, key string, opts ...Option) (map[string]string, error) {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return map[string]string{}, err
	}
	cl := c.begin(opGetMap, key, o.db)
	m, err := c.getMap(ctx, key, o.db)
	if err != nil {
		return map[string]string{}, cl.settle(err)
	}
	return m, cl.settle(nil)
}

func (c *Client) getMap(ctx context.Context, key string, db int) (map[string]string, error) {
	k, err := c.keyBytes(key)
	if err != nil {
		return nil, err
	}
	var raw map[string][]byte
	err = c.exec(ctx, db, func(conn pool.Conn) error {
		var err error
		raw, err = conn.HGetAll(ctx, k)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for f, v := range raw {
		field, err := c.text.Decode([]byte(f))
		if err != nil {
			return nil, fmt.Errorf("%w: field: %v", ErrDecode, err)
		}
		plain, err := c.open(v)
		if err != nil {
			return nil, err
		}
		value, err := c.text.Decode(plain)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q value: %v", ErrDecode, field, err)
		}
		out[field] = value
	}
	return out, nil
}

// GetField returns one field of the hash at key. A missing key or field is
// not-found.
func (c *Client) GetField(ctx context.Context, key, field string, opts ...Option) (string, error) {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return "", err
	}
	if field == "" {
		return "", invalid("field is empty")
	}
	cl := c.begin(opGetField, key, o.db)
	s, err := c.getField(ctx, key, field, o.db)
	if err != nil {
		return "", cl.settle(err)
	}
	return s, cl.settle(nil)
}

func (c *Client) getField(ctx context.Context, key, field string, db int) (string, error) {
	k, err := c.keyBytes(key)
	if err != nil {
		return "", err
	}
	f, err := c.text.Encode(field)
	if err != nil {
		return "", fmt.Errorf("%w: field: %v", ErrEncode, err)
	}
	var b []byte
	err = c.exec(ctx, db, func(conn pool.Conn) error {
		var err error
		b, err = conn.HGet(ctx, k, f)
		return err
	})
	if err != nil {
		return "", err
	}
	plain, err := c.open(b)
	if err != nil {
		return "", err
	}
	s, err := c.text.Decode(plain)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return s, nil
}

// DelField removes the named fields from the hash at key; other fields
// remain. fields must be non-empty and contain no empty names.
func (c *Client) DelField(ctx context.Context, key string, fields []string, opts ...Option) error {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return err
	}
	if len(fields) == 0 {
		return invalid("field list is empty")
	}
	for i, f := range fields {
		if f == "" {
			return invalid("field %d is empty", i)
		}
	}
	cl := c.begin(opDelField, key, o.db)
	k, err := c.keyBytes(key)
	if err != nil {
		return cl.settle(err)
	}
	names := make([][]byte, 0, len(fields))
	for _, f := range fields {
		b, err := c.text.Encode(f)
		if err != nil {
			return cl.settle(fmt.Errorf("%w: field %q: %v", ErrEncode, f, err))
		}
		names = append(names, b)
	}
	return cl.settle(c.exec(ctx, o.db, func(conn pool.Conn) error {
		_, err := conn.HDel(ctx, k, names...)
		return err
	}))
}
