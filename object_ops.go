// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// object_ops.go — structured values in two encodings: JSON text
// (PutJSON/GetJSON) and type-checked binary objects (PutObject/GetObject).
// The reader chooses the encoding; nothing on the wire says which was used.

package kvpool

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/AndrewDonelson/kvpool/internal/codec"
)

// ────────────────────────────────────────────────────────────────────────────
// JSON
// ────────────────────────────────────────────────────────────────────────────

// PutJSON stores value at key as JSON text in the configured charset.
func (c *Client) PutJSON(ctx context.Context, key string, value any, opts ...Option) error {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return err
	}
	if err := checkTTL(o); err != nil {
		return err
	}
	cl := c.begin(opPutJSON, key, o.db)
	return cl.settle(c.putJSON(ctx, key, value, o))
}

func (c *Client) putJSON(ctx context.Context, key string, value any, o opOptions) error {
	k, err := c.keyBytes(key)
	if err != nil {
		return err
	}
	doc, err := c.json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: json: %v", ErrEncode, err)
	}
	v, err := c.text.Encode(string(doc))
	if err != nil {
		return fmt.Errorf("%w: json text: %v", ErrEncode, err)
	}
	payload, err := c.seal(v)
	if err != nil {
		return err
	}
	return c.write(ctx, k, payload, o)
}

// GetJSON decodes the JSON stored at key into dest, which must be a non-nil
// pointer. A missing or blank payload is not-found. A payload that is not
// valid JSON for dest returns ErrDecode under either failure policy. dest
// is left untouched unless decoding succeeds.
func (c *Client) GetJSON(ctx context.Context, key string, dest any, opts ...Option) error {
	_, err := c.getJSON(ctx, key, dest, opts)
	return err
}

// GetJSONTyped is a generic convenience wrapper around GetJSON. It returns a
// nil pointer when nothing was decoded.
func GetJSONTyped[T any](ctx context.Context, c *Client, key string, opts ...Option) (*T, error) {
	var v T
	found, err := c.getJSON(ctx, key, &v, opts)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

func (c *Client) getJSON(ctx context.Context, key string, dest any, opts []Option) (bool, error) {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return false, err
	}
	if err := checkDest(dest); err != nil {
		return false, err
	}
	cl := c.begin(opGetJSON, key, o.db)
	cl.surface = true

	k, err := c.keyBytes(key)
	if err != nil {
		return false, cl.settle(err)
	}
	b, err := c.read(ctx, k, o.db)
	if err != nil {
		return false, cl.settle(err)
	}
	doc, err := c.text.Decode(b)
	if err != nil {
		return false, cl.settle(fmt.Errorf("%w: %v", ErrDecode, err))
	}
	if isBlank([]byte(doc)) {
		return false, cl.settle(ErrNotFound)
	}
	if err := decodeInto(c.json, []byte(doc), dest); err != nil {
		return false, cl.settle(fmt.Errorf("%w: json: %v", ErrDecode, err))
	}
	return true, cl.settle(nil)
}

// ────────────────────────────────────────────────────────────────────────────
// Binary objects
// ────────────────────────────────────────────────────────────────────────────

// PutObject stores value at key as a binary object that remembers its
// concrete type. value must not be nil.
func (c *Client) PutObject(ctx context.Context, key string, value any, opts ...Option) error {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return err
	}
	if err := checkTTL(o); err != nil {
		return err
	}
	if isNil(value) {
		return invalid("object value is nil")
	}
	cl := c.begin(opPutObject, key, o.db)
	return cl.settle(c.putObject(ctx, key, value, o))
}

func (c *Client) putObject(ctx context.Context, key string, value any, o opOptions) error {
	k, err := c.keyBytes(key)
	if err != nil {
		return err
	}
	v, err := c.binary.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: object: %v", ErrEncode, err)
	}
	payload, err := c.seal(v)
	if err != nil {
		return err
	}
	return c.write(ctx, k, payload, o)
}

// GetObject decodes the binary object at key into dest, a non-nil pointer.
// The stored type must equal dest's element type exactly. A different type,
// or a payload that is not a binary object, is reported according to
// Config.Mismatch: absent by default, or ErrTypeMismatch / ErrDecode under
// MismatchError.
func (c *Client) GetObject(ctx context.Context, key string, dest any, opts ...Option) error {
	_, err := c.getObject(ctx, key, dest, opts)
	return err
}

// GetObjectTyped is a generic convenience wrapper around GetObject.
func GetObjectTyped[T any](ctx context.Context, c *Client, key string, opts ...Option) (*T, error) {
	var v T
	found, err := c.getObject(ctx, key, &v, opts)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

func (c *Client) getObject(ctx context.Context, key string, dest any, opts []Option) (bool, error) {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return false, err
	}
	if err := checkDest(dest); err != nil {
		return false, err
	}
	cl := c.begin(opGetObject, key, o.db)
	cl.surface = c.cfg.Mismatch == MismatchError

	k, err := c.keyBytes(key)
	if err != nil {
		return false, cl.settle(err)
	}
	b, err := c.read(ctx, k, o.db)
	if err != nil {
		return false, cl.settle(err)
	}
	if err := decodeInto(c.binary, b, dest); err != nil {
		return false, cl.settle(c.mismatch(err))
	}
	return true, cl.settle(nil)
}

// mismatch maps a binary decode failure through the mismatch policy.
func (c *Client) mismatch(err error) error {
	if c.cfg.Mismatch == MismatchAbsent {
		c.logger.Debug("kvpool: binary object unreadable as target, treating as absent", "err", err)
		return ErrNotFound
	}
	if errors.Is(err, codec.ErrTypeMismatch) {
		return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return fmt.Errorf("%w: %v", ErrDecode, err)
}

// ────────────────────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────────────────────

func checkDest(dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return invalid("destination must be a non-nil pointer, got %T", dest)
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// decodeInto decodes data into a fresh value of dest's element type and
// copies it into dest only on success.
func decodeInto(cd codec.Codec, data []byte, dest any) error {
	rv := reflect.ValueOf(dest)
	fresh := reflect.New(rv.Elem().Type())
	if err := cd.Unmarshal(data, fresh.Interface()); err != nil {
		return err
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}
