// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// file_ops.go — whole-file blobs. Files are read fully before a connection
// is leased and written fully after it is released.

package kvpool

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PutFile stores the whole content of f at key. The file is read from its
// start regardless of its current offset, which is left unchanged.
func (c *Client) PutFile(ctx context.Context, key string, f *os.File, opts ...Option) error {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return err
	}
	if err := checkTTL(o); err != nil {
		return err
	}
	if f == nil {
		return invalid("file is nil")
	}
	cl := c.begin(opPutFile, key, o.db)
	data, err := readWhole(f)
	if err != nil {
		return cl.settle(err)
	}
	return cl.settle(c.putBlob(ctx, key, data, o))
}

// PutFilePath stores the whole content of the file at path under key.
func (c *Client) PutFilePath(ctx context.Context, key, path string, opts ...Option) error {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return err
	}
	if err := checkTTL(o); err != nil {
		return err
	}
	if path == "" {
		return invalid("path is empty")
	}
	cl := c.begin(opPutFile, key, o.db)
	data, err := os.ReadFile(path)
	if err != nil {
		return cl.settle(fmt.Errorf("%w: %v", ErrFile, err))
	}
	return cl.settle(c.putBlob(ctx, key, data, o))
}

func readWhole(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFile, err)
	}
	data, err := io.ReadAll(io.NewSectionReader(f, 0, info.Size()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFile, err)
	}
	return data, nil
}

func (c *Client) putBlob(ctx context.Context, key string, data []byte, o opOptions) error {
	k, err := c.keyBytes(key)
	if err != nil {
		return err
	}
	v, err := c.raw.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	payload, err := c.seal(v)
	if err != nil {
		return err
	}
	return c.write(ctx, k, payload, o)
}

// GetFile writes the blob stored at key to path, creating parent
// directories, and returns path. An absent key writes nothing.
func (c *Client) GetFile(ctx context.Context, key, path string, opts ...Option) (string, error) {
	o := c.resolve(opts)
	if err := c.check(key, o.db); err != nil {
		return "", err
	}
	if path == "" {
		return "", invalid("path is empty")
	}
	cl := c.begin(opGetFile, key, o.db)
	if err := c.getBlob(ctx, key, path, o.db); err != nil {
		return "", cl.settle(err)
	}
	return path, cl.settle(nil)
}

func (c *Client) getBlob(ctx context.Context, key, path string, db int) error {
	k, err := c.keyBytes(key)
	if err != nil {
		return err
	}
	b, err := c.read(ctx, k, db)
	if err != nil {
		return err
	}
	var data []byte
	if err := c.raw.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrFile, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	return nil
}
