// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// raw.go — pass-through codec for file blobs.

package codec

import "fmt"

// Raw passes byte slices through unchanged. It bridges file contents to the
// wire payload for the file-blob encoding.
type Raw struct{}

// Marshal returns v unchanged; v must be a []byte.
func (Raw) Marshal(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("codec: raw expects []byte, got %T", v)
	}
	return b, nil
}

// Unmarshal copies data into v, which must be a *[]byte.
func (Raw) Unmarshal(data []byte, v any) error {
	p, ok := v.(*[]byte)
	if !ok || p == nil {
		return ErrNotPointer
	}
	*p = append((*p)[:0], data...)
	return nil
}

// Name returns "raw".
func (Raw) Name() string { return "raw" }
