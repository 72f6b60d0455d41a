// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// text.go — charset conversion for keys, text values and hash fields.

package codec

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultCharset is the charset used for keys and text values when none is
// configured.
const DefaultCharset = "UTF-8"

// Text converts strings to and from bytes in a fixed charset. The zero
// value is UTF-8, which is an identity mapping.
type Text struct {
	name string
	enc  encoding.Encoding
}

// NewText resolves charset by its WHATWG/IANA name. An empty name selects
// UTF-8.
func NewText(charset string) (Text, error) {
	if charset == "" || isUTF8(charset) {
		return Text{name: DefaultCharset}, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return Text{}, fmt.Errorf("codec: unknown charset %q: %w", charset, err)
	}
	name, _ := htmlindex.Name(enc)
	if strings.EqualFold(name, "utf-8") {
		return Text{name: DefaultCharset}, nil
	}
	return Text{name: name, enc: enc}, nil
}

func isUTF8(charset string) bool {
	return strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8")
}

// Encode converts s to bytes. UTF-8 returns the string's bytes unchanged.
func (t Text) Encode(s string) ([]byte, error) {
	if t.enc == nil {
		return []byte(s), nil
	}
	b, err := t.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", t.name, err)
	}
	return b, nil
}

// Decode converts b back to a string.
func (t Text) Decode(b []byte) (string, error) {
	if t.enc == nil {
		return string(b), nil
	}
	out, err := t.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("codec: decode %s: %w", t.name, err)
	}
	return string(out), nil
}

// Name returns the canonical charset name.
func (t Text) Name() string {
	if t.name == "" {
		return DefaultCharset
	}
	return t.name
}
