// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// binary.go — binary-object codec. MessagePack bodies wrapped in an envelope
// that records the concrete Go type, checked exactly on decode.

package codec

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// envelope is the stored form of a binary object: the concrete type name
// of the value, a fingerprint of its layout, and its MessagePack body.
type envelope struct {
	Type  string             `msgpack:"t"`
	Shape uint64             `msgpack:"s,omitempty"`
	Data  msgpack.RawMessage `msgpack:"d"`
}

// Binary is the binary-object codec. Values are MessagePack-encoded inside
// an envelope recording their concrete Go type, and Unmarshal only accepts
// a target of exactly that type.
//
// Types are identified by import path and name plus a layout fingerprint.
// Two function-local types that share a name, a package and an identical
// layout cannot be told apart.
type Binary struct{}

// Marshal serializes v together with its type name.
func (Binary) Marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("codec: cannot encode nil value")
	}
	body, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	t := reflect.TypeOf(v)
	return msgpack.Marshal(envelope{Type: TypeName(t), Shape: Shape(t), Data: body})
}

// Unmarshal decodes data into v. It returns ErrTypeMismatch when the stored
// type differs from v's element type and ErrCorrupt when data is not an
// envelope.
func (Binary) Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNotPointer
	}
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil || env.Type == "" {
		return ErrCorrupt
	}
	if want := TypeName(rv.Type()); env.Type != want {
		return fmt.Errorf("%w: stored %s, target %s", ErrTypeMismatch, env.Type, want)
	}
	// Envelopes written without a fingerprint are checked by name only.
	if env.Shape != 0 && env.Shape != Shape(rv.Type()) {
		return fmt.Errorf("%w: stored %s has a different layout than the target", ErrTypeMismatch, env.Type)
	}
	if err := msgpack.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// Name returns "msgpack".
func (Binary) Name() string { return "msgpack" }

// TypeName returns the fully qualified name of t with pointer indirections
// removed, e.g. "github.com/acme/app.Heart". Composite types are spelled
// out with the import path of every named type they contain, so
// "[]github.com/a/models.User" and "[]github.com/b/models.User" differ.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var b strings.Builder
	writeTypeName(&b, t)
	return b.String()
}

func writeTypeName(b *strings.Builder, t reflect.Type) {
	if name := t.Name(); name != "" {
		if pkg := t.PkgPath(); pkg != "" {
			b.WriteString(pkg)
			b.WriteByte('.')
		}
		b.WriteString(name)
		return
	}
	switch t.Kind() {
	case reflect.Pointer:
		b.WriteByte('*')
		writeTypeName(b, t.Elem())
	case reflect.Slice:
		b.WriteString("[]")
		writeTypeName(b, t.Elem())
	case reflect.Array:
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(t.Len()))
		b.WriteByte(']')
		writeTypeName(b, t.Elem())
	case reflect.Map:
		b.WriteString("map[")
		writeTypeName(b, t.Key())
		b.WriteByte(']')
		writeTypeName(b, t.Elem())
	case reflect.Chan:
		switch t.ChanDir() {
		case reflect.RecvDir:
			b.WriteString("<-chan ")
		case reflect.SendDir:
			b.WriteString("chan<- ")
		default:
			b.WriteString("chan ")
		}
		writeTypeName(b, t.Elem())
	case reflect.Struct:
		b.WriteString("struct {")
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteByte(' ')
			if f.PkgPath != "" {
				b.WriteString(f.PkgPath)
				b.WriteByte('.')
			}
			b.WriteString(f.Name)
			b.WriteByte(' ')
			writeTypeName(b, f.Type)
			if f.Tag != "" {
				b.WriteByte(' ')
				b.WriteString(strconv.Quote(string(f.Tag)))
			}
		}
		b.WriteString(" }")
	default:
		b.WriteString(t.String())
	}
}

// Shape returns a fingerprint of t's layout: every struct reachable from t
// contributes its field names, field types and tags. Pointer indirections
// at the top are removed, as in TypeName.
func Shape(t reflect.Type) uint64 {
	if t == nil {
		return 0
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var b strings.Builder
	writeShape(&b, t, make(map[reflect.Type]bool))
	return xxhash.Sum64String(b.String())
}

func writeShape(b *strings.Builder, t reflect.Type, seen map[reflect.Type]bool) {
	writeTypeName(b, t)
	if seen[t] {
		return
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Chan:
		b.WriteByte('<')
		writeShape(b, t.Elem(), seen)
		b.WriteByte('>')
	case reflect.Map:
		b.WriteByte('<')
		writeShape(b, t.Key(), seen)
		b.WriteByte(',')
		writeShape(b, t.Elem(), seen)
		b.WriteByte('>')
	case reflect.Struct:
		b.WriteByte('{')
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			b.WriteString(f.Name)
			b.WriteByte(':')
			writeShape(b, f.Type, seen)
			if f.Tag != "" {
				b.WriteString(strconv.Quote(string(f.Tag)))
			}
			b.WriteByte(';')
		}
		b.WriteByte('}')
	}
}
