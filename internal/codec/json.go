// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// json.go — JSON codec for the json-object encoding. Uses sonic in its
// std-compatible configuration on amd64/arm64 and encoding/json elsewhere,
// so the stored text is identical on every platform.

package codec

import (
	stdjson "encoding/json"
	"runtime"

	"github.com/bytedance/sonic"
)

var (
	jsonMarshal   func(v any) ([]byte, error)
	jsonUnmarshal func(data []byte, v any) error
)

func init() {
	// sonic only ships a JIT for amd64 and arm64.
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		jsonMarshal = sonic.ConfigStd.Marshal
		jsonUnmarshal = sonic.ConfigStd.Unmarshal
		return
	}
	jsonMarshal = stdjson.Marshal
	jsonUnmarshal = stdjson.Unmarshal
}

// JSON encodes values as canonical JSON text (sorted map keys, HTML
// escaping identical to encoding/json).
type JSON struct{}

// Marshal serializes v to JSON bytes.
func (JSON) Marshal(v any) ([]byte, error) {
	return jsonMarshal(v)
}

// Unmarshal deserializes JSON bytes into v.
func (JSON) Unmarshal(data []byte, v any) error {
	return jsonUnmarshal(data, v)
}

// Name returns "json".
func (JSON) Name() string { return "json" }
