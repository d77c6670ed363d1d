// Package json is the JSON facade used across campus-portal.
// It uses sonic on amd64/arm64 and falls back to encoding/json elsewhere.
// Envelope decoding in the REST client goes through this package, so both
// implementations must agree on RawMessage handling.
package json

import (
	stdjson "encoding/json"
	"io"
	"runtime"

	"github.com/bytedance/sonic"
)

// RawMessage is a raw encoded JSON value. It is the stdlib type so that
// values decoded here can be re-decoded by either backend.
type RawMessage = stdjson.RawMessage

// Encoder is a JSON encoder interface.
type Encoder interface {
	Encode(v interface{}) error
}

// Decoder is a JSON decoder interface.
type Decoder interface {
	Decode(v interface{}) error
}

var (
	// Marshal encodes v into JSON bytes.
	Marshal func(v interface{}) ([]byte, error)

	// MarshalIndent encodes v with indentation, used for human-facing output.
	MarshalIndent func(v interface{}, prefix, indent string) ([]byte, error)

	// Unmarshal decodes JSON bytes into v.
	Unmarshal func(data []byte, v interface{}) error

	// NewEncoder creates a new JSON encoder for the writer.
	NewEncoder func(w io.Writer) Encoder

	// NewDecoder creates a new JSON decoder for the reader.
	NewDecoder func(r io.Reader) Decoder

	usingSonic bool
)

func init() {
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		useSonic(sonic.ConfigStd)
		return
	}
	useStd()
}

func useSonic(api sonic.API) {
	Marshal = api.Marshal
	MarshalIndent = api.MarshalIndent
	Unmarshal = api.Unmarshal
	NewEncoder = func(w io.Writer) Encoder {
		return api.NewEncoder(w)
	}
	NewDecoder = func(r io.Reader) Decoder {
		return api.NewDecoder(r)
	}
	usingSonic = true
}

func useStd() {
	Marshal = stdjson.Marshal
	MarshalIndent = stdjson.MarshalIndent
	Unmarshal = stdjson.Unmarshal
	NewEncoder = func(w io.Writer) Encoder {
		return stdjson.NewEncoder(w)
	}
	NewDecoder = func(r io.Reader) Decoder {
		return stdjson.NewDecoder(r)
	}
	usingSonic = false
}

// ConfigStandardMode switches back to the stdlib-compatible sonic config.
// No-op when sonic is unavailable.
func ConfigStandardMode() {
	if usingSonic {
		useSonic(sonic.ConfigStd)
	}
}

// ConfigFastestMode switches to sonic's fastest mode. Only use it for
// payloads produced by trusted code (e.g. the devserver's own responses).
func ConfigFastestMode() {
	if usingSonic {
		useSonic(sonic.ConfigFastest)
	}
}

// IsUsingSonic returns true if sonic is being used for JSON operations.
func IsUsingSonic() bool {
	return usingSonic
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	if usingSonic {
		return sonic.Valid(data)
	}
	return stdjson.Valid(data)
}
