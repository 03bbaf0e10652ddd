// Package codec centralizes JSON encoding for metadata mappings and search
// index payloads.
package codec

import "io"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Decode reads one value from r, for response bodies that need not be buffered.
	Decode(r io.Reader, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name. The empty name selects Default.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "":
		return Default, true
	default:
		return nil, false
	}
}
