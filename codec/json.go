package codec

import (
	"encoding/json"
	"io"
)

// JSON is the standard-library JSON codec, for byte-for-byte encoding/json output.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) Decode(r io.Reader, v any) error { return json.NewDecoder(r).Decode(v) }

func (JSON) Name() string { return "json" }

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}
