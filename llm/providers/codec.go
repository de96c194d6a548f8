package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Codec is the JSON configuration shared by every client. It is built once
// and handed to each client explicitly so that decoding strictness is a
// visible choice rather than process-wide state.
type Codec struct {
	// DisallowUnknownFields makes decoding fail on fields the wire DTOs do
	// not declare. Providers add fields often, so this is off by default.
	DisallowUnknownFields bool

	// EscapeHTML escapes <, > and & inside encoded strings.
	EscapeHTML bool
}

// DefaultCodec tolerates unknown fields and leaves HTML unescaped.
func DefaultCodec() *Codec {
	return &Codec{}
}

// Marshal encodes v without the trailing newline json.Encoder appends.
func (c *Codec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(c.EscapeHTML)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal decodes data into v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	return c.Decode(bytes.NewReader(data), v)
}

// Decode decodes one JSON value from r into v.
func (c *Codec) Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if c.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
