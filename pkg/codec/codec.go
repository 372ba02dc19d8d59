// Package codec converts typed values and entities to and from their
// self-describing JSON form.
//
// A typed value encodes as {"type", "val", "ver"} (translations add "lang").
// Snapshots hold these encodings as strings. An entity document carries one
// "data" object: language-bearing attributes are gathered across snapshots into
// a LOCALIZED_STRING, and language-neutral attributes appear once as their own
// typed value.
//
// Decoding dispatches on "type" through the registry the Codec was built with.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/schema"
)

// Codec encodes and decodes against one attribute schema and its registry.
type Codec struct {
	schema   *schema.Schema
	registry *datatype.Registry
}

// New returns a codec for s.
func New(s *schema.Schema) *Codec {
	return &Codec{schema: s, registry: s.Registry()}
}

// Schema returns the codec's attribute schema.
func (c *Codec) Schema() *schema.Schema {
	return c.schema
}

// EncodeValue returns the JSON encoding of v.
func (c *Codec) EncodeValue(v datatype.Value) ([]byte, error) {
	data, err := json.Marshal(v.ToMap())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s value: %w", v.Kind(), err)
	}
	return data, nil
}

// DecodeValue decodes a JSON-encoded typed value.
func (c *Codec) DecodeValue(data []byte) (datatype.Value, error) {
	m, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	return c.registry.Decode(m)
}

// decodeObject unmarshals a JSON object keeping numbers as json.Number so
// integers survive without float rounding.
func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, &datatype.HydrationError{Discriminator: "<unknown>", Field: "json", Detail: "malformed", Err: err}
	}
	if m == nil {
		return nil, &datatype.HydrationError{Discriminator: "<unknown>", Field: "json", Detail: "not an object"}
	}
	return m, nil
}

// compatible reports whether a value of kind got may be stored under an
// attribute of kind want.
func compatible(want, got datatype.Kind) bool {
	return want == got || (want.LanguageBearing() && got.LanguageBearing())
}
