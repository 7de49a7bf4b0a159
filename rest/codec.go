package rest

import (
	"encoding/json"

	cbor "github.com/fxamacker/cbor/v2"
)

// Codec marshals and unmarshals typed values for the wire. The Server and
// Client Binders default to JSON but accept any Codec registered for a
// non-default content type.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

// JSON returns the default codec: application/json.
func JSON() Codec { return jsonCodec{} }

func (jsonCodec) ContentType() string            { return "application/json" }
func (jsonCodec) Marshal(v any) ([]byte, error)  { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// CBOR returns a deterministic, canonical-encoding CBOR codec
// (application/cbor), available as an alternate wire format alongside the
// default JSON one.
func CBOR() (Codec, error) {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return cborCodec{enc: enc, dec: dec}, nil
}

func (c cborCodec) ContentType() string          { return "application/cbor" }
func (c cborCodec) Marshal(v any) ([]byte, error) { return c.enc.Marshal(v) }
func (c cborCodec) Unmarshal(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}

// Registry maps content types to codecs.
type Registry struct {
	byType map[string]Codec
}

// NewRegistry builds a Registry preloaded with JSON. Register CBOR()
// explicitly to enable it.
func NewRegistry() *Registry {
	r := &Registry{byType: make(map[string]Codec)}
	r.Register(JSON())
	return r
}

// Register adds or replaces the codec for its own ContentType.
func (r *Registry) Register(c Codec) {
	r.byType[c.ContentType()] = c
}

// Get returns the codec registered for contentType, or nil.
func (r *Registry) Get(contentType string) Codec {
	return r.byType[contentType]
}
