package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Codec is the content-subtype under which banking messages travel. Messages are
// the plain Go request and response structs, so no generated code is involved.
const Codec = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return Codec }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
