package proto

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype this codec registers under.
// Clients select it via grpc.CallContentSubtype(proto.CodecName); servers
// pick it from the request's content-subtype, since init registers it.
const CodecName = "json"

// JSONCodec marshals the plain Go structs in this package as JSON over the
// wire, standing in for the real protobuf wire codec: the scheduler treats
// plan bytes as opaque regardless of the outer RPC message encoding, and
// protoc isn't run as part of building this module (see DESIGN.md).
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return data, nil
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return nil
}

func (JSONCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(JSONCodec{})
}
