package network

import (
	"github.com/ugorji/go/codec"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype used on the delivery service.
const CodecName = "msgpack"

var msgpackHandle codec.MsgpackHandle

func init() {
	encoding.RegisterCodec(msgpackCodec{})
}

// msgpackCodec encodes gRPC payloads with msgpack so the service can be
// described in plain Go structs.
type msgpackCodec struct{}

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, &msgpackHandle).Encode(v); err != nil {
		return nil, err
	}
	return out, nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	return codec.NewDecoderBytes(data, &msgpackHandle).Decode(v)
}

func (msgpackCodec) Name() string {
	return CodecName
}
