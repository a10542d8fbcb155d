package codec

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
)

// DecodeFunc turns a fetched payload into the caller's typed value. The store
// carries these closures opaquely: the concrete type is bound where the
// closure is built and recovered by type assertion on read.
type DecodeFunc func(ct ContentType, data []byte) (any, error)

// DecoderFor returns the standard decoder for T. The returned closure
// allocates a fresh *T per invocation; the same pointer is then shared
// read-only by every consumer of the cached resource.
func DecoderFor[T any]() DecodeFunc {
	return func(ct ContentType, data []byte) (any, error) {
		v := new(T)
		if err := Unmarshal(ct, data, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Limit wraps a decoder to reject payloads larger than max bytes before the
// inner decoder runs. max <= 0 disables the check.
func Limit(inner DecodeFunc, max int) DecodeFunc {
	return func(ct ContentType, data []byte) (any, error) {
		if max > 0 && len(data) > max {
			return nil, fmt.Errorf("codec: payload too large: %d > %d", len(data), max)
		}
		return inner(ct, data)
	}
}

// Unmarshal decodes data into v according to ct. v must be a non-nil pointer;
// for Protobuf it must also implement proto.Message.
func Unmarshal(ct ContentType, data []byte, v any) error {
	switch ct {
	case JSON:
		return json.Unmarshal(data, v)
	case MsgPack:
		return msgpack.Unmarshal(data, v)
	case CBOR:
		return cbor.Unmarshal(data, v)
	case Protobuf:
		m, ok := v.(proto.Message)
		if !ok {
			return fmt.Errorf("codec: %T does not implement proto.Message", v)
		}
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("codec: no decoder for content type %q", ct)
}
