package codec

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
)

type protoCodec struct {
	mo proto.MarshalOptions
	uo proto.UnmarshalOptions
}

// Proto returns a Protocol Buffers codec with deterministic marshaling.
// Values and decode targets may be a message (*M) or a pointer to one (**M);
// the second form lets generic callers hold messages by pointer. A nil *M
// target is allocated.
// Content-Type: application/x-protobuf
func Proto() Codec {
	return protoCodec{
		mo: proto.MarshalOptions{Deterministic: true},
		uo: proto.UnmarshalOptions{DiscardUnknown: true},
	}
}

func (protoCodec) ContentType() string { return "application/x-protobuf" }

func (p protoCodec) Marshal(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return p.mo.Marshal(msg)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Pointer {
		if msg, ok := rv.Elem().Interface().(proto.Message); ok {
			return p.mo.Marshal(msg)
		}
	}
	return nil, fmt.Errorf("protobuf: value does not implement proto.Message: %T", v)
}

func (p protoCodec) Unmarshal(data []byte, v any) error {
	if msg, ok := v.(proto.Message); ok {
		return p.uo.Unmarshal(data, msg)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Pointer {
		elem := rv.Elem()
		target := elem
		if elem.IsNil() {
			target = reflect.New(elem.Type().Elem())
		}
		if msg, ok := target.Interface().(proto.Message); ok {
			if err := p.uo.Unmarshal(data, msg); err != nil {
				return err
			}
			elem.Set(target)
			return nil
		}
	}
	return fmt.Errorf("protobuf: target does not implement proto.Message: %T", v)
}
