package codec

import (
	"github.com/vmihailenco/msgpack/v5"

	"nexus-cache/internal/common/errors"
)

// MsgpackCodec serializes values with MessagePack. It is more compact than
// JSON and preserves time.Time values through the round trip, which the
// JSON codec flattens to RFC 3339 strings.
type MsgpackCodec struct{}

// NewMsgpackCodec creates a MessagePack codec.
func NewMsgpackCodec() *MsgpackCodec {
	return &MsgpackCodec{}
}

func (c *MsgpackCodec) Name() string {
	return "msgpack"
}

func (c *MsgpackCodec) Marshal(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte{}, nil
	}

	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.SerializationError("failed to marshal value to msgpack", err)
	}
	return data, nil
}

func (c *MsgpackCodec) Unmarshal(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}

	if err := msgpack.Unmarshal(data, v); err != nil {
		return errors.SerializationError("failed to unmarshal msgpack value", err)
	}
	return nil
}
