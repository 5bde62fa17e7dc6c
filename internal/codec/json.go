package codec

import (
	"encoding/json"

	"nexus-cache/internal/common/errors"
)

// JSONCodec serializes values as JSON. It is the default codec: values
// round-trip into the shapes encoding/json produces, so structs stored
// through it come back as map[string]interface{} unless decoded into a
// typed target.
type JSONCodec struct{}

// NewJSONCodec creates a JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Name() string {
	return "json"
}

func (c *JSONCodec) Marshal(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.SerializationError("failed to marshal value to JSON", err)
	}
	return data, nil
}

func (c *JSONCodec) Unmarshal(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return errors.SerializationError("failed to unmarshal JSON value", err)
	}
	return nil
}
