// Package codec provides the pluggable serialization strategy used by the
// remote cache tier to turn values into bytes and back.
//
// All codecs follow two conventions: a nil value marshals to a zero-length
// byte slice, and unmarshaling a zero-length slice is a no-op that leaves
// the target untouched, signalling "absent" rather than an error. Encode
// and decode failures are reported as serialization errors, distinct from
// provider I/O failures, so callers can tell "this value is not cacheable"
// apart from a store outage.
package codec

// Codec encodes and decodes cache values.
type Codec interface {
	// Name identifies the codec, e.g. for logging and configuration.
	Name() string

	// Marshal encodes a value into bytes. A nil value encodes to an empty
	// slice.
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal decodes bytes into the target. An empty input is a no-op.
	Unmarshal(data []byte, v interface{}) error
}
