// Package msgpack encodes Flight tickets as MessagePack.
package msgpack

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrEmpty is returned when decoding an empty payload.
var ErrEmpty = errors.New("empty MessagePack data")

// Encode serializes v. Struct fields are named by their msgpack tags.
//
//	type Ticket struct {
//	    Schema string `msgpack:"schema"`
//	    Table  string `msgpack:"table"`
//	}
//
//	data, err := msgpack.Encode(Ticket{Schema: "main", Table: "users"})
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetOmitEmpty(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes data into the value v points to. Keys with no
// matching field are rejected, so a payload meant for another
// structure fails instead of decoding to zero values.
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmpty
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}
	return nil
}
