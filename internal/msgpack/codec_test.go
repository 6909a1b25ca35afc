package msgpack

import (
	"errors"
	"testing"
)

type payload struct {
	Name    string   `msgpack:"name"`
	Count   int      `msgpack:"count"`
	Columns []string `msgpack:"columns,omitempty"`
}

func TestEncodeDecode(t *testing.T) {
	in := payload{Name: "users", Count: 3, Columns: []string{"id", "name"}}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var out payload
	if err := Decode(data, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Name != in.Name || out.Count != in.Count || len(out.Columns) != 2 {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestDecodeEmpty(t *testing.T) {
	var out payload
	if err := Decode(nil, &out); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestDecodeUnknownField(t *testing.T) {
	data, err := Encode(map[string]any{"name": "users", "extra": true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var out payload
	if err := Decode(data, &out); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestDecodeGarbage(t *testing.T) {
	var out payload
	if err := Decode([]byte{0xc1}, &out); err == nil {
		t.Error("expected error for invalid MessagePack")
	}
}
