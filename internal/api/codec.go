// Package api defines the billcalc.v1 RPC surface: message types, procedure
// names, and Connect handler and client constructors.
//
// Messages are plain Go structs carried as JSON over the Connect protocol.
package api

import (
	"encoding/json"
	"fmt"
)

// CodecName is registered for the application/json content type.
const CodecName = "json"

// Codec marshals plain Go structs as JSON. It replaces Connect's default
// protobuf-JSON codec, which only accepts generated messages.
type Codec struct{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
