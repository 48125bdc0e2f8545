// Package codec turns envelopes into frame bodies and back.
package codec

import "java-lsp-rpc/message"

// Codec serializes envelopes. Implementations must be safe for concurrent use.
type Codec interface {
	Encode(msg *message.Message) ([]byte, error)
	// Decode fills msg from data. Any failure, including a well-formed document
	// that is not a valid envelope, matches message.ErrDecode.
	Decode(data []byte, msg *message.Message) error
	Name() string
}

// Default returns the codec used when none is configured.
func Default() Codec {
	return &JSONCodec{}
}
