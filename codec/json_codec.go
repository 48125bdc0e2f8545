package codec

import (
	"github.com/goccy/go-json"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/message"
)

// JSONCodec encodes envelopes as JSON-RPC 2.0 text.
type JSONCodec struct{}

func (c *JSONCodec) Encode(msg *message.Message) ([]byte, error) {
	if msg.JSONRPC == "" {
		msg.JSONRPC = message.Version
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Errorf("encoding %s envelope: %w", msg.Kind(), err)
	}
	return data, nil
}

func (c *JSONCodec) Decode(data []byte, msg *message.Message) error {
	if err := json.Unmarshal(data, msg); err != nil {
		return errors.WrapWith(err, message.ErrDecode)
	}
	if msg.JSONRPC != message.Version {
		return errors.WithDetails(message.ErrDecode, "reason", "unsupported jsonrpc version", "version", msg.JSONRPC)
	}
	if msg.Kind() == message.KindInvalid {
		return errors.WithDetails(message.ErrDecode, "reason", "envelope has neither id nor method")
	}
	if msg.Kind() == message.KindResponse && msg.Error != nil && len(msg.Result) > 0 && string(msg.Result) != "null" {
		return errors.WithDetails(message.ErrDecode, "reason", "response carries both result and error")
	}
	return nil
}

func (c *JSONCodec) Name() string {
	return "json"
}
