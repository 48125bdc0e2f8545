// Package message defines the JSON-RPC 2.0 envelopes exchanged between the
// editor-side client and the language backend.
//
// Message is the single wire shape for every envelope. The codec layer turns it
// into bytes and the protocol layer frames those bytes on the stream.
//
//   - Request:      ID and Method set, Params optional.
//   - Response:     ID set, exactly one of Result or Error.
//   - Notification: Method set, no ID.
package message

import (
	"github.com/goccy/go-json"
)

// Version is the only JSON-RPC version spoken on the wire.
const Version = "2.0"

// Built-in LSP methods the channel itself emits or understands.
const (
	MethodCancelRequest = "$/cancelRequest"
	MethodProgress      = "$/progress"
)

// Kind classifies a decoded envelope.
type Kind int

const (
	KindInvalid Kind = iota
	KindRequest
	KindResponse
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindNotification:
		return "notification"
	default:
		return "invalid"
	}
}

// Message carries one request, response or notification.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// Kind reports what the envelope is, based on the presence of id and method.
func (m *Message) Kind() Kind {
	switch {
	case m.Method != "" && m.ID != nil:
		return KindRequest
	case m.Method != "":
		return KindNotification
	case m.ID != nil:
		return KindResponse
	default:
		return KindInvalid
	}
}

// NewRequest builds a request envelope. params must already be encoded.
func NewRequest(id ID, method string, params json.RawMessage) *Message {
	return &Message{JSONRPC: Version, ID: &id, Method: method, Params: params}
}

// NewNotification builds a notification envelope.
func NewNotification(method string, params json.RawMessage) *Message {
	return &Message{JSONRPC: Version, Method: method, Params: params}
}

// NewResponse builds a successful response. A nil result is sent as null so the
// peer still sees a result member.
func NewResponse(id ID, result json.RawMessage) *Message {
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	return &Message{JSONRPC: Version, ID: &id, Result: result}
}

// NewErrorResponse builds a failed response.
func NewErrorResponse(id ID, rerr *ResponseError) *Message {
	return &Message{JSONRPC: Version, ID: &id, Error: rerr}
}

// CancelParams is the payload of $/cancelRequest.
type CancelParams struct {
	ID ID `json:"id"`
}

// ProgressParams is the payload of $/progress.
type ProgressParams struct {
	Token json.RawMessage `json:"token"`
	Value json.RawMessage `json:"value"`
}
