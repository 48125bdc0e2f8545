package message

import (
	"fmt"

	"github.com/goccy/go-json"
	"gitlab.com/tozd/go/errors"
)

// Error codes defined by JSON-RPC 2.0 and the language server protocol.
const (
	ParseErrorCode           = -32700
	InvalidRequestCode       = -32600
	MethodNotFoundCode       = -32601
	InvalidParamsCode        = -32602
	InternalErrorCode        = -32603
	ServerNotInitializedCode = -32002
	UnknownErrorCode         = -32001
	RequestFailedCode        = -32803
	ServerCancelledCode      = -32802
	ContentModifiedCode      = -32801
	RequestCancelledCode     = -32800
)

// Failure classes surfaced by the channel. Every failed call matches exactly
// one of these with errors.Is, or carries a *ResponseError.
var (
	ErrTransport     = errors.Base("transport error")
	ErrDecode        = errors.Base("decode error")
	ErrTimeout       = errors.Base("request timed out")
	ErrCancelled     = errors.Base("request cancelled")
	ErrChannelClosed = errors.Base("channel closed")
)

// ResponseError is the error object of a response envelope. Returned to a
// caller it is the remote error reported by the peer.
type ResponseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
}

// NewResponseError builds an error object without data.
func NewResponseError(code int, format string, args ...any) *ResponseError {
	return &ResponseError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsResponseError converts any handler error into a wire error object.
// A *ResponseError anywhere in the chain is kept as is.
func AsResponseError(err error) *ResponseError {
	var rerr *ResponseError
	if errors.As(err, &rerr) {
		return rerr
	}
	return &ResponseError{Code: InternalErrorCode, Message: err.Error()}
}

// IsRemoteCode reports whether err is a remote error with the given code.
func IsRemoteCode(err error, code int) bool {
	var rerr *ResponseError
	return errors.As(err, &rerr) && rerr.Code == code
}
