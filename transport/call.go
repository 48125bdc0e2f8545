package transport

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/message"
)

// Call is a request waiting for its response. It resolves exactly once.
type Call struct {
	ch     *Channel
	id     int64
	method string

	once   sync.Once
	done   chan struct{}
	result json.RawMessage
	err    error

	mu   sync.Mutex
	stop func() bool
}

func newCall(ch *Channel, id int64, method string) *Call {
	return &Call{ch: ch, id: id, method: method, done: make(chan struct{})}
}

// ID is the correlation id written on the wire.
func (call *Call) ID() int64 { return call.id }

func (call *Call) Method() string { return call.method }

// Done is closed when the call has resolved.
func (call *Call) Done() <-chan struct{} { return call.done }

// Result returns the outcome. It must only be called after Done is closed.
func (call *Call) Result() (json.RawMessage, error) {
	return call.result, call.err
}

// Wait blocks until the call resolves or ctx ends. When ctx ends first the
// call is abandoned and resolves with message.ErrTimeout or
// message.ErrCancelled, unless its response won the race.
func (call *Call) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-call.done:
	case <-ctx.Done():
		call.ch.abandon(call.id, contextError(ctx, call.method, call.id), call.ch.cancelNotify)
		<-call.done
	}
	return call.result, call.err
}

// Cancel is shorthand for Channel.Cancel on this call's id.
func (call *Call) Cancel() bool {
	return call.ch.Cancel(call.id)
}

// finish resolves the call. Only the first outcome counts.
func (call *Call) finish(result json.RawMessage, err error) bool {
	first := false
	call.once.Do(func() {
		first = true
		call.result, call.err = result, err
		close(call.done)
	})
	if first {
		call.mu.Lock()
		stop := call.stop
		call.mu.Unlock()
		if stop != nil {
			stop()
		}
	}
	return first
}

// watch abandons the call when ctx ends before a response arrives.
func (call *Call) watch(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() {
		call.ch.abandon(call.id, contextError(ctx, call.method, call.id), call.ch.cancelNotify)
	})

	call.mu.Lock()
	call.stop = stop
	call.mu.Unlock()

	select {
	case <-call.done:
		stop()
	default:
	}
}

func contextError(ctx context.Context, method string, id int64) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.WithDetails(message.ErrTimeout, "method", method, "id", id)
	}
	return errors.WithDetails(message.ErrCancelled, "method", method, "id", id)
}
