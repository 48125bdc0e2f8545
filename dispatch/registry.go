// Package dispatch routes inbound notifications and peer requests to the
// callbacks registered for their method.
//
// Notification handlers form an ordered list per method: insertion order is
// invocation order and every handler sees every notification. Request handlers
// are unique per method because a request has exactly one reply.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/goccy/go-json"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/message"
)

// NotificationHandler consumes one notification's params.
type NotificationHandler func(ctx context.Context, params json.RawMessage) error

// RequestHandler answers one peer request. Returning a *message.ResponseError
// controls the error code sent back; any other error becomes InternalError.
type RequestHandler func(ctx context.Context, params json.RawMessage) (any, error)

// Failure describes a notification handler that returned an error or panicked.
type Failure struct {
	Method string
	Index  int
	Err    error
}

type entry struct {
	id      uint64
	handler NotificationHandler
}

// Registry holds both handler tables. The zero value is not usable; call New.
type Registry struct {
	mu            sync.RWMutex
	nextID        uint64
	notifications map[string][]entry
	requests      map[string]RequestHandler
}

func New() *Registry {
	return &Registry{
		notifications: make(map[string][]entry),
		requests:      make(map[string]RequestHandler),
	}
}

// Registration removes its handler when Unregister is called.
type Registration struct {
	once   sync.Once
	reg    *Registry
	method string
	id     uint64
}

// Unregister removes the handler. Calling it more than once is a no-op.
func (r *Registration) Unregister() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		r.reg.remove(r.method, r.id)
	})
}

// Method returns the method the registration subscribed to.
func (r *Registration) Method() string {
	return r.method
}

// Subscribe appends handler to the method's list.
func (reg *Registry) Subscribe(method string, handler NotificationHandler) *Registration {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.nextID++
	id := reg.nextID
	reg.notifications[method] = append(reg.notifications[method], entry{id: id, handler: handler})
	return &Registration{reg: reg, method: method, id: id}
}

func (reg *Registry) remove(method string, id uint64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	entries := reg.notifications[method]
	for i, e := range entries {
		if e.id != id {
			continue
		}
		// Copy so snapshots handed to in-flight dispatches stay intact.
		next := make([]entry, 0, len(entries)-1)
		next = append(next, entries[:i]...)
		next = append(next, entries[i+1:]...)
		if len(next) == 0 {
			delete(reg.notifications, method)
		} else {
			reg.notifications[method] = next
		}
		return
	}
}

// Subscribers reports how many handlers are registered for method.
func (reg *Registry) Subscribers(method string) int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.notifications[method])
}

// Notify runs every handler registered for method, in order. A failing or
// panicking handler does not stop the others; failures are returned.
func (reg *Registry) Notify(ctx context.Context, method string, params json.RawMessage) []Failure {
	reg.mu.RLock()
	snapshot := reg.notifications[method]
	reg.mu.RUnlock()

	var failures []Failure
	for i, e := range snapshot {
		if err := invokeNotification(ctx, e.handler, params); err != nil {
			failures = append(failures, Failure{Method: method, Index: i, Err: err})
		}
	}
	return failures
}

func invokeNotification(ctx context.Context, handler NotificationHandler, params json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WithDetails(errors.Errorf("handler panic: %v", r), "stack", string(debug.Stack()))
		}
	}()
	return handler(ctx, params)
}

// Handle installs the handler for a peer request method, replacing any previous one.
// A nil handler removes it.
func (reg *Registry) Handle(method string, handler RequestHandler) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if handler == nil {
		delete(reg.requests, method)
		return
	}
	reg.requests[method] = handler
}

// Serve answers a peer request. The result is already encoded so the caller
// only has to wrap it in an envelope.
func (reg *Registry) Serve(ctx context.Context, method string, params json.RawMessage) (result json.RawMessage, rerr *message.ResponseError) {
	reg.mu.RLock()
	handler, ok := reg.requests[method]
	reg.mu.RUnlock()
	if !ok {
		return nil, message.NewResponseError(message.MethodNotFoundCode, "method not found: %s", method)
	}

	defer func() {
		if r := recover(); r != nil {
			result, rerr = nil, message.NewResponseError(message.InternalErrorCode, "%s", fmt.Sprintf("handler panic: %v", r))
		}
	}()

	value, err := handler(ctx, params)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return nil, message.NewResponseError(message.RequestCancelledCode, "request cancelled: %s", method)
		}
		return nil, message.AsResponseError(err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, message.NewResponseError(message.InternalErrorCode, "encoding result: %v", err)
	}
	return data, nil
}
