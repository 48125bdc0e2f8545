// Package transport implements the typed RPC channel: one duplex stream shared
// by every request, response and notification between the client and the
// language backend.
//
// Each request gets a fresh correlation id and a pending slot; a single reader
// goroutine routes responses back to their slot and hands notifications to an
// ordered dispatch goroutine.
//
//	goroutine-1 ──SendRequest(id=1)──┐
//	goroutine-2 ──SendRequest(id=2)──┼──→ one stream ──→ backend
//	goroutine-3 ──Notify─────────────┘
//
//	recvLoop: ←── response(id=2) → pending[2] → goroutine-2 wakes up
//	          ←── notification   → inbox → dispatchLoop → handlers in order
//	          ←── request        → go serve → reply under the write lock
package transport

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/codec"
	"java-lsp-rpc/dispatch"
	"java-lsp-rpc/message"
	"java-lsp-rpc/protocol"
)

// maxAbandoned bounds how many cancelled ids are remembered so their late
// responses can be dropped quietly.
const maxAbandoned = 4096

// Channel multiplexes calls over one stream. It is safe for concurrent use.
type Channel struct {
	stream io.ReadWriteCloser
	reader *bufio.Reader
	framer protocol.Framer
	codec  codec.Codec
	logger zerolog.Logger

	handlers     *dispatch.Registry
	onDiagnostic func(Diagnostic)
	cancelNotify bool

	mu             sync.Mutex // guards everything below up to sending
	seq            int64
	pending        map[int64]*Call
	abandoned      map[int64]struct{}
	abandonedOrder []int64
	serving        map[string]context.CancelFunc
	closed         bool
	closeErr       error

	sending sync.Mutex // one frame at a time on the stream

	inbox     *inbox
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	streamErr error
}

// New wraps stream and starts the reader and dispatch goroutines. The channel
// owns the stream from now on and closes it on shutdown.
func New(stream io.ReadWriteCloser, opts ...Option) *Channel {
	c := &Channel{
		stream:       stream,
		framer:       &protocol.HeaderFramer{},
		codec:        codec.Default(),
		logger:       zerolog.Nop(),
		cancelNotify: true,
		pending:      make(map[int64]*Call),
		abandoned:    make(map[int64]struct{}),
		serving:      make(map[string]context.CancelFunc),
		inbox:        newInbox(),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.handlers == nil {
		c.handlers = dispatch.New()
	}
	c.reader = bufio.NewReader(stream)
	c.ctx, c.cancel = context.WithCancel(c.logger.WithContext(context.Background()))

	go c.recvLoop()
	go c.dispatchLoop()
	return c
}

// SendRequest writes a request and returns its pending call. The call fails
// with message.ErrTimeout when ctx's deadline passes and with
// message.ErrCancelled when ctx is cancelled, even if nobody waits on it.
//
// A write failure is returned here as message.ErrTransport and terminates the
// channel; a closed channel fails immediately with message.ErrChannelClosed.
func (c *Channel) SendRequest(ctx context.Context, method string, params any) (*Call, error) {
	raw, err := encodeParams(params)
	if err != nil {
		return nil, errors.Errorf("encoding params for %s: %w", method, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, closedError(c.closeErr)
	}
	c.seq++
	id := c.seq
	call := newCall(c, id, method)
	// Register before writing so a fast response always finds its slot.
	c.pending[id] = call
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		c.abandon(id, contextError(ctx, method, id), false)
		return call, nil
	}

	if err := c.write(message.NewRequest(message.NewNumberID(id), method, raw)); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		call.finish(nil, err)
		return nil, err
	}
	c.logger.Debug().Int64("id", id).Str("method", method).Msg("request sent")

	if ctx.Done() != nil {
		call.watch(ctx)
	}
	return call, nil
}

// Call sends a request, waits for it and decodes the result into result,
// which may be nil to discard it.
func (c *Channel) Call(ctx context.Context, method string, params, result any) error {
	call, err := c.SendRequest(ctx, method, params)
	if err != nil {
		return err
	}
	raw, err := call.Wait(ctx)
	if err != nil {
		return err
	}
	if result == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return errors.WrapWith(err, message.ErrDecode)
	}
	return nil
}

// Notify sends a notification. There is no reply, so a write failure is
// returned directly.
func (c *Channel) Notify(ctx context.Context, method string, params any) error {
	raw, err := encodeParams(params)
	if err != nil {
		return errors.Errorf("encoding params for %s: %w", method, err)
	}
	if err := ctx.Err(); err != nil {
		return errors.WithDetails(message.ErrCancelled, "method", method)
	}
	if err := c.Err(); err != nil {
		return err
	}
	if err := c.write(message.NewNotification(method, raw)); err != nil {
		return err
	}
	c.logger.Debug().Str("method", method).Msg("notification sent")
	return nil
}

// OnNotification subscribes handler to an inbound notification method.
// Handlers for the same method run in registration order.
func (c *Channel) OnNotification(method string, handler dispatch.NotificationHandler) *dispatch.Registration {
	return c.handlers.Subscribe(method, handler)
}

// HandleRequest answers inbound requests for method. Requests without a
// handler are answered with MethodNotFound.
func (c *Channel) HandleRequest(method string, handler dispatch.RequestHandler) {
	c.handlers.Handle(method, handler)
}

// Cancel withdraws interest in a pending request. The call resolves with
// message.ErrCancelled and a late response is dropped. It reports whether the
// id was still pending.
func (c *Channel) Cancel(id int64) bool {
	c.mu.Lock()
	call, ok := c.pending[id]
	c.mu.Unlock()
	if !ok {
		return false
	}
	return c.abandon(id, errors.WithDetails(message.ErrCancelled, "method", call.method, "id", id), c.cancelNotify)
}

// Done is closed once the channel has shut down.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Err returns why the channel shut down, or nil while it is open.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		return nil
	}
	return closedError(c.closeErr)
}

// Close shuts the channel down and fails every pending call with
// message.ErrChannelClosed.
func (c *Channel) Close() error {
	c.shutdown(nil)
	return c.streamErr
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// abandon removes a pending call and resolves it with err. Its id is kept so
// the late response is recognised and dropped without a diagnostic.
func (c *Channel) abandon(id int64, err error, notifyPeer bool) bool {
	c.mu.Lock()
	call, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
		c.rememberAbandoned(id)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}

	call.finish(nil, err)
	c.logger.Debug().Int64("id", id).Str("method", call.method).Err(err).Msg("request abandoned")

	if notifyPeer && !c.isClosed() {
		if werr := c.write(message.NewNotification(message.MethodCancelRequest, mustEncode(message.CancelParams{ID: message.NewNumberID(id)}))); werr != nil {
			c.diagnose(Diagnostic{Kind: DiagnosticCancelNotify, Method: call.method, ID: message.NewNumberID(id).String(), Err: werr})
		}
	}
	return true
}

func (c *Channel) rememberAbandoned(id int64) {
	c.abandoned[id] = struct{}{}
	c.abandonedOrder = append(c.abandonedOrder, id)
	if len(c.abandonedOrder) > maxAbandoned {
		oldest := c.abandonedOrder[0]
		c.abandonedOrder = c.abandonedOrder[1:]
		delete(c.abandoned, oldest)
	}
}

// write encodes msg and puts it on the stream as one frame.
func (c *Channel) write(msg *message.Message) error {
	body, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}

	c.sending.Lock()
	err = c.framer.WriteFrame(c.stream, body)
	c.sending.Unlock()
	if err == nil {
		return nil
	}

	if err := c.Err(); err != nil {
		return err
	}
	terr := errors.WrapWith(err, message.ErrTransport)
	c.logger.Error().Err(err).Str("method", msg.Method).Msg("write failed, closing channel")
	c.shutdown(terr)
	return terr
}

// shutdown is idempotent. cause is nil for a local Close.
func (c *Channel) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.closeErr = cause
		pending := c.pending
		c.pending = make(map[int64]*Call)
		c.mu.Unlock()

		c.cancel()
		close(c.done)
		c.streamErr = c.stream.Close()

		failure := closedError(cause)
		for _, call := range pending {
			call.finish(nil, failure)
		}
		if cause != nil {
			c.logger.Error().Err(cause).Int("pending", len(pending)).Msg("channel terminated")
		} else {
			c.logger.Debug().Int("pending", len(pending)).Msg("channel closed")
		}
	})
}

func closedError(cause error) error {
	if cause == nil {
		return message.ErrChannelClosed
	}
	return errors.WrapWith(cause, message.ErrChannelClosed)
}

func encodeParams(params any) (json.RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	default:
		return json.Marshal(params)
	}
}

func mustEncode(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
