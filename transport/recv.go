package transport

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/message"
)

// recvLoop is the only reader of the stream. Frames are decoded and routed one
// at a time in arrival order. A frame that fails to decode is reported and
// skipped; a framing or read failure ends the channel.
func (c *Channel) recvLoop() {
	for {
		body, err := c.framer.ReadFrame(c.reader)
		if err != nil {
			if c.isClosed() {
				return
			}
			c.shutdown(errors.WrapWith(err, message.ErrTransport))
			return
		}

		msg := &message.Message{}
		if err := c.codec.Decode(body, msg); err != nil {
			c.diagnose(Diagnostic{Kind: DiagnosticDecode, Err: err, Frame: body})
			continue
		}
		c.route(msg)
	}
}

func (c *Channel) route(msg *message.Message) {
	switch msg.Kind() {
	case message.KindResponse:
		c.deliver(msg)
	case message.KindNotification:
		if msg.Method == message.MethodCancelRequest {
			c.cancelServing(msg.Params)
		}
		c.inbox.push(msg)
	case message.KindRequest:
		// Tracked before serving starts so a $/cancelRequest read right
		// after the request still finds it.
		ctx, cancel := context.WithCancel(c.ctx)
		c.mu.Lock()
		c.serving[msg.ID.String()] = cancel
		c.mu.Unlock()
		go c.serve(ctx, cancel, msg)
	}
}

// deliver resolves the pending call a response belongs to.
func (c *Channel) deliver(msg *message.Message) {
	id, numeric := msg.ID.Number()

	c.mu.Lock()
	call, ok := c.pending[id]
	if ok && numeric {
		delete(c.pending, id)
	}
	_, late := c.abandoned[id]
	if late && numeric && !ok {
		delete(c.abandoned, id)
	}
	c.mu.Unlock()

	switch {
	case ok && numeric:
		if msg.Error != nil {
			call.finish(nil, msg.Error)
		} else {
			call.finish(msg.Result, nil)
		}
	case late && numeric:
		c.logger.Debug().Int64("id", id).Msg("dropped late response for abandoned request")
	default:
		c.diagnose(Diagnostic{
			Kind: DiagnosticUnknownResponse,
			ID:   msg.ID.String(),
			Err:  errors.New("response does not match any pending request"),
		})
	}
}

// serve answers a request issued by the peer.
func (c *Channel) serve(ctx context.Context, cancel context.CancelFunc, msg *message.Message) {
	key := msg.ID.String()
	defer func() {
		c.mu.Lock()
		delete(c.serving, key)
		c.mu.Unlock()
		cancel()
	}()

	result, rerr := c.handlers.Serve(ctx, msg.Method, msg.Params)
	reply := message.NewResponse(*msg.ID, result)
	if rerr != nil {
		reply = message.NewErrorResponse(*msg.ID, rerr)
		c.logger.Debug().Str("method", msg.Method).Str("id", key).Int("code", rerr.Code).Msg("request failed")
	}
	if err := c.write(reply); err != nil {
		c.diagnose(Diagnostic{Kind: DiagnosticReply, Method: msg.Method, ID: key, Err: err})
	}
}

// cancelServing honours $/cancelRequest for a request the peer sent us.
func (c *Channel) cancelServing(params json.RawMessage) {
	var p message.CancelParams
	if err := json.Unmarshal(params, &p); err != nil {
		c.diagnose(Diagnostic{Kind: DiagnosticDecode, Method: message.MethodCancelRequest, Err: errors.WrapWith(err, message.ErrDecode)})
		return
	}
	c.mu.Lock()
	cancel, ok := c.serving[p.ID.String()]
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

// dispatchLoop delivers notifications one at a time in arrival order. It runs
// apart from recvLoop so a handler may issue requests of its own.
func (c *Channel) dispatchLoop() {
	for {
		batch := c.inbox.drain()
		for _, msg := range batch {
			c.dispatch(msg)
		}
		if len(batch) > 0 {
			continue
		}
		select {
		case <-c.inbox.signal:
		case <-c.done:
			for _, msg := range c.inbox.drain() {
				c.dispatch(msg)
			}
			return
		}
	}
}

func (c *Channel) dispatch(msg *message.Message) {
	if c.handlers.Subscribers(msg.Method) == 0 {
		c.logger.Debug().Str("method", msg.Method).Msg("no handler for notification")
		return
	}
	for _, failure := range c.handlers.Notify(c.ctx, msg.Method, msg.Params) {
		c.diagnose(Diagnostic{Kind: DiagnosticHandler, Method: failure.Method, Err: failure.Err})
	}
}

// inbox is an unbounded FIFO between the reader and the dispatcher, so a slow
// handler never stalls response delivery.
type inbox struct {
	mu     sync.Mutex
	items  []*message.Message
	signal chan struct{}
}

func newInbox() *inbox {
	return &inbox{signal: make(chan struct{}, 1)}
}

func (b *inbox) push(msg *message.Message) {
	b.mu.Lock()
	b.items = append(b.items, msg)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

func (b *inbox) drain() []*message.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.items
	b.items = nil
	return items
}
