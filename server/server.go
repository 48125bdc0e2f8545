// Package server implements a scripted JSON-RPC peer that stands in for the
// language backend. It speaks the same framing and codec as the channel and is
// used to drive channels in tests.
//
// Request processing mirrors a real backend:
//
//	read loop (single goroutine, arrival order)
//	  → request with handler:    go handleRequest → reply under writeMu
//	  → request without handler: queued on Requests() for the test to answer
//	  → notification:            queued on Notifications()
//	  → response:                queued on Responses()
package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/codec"
	"java-lsp-rpc/message"
	"java-lsp-rpc/protocol"
)

const queueSize = 1024

// HandlerFunc answers one request. A *message.ResponseError selects the error code.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

type Option func(*Server)

func WithFramer(f protocol.Framer) Option {
	return func(s *Server) { s.framer = f }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server is one peer bound to one stream.
type Server struct {
	conn   io.ReadWriteCloser
	reader *bufio.Reader
	framer protocol.Framer
	codec  codec.Codec
	logger zerolog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	writeMu sync.Mutex // shared by every reply so frames never interleave
	wg      sync.WaitGroup
	seq     atomic.Int64

	requests      chan *message.Message
	notifications chan *message.Message
	responses     chan *message.Message
	done          chan struct{}
	closeOnce     sync.Once
}

// New binds a peer to conn. Call Serve to start reading.
func New(conn io.ReadWriteCloser, opts ...Option) *Server {
	s := &Server{
		conn:          conn,
		reader:        bufio.NewReader(conn),
		framer:        &protocol.HeaderFramer{},
		codec:         codec.Default(),
		logger:        zerolog.Nop(),
		handlers:      make(map[string]HandlerFunc),
		requests:      make(chan *message.Message, queueSize),
		notifications: make(chan *message.Message, queueSize),
		responses:     make(chan *message.Message, queueSize),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs Serve in the background and returns the peer for chaining.
func (s *Server) Start(ctx context.Context) *Server {
	go func() {
		if err := s.Serve(ctx); err != nil {
			s.logger.Debug().Err(err).Msg("peer stopped")
		}
	}()
	return s
}

// Handle registers an automatic answer for method.
func (s *Server) Handle(method string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Serve reads frames until the stream fails or the peer is closed.
func (s *Server) Serve(ctx context.Context) error {
	for {
		body, err := s.framer.ReadFrame(s.reader)
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return errors.Errorf("reading frame: %w", err)
		}

		msg := &message.Message{}
		if err := s.codec.Decode(body, msg); err != nil {
			s.logger.Warn().Err(err).Bytes("frame", body).Msg("peer dropped malformed frame")
			continue
		}

		switch msg.Kind() {
		case message.KindRequest:
			s.mu.RLock()
			h, ok := s.handlers[msg.Method]
			s.mu.RUnlock()
			if ok {
				s.wg.Add(1)
				go s.handleRequest(ctx, h, msg)
				continue
			}
			s.enqueue(s.requests, msg)
		case message.KindNotification:
			s.enqueue(s.notifications, msg)
		case message.KindResponse:
			s.enqueue(s.responses, msg)
		}
	}
}

func (s *Server) enqueue(q chan *message.Message, msg *message.Message) {
	select {
	case q <- msg:
	case <-s.done:
	}
}

func (s *Server) handleRequest(ctx context.Context, h HandlerFunc, req *message.Message) {
	defer s.wg.Done()

	result, err := h(ctx, req.Params)
	if err != nil {
		if werr := s.ReplyError(*req.ID, message.AsResponseError(err)); werr != nil {
			s.logger.Debug().Err(werr).Str("method", req.Method).Msg("failed to write error reply")
		}
		return
	}
	if werr := s.Reply(*req.ID, result); werr != nil {
		s.logger.Debug().Err(werr).Str("method", req.Method).Msg("failed to write reply")
	}
}

// Requests yields requests that had no registered handler, in arrival order.
func (s *Server) Requests() <-chan *message.Message { return s.requests }

// Notifications yields notifications sent by the client, in arrival order.
func (s *Server) Notifications() <-chan *message.Message { return s.notifications }

// Responses yields replies to requests the peer issued with Request.
func (s *Server) Responses() <-chan *message.Message { return s.responses }

// Reply answers a request with result.
func (s *Server) Reply(id message.ID, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Errorf("encoding result: %w", err)
	}
	return s.Send(message.NewResponse(id, raw))
}

// ReplyError answers a request with an error object.
func (s *Server) ReplyError(id message.ID, rerr *message.ResponseError) error {
	return s.Send(message.NewErrorResponse(id, rerr))
}

// Push sends a notification to the client.
func (s *Server) Push(method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return errors.Errorf("encoding params: %w", err)
	}
	return s.Send(message.NewNotification(method, raw))
}

// Request sends a server-to-client request and returns the id it used.
// The reply arrives on Responses.
func (s *Server) Request(method string, params any) (message.ID, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return message.ID{}, errors.Errorf("encoding params: %w", err)
	}
	id := message.NewStringID(fmt.Sprintf("peer-%d", s.seq.Add(1)))
	return id, s.Send(message.NewRequest(id, method, raw))
}

// Send encodes and writes one envelope.
func (s *Server) Send(msg *message.Message) error {
	body, err := s.codec.Encode(msg)
	if err != nil {
		return err
	}
	return s.Inject(body)
}

// Inject writes body as one frame without any validation, so tests can feed
// malformed envelopes to the client.
func (s *Server) Inject(body []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.framer.WriteFrame(s.conn, body)
}

// Close stops the peer and waits up to timeout for in-flight handlers.
func (s *Server) Close(timeout time.Duration) error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return err
	case <-time.After(timeout):
		return errors.New("timeout waiting for in-flight handlers")
	}
}
