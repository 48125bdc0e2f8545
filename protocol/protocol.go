// Package protocol frames envelope bodies on a byte stream.
//
// Two framings are supported:
//
//	header: Content-Length: 52\r\n\r\n{"jsonrpc":"2.0",...}   (LSP base protocol)
//	line:   {"jsonrpc":"2.0",...}\n                       (newline-delimited JSON)
//
// The reader side is used by exactly one goroutine. Writers must hold the
// channel's write lock: WriteFrame issues a single Write per frame, so frames
// from different callers never interleave.
package protocol

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// DefaultMaxFrameSize bounds a single inbound frame.
const DefaultMaxFrameSize = 64 << 20

var (
	ErrMalformedHeader = errors.Base("malformed frame header")
	ErrFrameTooLarge   = errors.Base("frame exceeds size limit")
)

// Framer reads and writes whole frames.
type Framer interface {
	ReadFrame(r *bufio.Reader) ([]byte, error)
	WriteFrame(w io.Writer, body []byte) error
	Name() string
}

// ByName returns the framer for a configuration value.
func ByName(name string) (Framer, error) {
	switch strings.ToLower(name) {
	case "", "header", "content-length":
		return &HeaderFramer{}, nil
	case "line", "newline":
		return &LineFramer{}, nil
	default:
		return nil, errors.Errorf("unknown framing %q", name)
	}
}

// NewFramer is ByName with a frame size bound. Zero keeps the default.
func NewFramer(name string, maxFrameSize int) (Framer, error) {
	f, err := ByName(name)
	if err != nil {
		return nil, err
	}
	switch f := f.(type) {
	case *HeaderFramer:
		f.MaxFrameSize = maxFrameSize
	case *LineFramer:
		f.MaxFrameSize = maxFrameSize
	}
	return f, nil
}

// HeaderFramer implements the LSP base protocol framing.
type HeaderFramer struct {
	MaxFrameSize int
}

func (f *HeaderFramer) Name() string { return "header" }

func (f *HeaderFramer) ReadFrame(r *bufio.Reader) ([]byte, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" && length < 0 {
				return nil, io.EOF
			}
			return nil, errors.Errorf("reading header: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if length < 0 {
				// Stray blank line between frames.
				continue
			}
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errors.WithDetails(ErrMalformedHeader, "line", line)
		}
		if !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return nil, errors.WithDetails(ErrMalformedHeader, "line", line)
		}
		length = n
	}

	if length > f.maxFrameSize() {
		return nil, errors.WithDetails(ErrFrameTooLarge, "length", length, "limit", f.maxFrameSize())
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Errorf("reading %d byte body: %w", length, err)
	}
	return body, nil
}

func (f *HeaderFramer) WriteFrame(w io.Writer, body []byte) error {
	var buf bytes.Buffer
	buf.Grow(len(body) + 32)
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(body))
	buf.Write(body)
	_, err := w.Write(buf.Bytes())
	return err
}

func (f *HeaderFramer) maxFrameSize() int {
	if f.MaxFrameSize > 0 {
		return f.MaxFrameSize
	}
	return DefaultMaxFrameSize
}

// LineFramer writes one compact JSON document per line. Bodies must not
// contain raw newlines, which holds for any compact JSON encoding.
type LineFramer struct {
	MaxFrameSize int
}

func (f *LineFramer) Name() string { return "line" }

func (f *LineFramer) ReadFrame(r *bufio.Reader) ([]byte, error) {
	limit := f.MaxFrameSize
	if limit <= 0 {
		limit = DefaultMaxFrameSize
	}
	for {
		var line []byte
		for {
			chunk, err := r.ReadSlice('\n')
			line = append(line, chunk...)
			if len(line) > limit+2 {
				return nil, errors.WithDetails(ErrFrameTooLarge, "limit", limit)
			}
			if err == bufio.ErrBufferFull {
				continue
			}
			if err != nil {
				if err == io.EOF && len(bytes.TrimSpace(line)) == 0 {
					return nil, io.EOF
				}
				return nil, errors.Errorf("reading line: %w", err)
			}
			break
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}

func (f *LineFramer) WriteFrame(w io.Writer, body []byte) error {
	if bytes.IndexByte(body, '\n') >= 0 {
		return errors.New("line framing cannot carry a body containing a newline")
	}
	frame := make([]byte, 0, len(body)+1)
	frame = append(frame, body...)
	frame = append(frame, '\n')
	_, err := w.Write(frame)
	return err
}
