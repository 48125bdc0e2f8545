package transport

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/message"
)

// Stream joins a reader and a writer into the duplex stream a Channel needs.
type Stream struct {
	io.Reader
	io.Writer
	closers []io.Closer
	once    sync.Once
	err     error
}

// NewStream closes every closer, in order, when the stream is closed.
func NewStream(r io.Reader, w io.Writer, closers ...io.Closer) *Stream {
	return &Stream{Reader: r, Writer: w, closers: closers}
}

func (s *Stream) Close() error {
	s.once.Do(func() {
		var errs []error
		for _, c := range s.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.err = errors.Join(errs...)
	})
	return s.err
}

// Dial connects to a backend listening on network/addr, e.g. "tcp" or "unix".
func Dial(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, errors.WrapWith(err, message.ErrTransport)
	}
	return conn, nil
}

// Process is a backend running as a child process and spoken to over its
// stdin and stdout. Stderr lines are forwarded to the logger.
//
// Stdout belongs to Process, not exec.Cmd, and stays open after the child is
// reaped: output written before exit is still read, followed by EOF.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
	waited chan struct{}
	err    error
	once   sync.Once
}

// Spawn starts name with args. The process is killed when ctx ends.
func Spawn(ctx context.Context, logger zerolog.Logger, name string, args ...string) (*Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Errorf("stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return nil, errors.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		closeAll(stdoutR, stdoutW)
		return nil, errors.Errorf("stderr pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdin.Close()
		closeAll(stdoutR, stdoutW, stderrR, stderrW)
		return nil, errors.WrapWith(err, message.ErrTransport)
	}
	// The child holds its own copies of the write ends.
	closeAll(stdoutW, stderrW)

	p := &Process{cmd: cmd, stdin: stdin, stdout: stdoutR, waited: make(chan struct{})}
	log := logger.With().Str("backend", name).Int("pid", cmd.Process.Pid).Logger()

	go func() {
		defer stderrR.Close()
		scanner := bufio.NewScanner(stderrR)
		for scanner.Scan() {
			log.Debug().Msg(scanner.Text())
		}
	}()
	go func() {
		p.err = cmd.Wait()
		close(p.waited)
		log.Debug().AnErr("exit", p.err).Msg("backend exited")
	}()
	return p, nil
}

func (p *Process) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p *Process) Write(b []byte) (int, error) { return p.stdin.Write(b) }

// Exited is closed once the process has been reaped.
func (p *Process) Exited() <-chan struct{} { return p.waited }

// ExitErr is the result of waiting for the process. It is only meaningful
// after Exited is closed.
func (p *Process) ExitErr() error {
	select {
	case <-p.waited:
		return p.err
	default:
		return nil
	}
}

// Close closes stdin, which a well-behaved backend treats as exit, and kills
// the process if it is still running after a grace period. Stdout is closed
// last.
func (p *Process) Close() error {
	p.once.Do(func() {
		_ = p.stdin.Close()
		select {
		case <-p.waited:
		case <-time.After(2 * time.Second):
			_ = p.cmd.Process.Kill()
			<-p.waited
		}
		_ = p.stdout.Close()
	})
	return nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
