package transport

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/message"
	"java-lsp-rpc/protocol"
	"java-lsp-rpc/server"
)

const waitFor = 2 * time.Second

type diagnostics struct {
	mu   sync.Mutex
	seen []Diagnostic
}

func (d *diagnostics) record(diag Diagnostic) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = append(d.seen, diag)
}

func (d *diagnostics) kinds() []DiagnosticKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DiagnosticKind, 0, len(d.seen))
	for _, diag := range d.seen {
		out = append(out, diag.Kind)
	}
	return out
}

func newPair(t *testing.T, opts ...Option) (*Channel, *server.Server, *diagnostics) {
	t.Helper()
	local, remote := net.Pipe()
	diags := &diagnostics{}
	opts = append([]Option{WithDiagnostics(diags.record)}, opts...)
	ch := New(local, opts...)
	peer := server.New(remote).Start(context.Background())
	t.Cleanup(func() {
		ch.Close()
		peer.Close(time.Second)
	})
	return ch, peer, diags
}

func nextRequest(t *testing.T, peer *server.Server) *message.Message {
	t.Helper()
	select {
	case req := <-peer.Requests():
		return req
	case <-time.After(waitFor):
		t.Fatal("peer received no request")
		return nil
	}
}

func nextNotification(t *testing.T, peer *server.Server) *message.Message {
	t.Helper()
	select {
	case n := <-peer.Notifications():
		return n
	case <-time.After(waitFor):
		t.Fatal("peer received no notification")
		return nil
	}
}

func TestBuildWorkspaceResolves(t *testing.T) {
	ch, peer, _ := newPair(t)

	call, err := ch.SendRequest(context.Background(), "java/buildWorkspace", true)
	require.NoError(t, err)

	req := nextRequest(t, peer)
	assert.Equal(t, "java/buildWorkspace", req.Method)
	assert.JSONEq(t, `true`, string(req.Params))
	n, _ := req.ID.Number()
	assert.Equal(t, call.ID(), n)

	require.NoError(t, peer.Reply(*req.ID, 1))

	raw, err := call.Wait(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `1`, string(raw))
}

func TestCallDecodesResult(t *testing.T) {
	ch, peer, _ := newPair(t)
	peer.Handle("java/classFileContents", func(ctx context.Context, params json.RawMessage) (any, error) {
		return "class Foo {}", nil
	})

	var contents string
	err := ch.Call(context.Background(), "java/classFileContents", map[string]string{"uri": "jdt://contents/Foo.class"}, &contents)
	require.NoError(t, err)
	assert.Equal(t, "class Foo {}", contents)
}

func TestRemoteError(t *testing.T) {
	ch, peer, _ := newPair(t)
	peer.Handle("java/organizeImports", func(ctx context.Context, params json.RawMessage) (any, error) {
		return nil, message.NewResponseError(message.InvalidParamsCode, "missing textDocument")
	})

	err := ch.Call(context.Background(), "java/organizeImports", struct{}{}, nil)
	require.Error(t, err)

	var rerr *message.ResponseError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, message.InvalidParamsCode, rerr.Code)
	assert.Equal(t, "missing textDocument", rerr.Message)
}

func TestNotificationHandlerInvokedOnce(t *testing.T) {
	ch, peer, _ := newPair(t)

	got := make(chan json.RawMessage, 4)
	ch.OnNotification("language/status", func(ctx context.Context, params json.RawMessage) error {
		got <- params
		return nil
	})

	require.NoError(t, peer.Push("language/status", map[string]string{"message": "Indexing", "type": "info"}))

	select {
	case params := <-got:
		assert.JSONEq(t, `{"message":"Indexing","type":"info"}`, string(params))
	case <-time.After(waitFor):
		t.Fatal("handler not invoked")
	}
	select {
	case <-got:
		t.Fatal("handler invoked twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandlersFireInRegistrationOrder(t *testing.T) {
	ch, peer, _ := newPair(t)

	var mu sync.Mutex
	var order []string
	done := make(chan struct{}, 8)
	record := func(name string) func(context.Context, json.RawMessage) error {
		return func(ctx context.Context, params json.RawMessage) error {
			mu.Lock()
			order = append(order, name+string(params))
			mu.Unlock()
			done <- struct{}{}
			return nil
		}
	}
	ch.OnNotification("language/eventNotification", record("a"))
	ch.OnNotification("language/eventNotification", record("b"))

	for i := 1; i <= 2; i++ {
		require.NoError(t, peer.Push("language/eventNotification", i))
	}
	for i := 0; i < 4; i++ {
		select {
		case <-done:
		case <-time.After(waitFor):
			t.Fatal("handlers did not run")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a1", "b1", "a2", "b2"}, order)
}

func TestDecodeFailureDoesNotStopDispatch(t *testing.T) {
	ch, peer, diags := newPair(t)

	got := make(chan json.RawMessage, 1)
	ch.OnNotification("$/progress", func(ctx context.Context, params json.RawMessage) error {
		got <- params
		return nil
	})

	require.NoError(t, peer.Inject([]byte(`{"jsonrpc":"2.0","method":`)))
	require.NoError(t, peer.Inject([]byte(`{"jsonrpc":"2.0"}`)))
	require.NoError(t, peer.Push("$/progress", map[string]any{"token": "t1", "value": map[string]string{"kind": "begin"}}))

	select {
	case params := <-got:
		assert.JSONEq(t, `{"token":"t1","value":{"kind":"begin"}}`, string(params))
	case <-time.After(waitFor):
		t.Fatal("well-formed frame after a bad one was not dispatched")
	}
	assert.Equal(t, []DiagnosticKind{DiagnosticDecode, DiagnosticDecode}, diags.kinds())
	assert.NoError(t, ch.Err())
}

func TestCancelDropsLateResponse(t *testing.T) {
	ch, peer, diags := newPair(t)

	call, err := ch.SendRequest(context.Background(), "java/getRefactorEdit", map[string]string{"command": "extractVariable"})
	require.NoError(t, err)
	req := nextRequest(t, peer)

	assert.True(t, call.Cancel())
	assert.False(t, call.Cancel())

	select {
	case <-call.Done():
	default:
		t.Fatal("cancelled call not resolved")
	}
	_, err = call.Result()
	assert.True(t, errors.Is(err, message.ErrCancelled), "got %v", err)

	cancel := nextNotification(t, peer)
	assert.Equal(t, message.MethodCancelRequest, cancel.Method)
	assert.JSONEq(t, `{"id":`+req.ID.String()+`}`, string(cancel.Params))

	require.NoError(t, peer.Reply(*req.ID, map[string]string{"late": "yes"}))

	// A later round trip proves the late frame was consumed and dropped.
	peer.Handle("java/buildWorkspace", func(ctx context.Context, params json.RawMessage) (any, error) { return 1, nil })
	require.NoError(t, ch.Call(context.Background(), "java/buildWorkspace", false, nil))

	_, err = call.Result()
	assert.True(t, errors.Is(err, message.ErrCancelled))
	assert.Empty(t, diags.kinds())
}

func TestContextCancelAndTimeout(t *testing.T) {
	ch, peer, _ := newPair(t, WithCancelNotify(false))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	call, err := ch.SendRequest(ctx, "java/buildProjects", nil)
	require.NoError(t, err)
	nextRequest(t, peer)

	// Nobody waits: the deadline alone resolves the call.
	select {
	case <-call.Done():
	case <-time.After(waitFor):
		t.Fatal("deadline did not resolve the call")
	}
	_, err = call.Result()
	assert.True(t, errors.Is(err, message.ErrTimeout), "got %v", err)

	ctx2, cancel2 := context.WithCancel(context.Background())
	call2, err := ch.SendRequest(ctx2, "java/buildProjects", nil)
	require.NoError(t, err)
	nextRequest(t, peer)
	cancel2()
	_, err = call2.Wait(context.Background())
	assert.True(t, errors.Is(err, message.ErrCancelled), "got %v", err)

	done, cancel3 := context.WithCancel(context.Background())
	cancel3()
	call3, err := ch.SendRequest(done, "java/buildProjects", nil)
	require.NoError(t, err)
	_, err = call3.Result()
	assert.True(t, errors.Is(err, message.ErrCancelled), "got %v", err)
}

func TestClosedWithPendingCalls(t *testing.T) {
	ch, peer, _ := newPair(t)

	first, err := ch.SendRequest(context.Background(), "java/move", nil)
	require.NoError(t, err)
	second, err := ch.SendRequest(context.Background(), "java/getMoveDestinations", nil)
	require.NoError(t, err)
	nextRequest(t, peer)
	nextRequest(t, peer)

	require.NoError(t, ch.Close())

	for _, call := range []*Call{first, second} {
		_, err := call.Wait(context.Background())
		assert.True(t, errors.Is(err, message.ErrChannelClosed), "got %v", err)
	}

	_, err = ch.SendRequest(context.Background(), "java/move", nil)
	assert.True(t, errors.Is(err, message.ErrChannelClosed), "got %v", err)
	assert.True(t, errors.Is(ch.Notify(context.Background(), "java/validateDocument", nil), message.ErrChannelClosed))
	assert.True(t, errors.Is(ch.Err(), message.ErrChannelClosed))
}

func TestPeerHangupFailsPending(t *testing.T) {
	ch, peer, _ := newPair(t)

	call, err := ch.SendRequest(context.Background(), "java/searchSymbols", nil)
	require.NoError(t, err)
	nextRequest(t, peer)

	require.NoError(t, peer.Close(time.Second))

	_, err = call.Wait(context.Background())
	assert.True(t, errors.Is(err, message.ErrChannelClosed), "got %v", err)
	select {
	case <-ch.Done():
	case <-time.After(waitFor):
		t.Fatal("channel did not shut down")
	}
}

type failingWriter struct {
	net.Conn
}

func (f failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestNotifyWriteFailureIsSynchronous(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	ch := New(failingWriter{local})

	err := ch.Notify(context.Background(), "java/projectConfigurationUpdate", map[string]string{"uri": "file:///p/pom.xml"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, message.ErrTransport), "got %v", err)

	_, err = ch.SendRequest(context.Background(), "java/buildWorkspace", true)
	assert.True(t, errors.Is(err, message.ErrChannelClosed), "got %v", err)
}

func TestServesPeerRequests(t *testing.T) {
	ch, peer, _ := newPair(t)

	ch.HandleRequest("workspace/executeClientCommand", func(ctx context.Context, params json.RawMessage) (any, error) {
		var p struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return "ran " + p.Command, nil
	})

	id, err := peer.Request("workspace/executeClientCommand", map[string]any{"command": "java.apply.workspaceEdit"})
	require.NoError(t, err)
	resp := <-peer.Responses()
	assert.Equal(t, id.String(), resp.ID.String())
	assert.JSONEq(t, `"ran java.apply.workspaceEdit"`, string(resp.Result))

	_, err = peer.Request("workspace/unknown", nil)
	require.NoError(t, err)
	resp = <-peer.Responses()
	require.NotNil(t, resp.Error)
	assert.Equal(t, message.MethodNotFoundCode, resp.Error.Code)
}

func TestPeerCancelStopsServedRequest(t *testing.T) {
	ch, peer, _ := newPair(t)

	started := make(chan struct{})
	returned := make(chan error, 1)
	ch.HandleRequest("workspace/executeClientCommand", func(ctx context.Context, params json.RawMessage) (any, error) {
		close(started)
		<-ctx.Done()
		returned <- ctx.Err()
		return nil, ctx.Err()
	})

	id, err := peer.Request("workspace/executeClientCommand", map[string]any{"command": "java.show.references"})
	require.NoError(t, err)
	select {
	case <-started:
	case <-time.After(waitFor):
		t.Fatal("handler never started")
	}

	require.NoError(t, peer.Push(message.MethodCancelRequest, message.CancelParams{ID: id}))
	select {
	case err := <-returned:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(waitFor):
		t.Fatal("handler was not cancelled")
	}

	select {
	case resp := <-peer.Responses():
		assert.Equal(t, id.String(), resp.ID.String())
		require.NotNil(t, resp.Error)
		assert.Equal(t, message.RequestCancelledCode, resp.Error.Code)
	case <-time.After(waitFor):
		t.Fatal("no reply written for the cancelled request")
	}
}

func TestUnknownResponseIsReported(t *testing.T) {
	ch, peer, diags := newPair(t)

	require.NoError(t, peer.Reply(message.NewNumberID(999), 1))
	require.NoError(t, peer.Reply(message.NewStringID("x"), 1))

	peer.Handle("java/buildWorkspace", func(ctx context.Context, params json.RawMessage) (any, error) { return 1, nil })
	require.NoError(t, ch.Call(context.Background(), "java/buildWorkspace", true, nil))
	assert.Equal(t, []DiagnosticKind{DiagnosticUnknownResponse, DiagnosticUnknownResponse}, diags.kinds())
}

func TestHandlerMayIssueRequests(t *testing.T) {
	ch, peer, _ := newPair(t)
	peer.Handle("java/classFileContents", func(ctx context.Context, params json.RawMessage) (any, error) {
		return "source", nil
	})

	result := make(chan string, 1)
	ch.OnNotification("language/actionableNotification", func(ctx context.Context, params json.RawMessage) error {
		var contents string
		if err := ch.Call(ctx, "java/classFileContents", nil, &contents); err != nil {
			return err
		}
		result <- contents
		return nil
	})

	require.NoError(t, peer.Push("language/actionableNotification", map[string]any{"severity": 3, "message": "x"}))
	select {
	case got := <-result:
		assert.Equal(t, "source", got)
	case <-time.After(waitFor):
		t.Fatal("handler request deadlocked")
	}
}

func TestIDsNeverReused(t *testing.T) {
	ch, peer, _ := newPair(t, WithCancelNotify(false))

	const workers, perWorker = 10, 1000
	calls := make(chan *Call, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				call, err := ch.SendRequest(context.Background(), "java/findLinks", i)
				if err != nil {
					t.Error(err)
					return
				}
				calls <- call
			}
		}()
	}

	seen := make(map[int64]bool, workers*perWorker)
	for i := 0; i < workers*perWorker; i++ {
		req := nextRequest(t, peer)
		n, ok := req.ID.Number()
		require.True(t, ok)
		require.False(t, seen[n], "id %d reused", n)
		seen[n] = true
	}
	wg.Wait()
	close(calls)

	require.NoError(t, ch.Close())
	for call := range calls {
		_, err := call.Wait(context.Background())
		assert.True(t, errors.Is(err, message.ErrChannelClosed))
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestLineFraming(t *testing.T) {
	local, remote := net.Pipe()
	ch := New(local, WithFramer(&protocol.LineFramer{}))
	peer := server.New(remote, server.WithFramer(&protocol.LineFramer{})).Start(context.Background())
	defer peer.Close(time.Second)
	defer ch.Close()

	peer.Handle("java/inferSelection", func(ctx context.Context, params json.RawMessage) (any, error) {
		return []map[string]any{{"name": "x", "length": 1, "offset": 2}}, nil
	})
	var out []map[string]any
	require.NoError(t, ch.Call(context.Background(), "java/inferSelection", nil, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "x", out[0]["name"])
}

func BenchmarkSerialCall(b *testing.B) {
	local, remote := net.Pipe()
	ch := New(local)
	peer := server.New(remote).Start(context.Background())
	peer.Handle("java/buildWorkspace", func(ctx context.Context, params json.RawMessage) (any, error) { return 1, nil })
	b.Cleanup(func() {
		ch.Close()
		peer.Close(time.Second)
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := ch.Call(context.Background(), "java/buildWorkspace", true, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkConcurrentCall(b *testing.B) {
	local, remote := net.Pipe()
	ch := New(local)
	peer := server.New(remote).Start(context.Background())
	peer.Handle("java/buildWorkspace", func(ctx context.Context, params json.RawMessage) (any, error) { return 1, nil })
	b.Cleanup(func() {
		ch.Close()
		peer.Close(time.Second)
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := ch.Call(context.Background(), "java/buildWorkspace", true, nil); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
