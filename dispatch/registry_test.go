package dispatch

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/message"
)

func TestNotifyOrder(t *testing.T) {
	reg := New()
	var calls []string

	reg.Subscribe("language/status", func(ctx context.Context, params json.RawMessage) error {
		calls = append(calls, "first:"+string(params))
		return nil
	})
	reg.Subscribe("language/status", func(ctx context.Context, params json.RawMessage) error {
		calls = append(calls, "second:"+string(params))
		return nil
	})
	reg.Subscribe("$/progress", func(ctx context.Context, params json.RawMessage) error {
		calls = append(calls, "other")
		return nil
	})

	failures := reg.Notify(context.Background(), "language/status", json.RawMessage(`1`))
	assert.Empty(t, failures)
	assert.Equal(t, []string{"first:1", "second:1"}, calls)
}

func TestNotifyIsolatesFailures(t *testing.T) {
	reg := New()
	ran := 0

	reg.Subscribe("m", func(ctx context.Context, params json.RawMessage) error {
		panic("boom")
	})
	reg.Subscribe("m", func(ctx context.Context, params json.RawMessage) error {
		ran++
		return errors.New("bad payload")
	})
	reg.Subscribe("m", func(ctx context.Context, params json.RawMessage) error {
		ran++
		return nil
	})

	failures := reg.Notify(context.Background(), "m", nil)
	require.Len(t, failures, 2)
	assert.Equal(t, 0, failures[0].Index)
	assert.Contains(t, failures[0].Err.Error(), "boom")
	assert.Equal(t, 1, failures[1].Index)
	assert.Equal(t, 2, ran)
}

func TestUnregister(t *testing.T) {
	reg := New()
	var calls []int

	first := reg.Subscribe("m", func(ctx context.Context, params json.RawMessage) error {
		calls = append(calls, 1)
		return nil
	})
	reg.Subscribe("m", func(ctx context.Context, params json.RawMessage) error {
		calls = append(calls, 2)
		return nil
	})
	assert.Equal(t, 2, reg.Subscribers("m"))

	first.Unregister()
	first.Unregister()
	assert.Equal(t, 1, reg.Subscribers("m"))
	assert.Equal(t, "m", first.Method())

	reg.Notify(context.Background(), "m", nil)
	assert.Equal(t, []int{2}, calls)
}

func TestServe(t *testing.T) {
	reg := New()

	_, rerr := reg.Serve(context.Background(), "workspace/executeClientCommand", nil)
	require.NotNil(t, rerr)
	assert.Equal(t, message.MethodNotFoundCode, rerr.Code)

	reg.Handle("workspace/executeClientCommand", func(ctx context.Context, params json.RawMessage) (any, error) {
		var p struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, message.NewResponseError(message.InvalidParamsCode, "%v", err)
		}
		return map[string]string{"ran": p.Command}, nil
	})

	result, rerr := reg.Serve(context.Background(), "workspace/executeClientCommand", json.RawMessage(`{"command":"java.show.references"}`))
	require.Nil(t, rerr)
	assert.JSONEq(t, `{"ran":"java.show.references"}`, string(result))

	_, rerr = reg.Serve(context.Background(), "workspace/executeClientCommand", json.RawMessage(`[`))
	require.NotNil(t, rerr)
	assert.Equal(t, message.InvalidParamsCode, rerr.Code)

	reg.Handle("panics", func(ctx context.Context, params json.RawMessage) (any, error) {
		panic("no")
	})
	_, rerr = reg.Serve(context.Background(), "panics", nil)
	require.NotNil(t, rerr)
	assert.Equal(t, message.InternalErrorCode, rerr.Code)

	reg.Handle("workspace/executeClientCommand", nil)
	_, rerr = reg.Serve(context.Background(), "workspace/executeClientCommand", nil)
	require.NotNil(t, rerr)
	assert.Equal(t, message.MethodNotFoundCode, rerr.Code)
}

func TestServeCancelled(t *testing.T) {
	reg := New()
	reg.Handle("workspace/executeClientCommand", func(ctx context.Context, params json.RawMessage) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, rerr := reg.Serve(ctx, "workspace/executeClientCommand", nil)
	require.NotNil(t, rerr)
	assert.Equal(t, message.RequestCancelledCode, rerr.Code)
}
