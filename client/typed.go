package client

import (
	"context"

	"github.com/goccy/go-json"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/catalog"
	"java-lsp-rpc/dispatch"
	"java-lsp-rpc/message"
)

// Call sends req with params and decodes the result as R.
func Call[P, R any](ctx context.Context, c *Client, req catalog.Request[P, R], params P) (R, error) {
	var result R
	if err := checkDescriptor(req.Descriptor(), catalog.KindRequest, catalog.ClientToServer); err != nil {
		return result, err
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return result, errors.Errorf("encoding params for %s: %w", req.Name(), err)
	}
	out, err := c.invoke(ctx, &message.Message{Method: req.Name(), Params: raw})
	if err != nil {
		return result, err
	}
	if len(out) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(out, &result); err != nil {
		return result, errors.WithDetails(errors.WrapWith(err, message.ErrDecode), "method", req.Name())
	}
	return result, nil
}

// Notify sends a client to server notification.
func Notify[P any](ctx context.Context, c *Client, n catalog.Notification[P], params P) error {
	if err := checkDescriptor(n.Descriptor(), catalog.KindNotification, catalog.ClientToServer); err != nil {
		return err
	}
	return c.ch.Notify(ctx, n.Name(), params)
}

// Subscribe runs fn for every server notification n. Params that do not
// decode as P are reported as handler failures and fn is not called.
func Subscribe[P any](c *Client, n catalog.Notification[P], fn func(ctx context.Context, params P) error) (*dispatch.Registration, error) {
	if err := checkDescriptor(n.Descriptor(), catalog.KindNotification, catalog.ServerToClient); err != nil {
		return nil, err
	}
	return c.ch.OnNotification(n.Name(), func(ctx context.Context, raw json.RawMessage) error {
		var params P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &params); err != nil {
				return errors.WithDetails(errors.WrapWith(err, message.ErrDecode), "method", n.Name())
			}
		}
		return fn(ctx, params)
	}), nil
}

// Serve answers the server to client request req with fn. Params that do not
// decode as P are answered with InvalidParams.
func Serve[P, R any](c *Client, req catalog.Request[P, R], fn func(ctx context.Context, params P) (R, error)) error {
	if err := checkDescriptor(req.Descriptor(), catalog.KindRequest, catalog.ServerToClient); err != nil {
		return err
	}
	c.ch.HandleRequest(req.Name(), func(ctx context.Context, raw json.RawMessage) (any, error) {
		var params P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, message.NewResponseError(message.InvalidParamsCode, "invalid params for %s: %v", req.Name(), err)
			}
		}
		return fn(ctx, params)
	})
	return nil
}
