package cli

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/catalog"
)

type notificationLine struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

func NewListenCommand(s *session) *cobra.Command {
	var (
		count    int
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "listen [method...]",
		Short: "print server notifications as JSON lines",
		Long: "Connects and prints every notification the backend sends for the given\n" +
			"methods, or for every server notification in the catalog when none are given.",
	}
	cmd.Flags().IntVar(&count, "count", 0, "exit after this many notifications")
	cmd.Flags().DurationVar(&duration, "for", 0, "exit after this long")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, duration)
			defer cancel()
		}

		c, closeFn, err := s.connect(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		methods := args
		if len(methods) == 0 {
			for _, d := range c.Catalog().All() {
				if d.Kind == catalog.KindNotification && d.Direction == catalog.ServerToClient {
					methods = append(methods, d.Name)
				}
			}
		}

		var (
			mu       sync.Mutex
			received int
			enough   = make(chan struct{})
			once     sync.Once
		)
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, method := range methods {
			_, err := c.OnNotification(method, func(_ context.Context, params json.RawMessage) error {
				mu.Lock()
				defer mu.Unlock()
				if count > 0 && received >= count {
					return nil
				}
				received++
				if err := enc.Encode(notificationLine{Method: method, Params: params}); err != nil {
					return errors.WithStack(err)
				}
				if count > 0 && received == count {
					once.Do(func() { close(enough) })
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		select {
		case <-enough:
			return nil
		case <-ctx.Done():
			if duration > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil
			}
			return ctx.Err()
		case <-c.Channel().Done():
			// Backend hung up.
			return nil
		}
	}
	return cmd
}
