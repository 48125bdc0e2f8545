// Package cli holds the jlsctl commands: list the method catalog, send
// requests and notifications to a language backend, and print what the
// backend sends back.
package cli

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/client"
	"java-lsp-rpc/config"
	"java-lsp-rpc/java"
	"java-lsp-rpc/logging"
)

// session holds the flags every backend command shares.
type session struct {
	configPath string
	command    string
	args       []string
	address    string
	network    string
	framing    string
	timeout    time.Duration
	logLevel   string
	logFormat  string
}

func NewRootCommand() *cobra.Command {
	s := &session{}

	cmd := &cobra.Command{
		Use:           "jlsctl",
		Short:         "talk to a Java language backend over JSON-RPC",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&s.configPath, "config", "c", "", "TOML config file")
	flags.StringVar(&s.command, "command", "", "spawn the backend with this command")
	flags.StringArrayVar(&s.args, "arg", nil, "argument for --command, repeatable")
	flags.StringVar(&s.address, "address", "", "dial the backend at this address")
	flags.StringVar(&s.network, "network", "", "network for --address (tcp or unix)")
	flags.StringVar(&s.framing, "framing", "", "stream framing: header or line")
	flags.DurationVar(&s.timeout, "timeout", 0, "default request timeout")
	flags.StringVar(&s.logLevel, "log-level", "", "log level")
	flags.StringVar(&s.logFormat, "log-format", "", "log format: console or json")

	cmd.AddCommand(
		NewMethodsCommand(),
		NewCallCommand(s),
		NewNotifyCommand(s),
		NewListenCommand(s),
	)
	return cmd
}

// config loads the config file, if any, and applies flag overrides on top.
func (s *session) config() (*config.Config, error) {
	cfg := config.Default()
	if s.configPath != "" {
		loaded, err := config.Load(s.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if s.command != "" || s.address != "" {
		cfg.Backend = config.Backend{Network: cfg.Backend.Network}
		cfg.Backend.Command = s.command
		cfg.Backend.Args = s.args
		cfg.Backend.Address = s.address
	}
	if s.network != "" {
		cfg.Backend.Network = s.network
	}
	if s.framing != "" {
		cfg.Channel.Framing = s.framing
	}
	if s.timeout > 0 {
		cfg.Channel.RequestTimeout = s.timeout
	}
	if s.logLevel != "" {
		cfg.Logging.Level = s.logLevel
	}
	if s.logFormat != "" {
		cfg.Logging.Format = s.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// connect opens a client; close releases it and the log file.
func (s *session) connect(ctx context.Context) (c *client.Client, closeFn func(), err error) {
	cfg, err := s.config()
	if err != nil {
		return nil, nil, err
	}
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	c, err = client.Connect(logger.WithContext(ctx), cfg,
		client.WithCatalog(java.Catalog()),
		client.WithLogger(logger),
	)
	if err != nil {
		logCloser.Close()
		return nil, nil, err
	}
	return c, func() {
		if err := c.Close(); err != nil {
			logger.Debug().Err(err).Msg("closing client")
		}
		logCloser.Close()
	}, nil
}

// readParams returns args[i] as JSON, reading stdin for "-" and returning
// nil when absent.
func readParams(cmd *cobra.Command, args []string, i int) (json.RawMessage, error) {
	if len(args) <= i {
		return nil, nil
	}
	data := []byte(args[i])
	if args[i] == "-" {
		var err error
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.Errorf("reading params: %w", err)
		}
	}
	if !json.Valid(data) {
		return nil, errors.Errorf("params are not valid JSON: %s", data)
	}
	return json.RawMessage(data), nil
}

func writeJSON(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return errors.WithStack(err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
