package cli

import (
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

func NewCallCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <method> [params-json|-]",
		Short: "send a request and print the result",
		Args:  cobra.RangeArgs(1, 2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		params, err := readParams(cmd, args, 1)
		if err != nil {
			return err
		}

		c, closeFn, err := s.connect(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		method := args[0]
		if len(params) > 0 {
			if _, known := c.Catalog().Lookup(method); known {
				if _, err := c.Catalog().DecodeParams(method, params); err != nil {
					return errors.Errorf("params for %s: %w", method, err)
				}
			}
		}

		result, err := c.Invoke(cmd.Context(), method, params)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), result)
	}
	return cmd
}
