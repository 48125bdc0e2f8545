package cli

import (
	"github.com/spf13/cobra"
)

func NewNotifyCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify <method> [params-json|-]",
		Short: "send a notification",
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

		return c.Notify(cmd.Context(), args[0], params)
	}
	return cmd
}
