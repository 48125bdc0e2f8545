package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/catalog"
	"java-lsp-rpc/java"
)

func NewMethodsCommand() *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "methods",
		Short: "list the methods of the protocol",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&direction, "direction", "", "only methods sent by: client or server")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "METHOD\tKIND\tDIRECTION\tPARAMS\tRESULT")
		for _, d := range java.Catalog().All() {
			switch direction {
			case "client":
				if d.Direction != catalog.ClientToServer {
					continue
				}
			case "server":
				if d.Direction != catalog.ServerToClient {
					continue
				}
			case "":
			default:
				return errors.Errorf("unknown direction %q", direction)
			}
			result := "-"
			if d.Result != nil {
				result = d.Result.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.Kind, d.Direction, d.Params, result)
		}
		return w.Flush()
	}
	return cmd
}
