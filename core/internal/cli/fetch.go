package cli

import (
	"github.com/spf13/cobra"

	"sosfetch/core/internal/sosreport"
)

func NewFetchCmd(g *globals) *cobra.Command {
	var host string
	var format string

	cmd := &cobra.Command{
		Use:   "fetch <fetch-reference>",
		Short: "Copy a generated archive to the reports directory and print its SHA-256",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			tools, done, err := g.tools()
			if err != nil {
				return err
			}
			defer done()

			res, err := tools.Fetch(cmd.Context(), sosreport.FetchRequest{FetchReference: args[0], Host: host})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), format, res)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host the archive was generated on")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json|yaml)")
	return cmd
}
