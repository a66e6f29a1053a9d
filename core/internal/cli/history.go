package cli

import (
	"github.com/spf13/cobra"

	"sosfetch/core/internal/audit"
	"sosfetch/core/internal/client"
)

func NewHistoryCmd(g *globals) *cobra.Command {
	var host string
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List recent generate and fetch invocations, or show one by ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			var remote *client.Client
			if g.server != "" {
				var err error
				remote, err = client.New(client.Config{ServerURL: g.server, PSK: g.serverPSK, InsecureTLS: g.insecureTLS})
				if err != nil {
					return err
				}
			}
			store := audit.NewStore(g.cfg.Audit.DB)

			if len(args) == 1 {
				var rec *audit.Record
				var err error
				if remote != nil {
					rec, err = remote.Get(cmd.Context(), args[0])
				} else {
					rec, err = store.Get(args[0])
				}
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), format, rec)
			}

			var recs []audit.Record
			var err error
			if remote != nil {
				recs, err = remote.Recent(cmd.Context(), host, limit)
			} else {
				recs, err = store.Recent(host, limit)
			}
			if err != nil {
				return err
			}
			if recs == nil {
				recs = []audit.Record{}
			}
			return printResult(cmd.OutOrStdout(), format, recs)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Only show this host")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of records (0 for all)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json|yaml)")
	return cmd
}
