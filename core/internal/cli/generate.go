package cli

import (
	"github.com/spf13/cobra"

	"sosfetch/core/internal/sosreport"
)

func NewGenerateCmd(g *globals) *cobra.Command {
	var req sosreport.GenerateRequest
	var only, enable, disable []string
	var noRedaction bool
	var format string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run sos report on the target host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			// A flag given with an empty value is a present-but-empty list.
			if cmd.Flags().Changed("only-plugins") {
				req.OnlyPlugins = nonNil(only)
			}
			if cmd.Flags().Changed("enable-plugins") {
				req.EnablePlugins = nonNil(enable)
			}
			if cmd.Flags().Changed("disable-plugins") {
				req.DisablePlugins = nonNil(disable)
			}
			if cmd.Flags().Changed("no-redaction") {
				redaction := !noRedaction
				req.Redaction = &redaction
			}

			tools, done, err := g.tools()
			if err != nil {
				return err
			}
			defer done()

			res, err := tools.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), format, res)
		},
	}

	cmd.Flags().StringVar(&req.Host, "host", "", "Target host (default: [target] host, empty means local)")
	cmd.Flags().StringSliceVar(&only, "only-plugins", nil, "Run only these sos plugins (comma separated or repeated)")
	cmd.Flags().StringSliceVar(&enable, "enable-plugins", nil, "Enable these sos plugins")
	cmd.Flags().StringSliceVar(&disable, "disable-plugins", nil, "Disable these sos plugins")
	cmd.Flags().StringVar(&req.LogSize, "log-size", "", "Maximum log size per file, e.g. 50M")
	cmd.Flags().BoolVar(&noRedaction, "no-redaction", false, "Do not obfuscate sensitive data (--no-clean)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json|yaml)")
	return cmd
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
