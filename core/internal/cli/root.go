package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"sosfetch/core/internal/config"
	"sosfetch/core/internal/version"
	"sosfetch/log"
)

// globals holds the persistent flags and the config they resolve to.
type globals struct {
	configPath  string
	debug       bool
	server      string
	serverPSK   string
	insecureTLS bool
	cfg         *config.Config
}

func NewRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "sosfetch",
		Short:         "Generate sos reports on Linux hosts and fetch them with a checksum",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			g.cfg = cfg
			if g.debug || cfg.Log.Debug {
				log.Level(log.DebugLevel)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", config.DefaultPath, "Path to the gcfg config file")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Log every remote command")
	cmd.PersistentFlags().StringVar(&g.server, "server", "", "Send generate, fetch and history to this sosfetch server URL")
	cmd.PersistentFlags().StringVar(&g.serverPSK, "server-psk", "", "X-PSK for --server")
	cmd.PersistentFlags().BoolVar(&g.insecureTLS, "insecure-tls", false, "Skip TLS verification for --server")

	cmd.AddCommand(NewGenerateCmd(g))
	cmd.AddCommand(NewFetchCmd(g))
	cmd.AddCommand(NewVerifyCmd(g))
	cmd.AddCommand(NewHistoryCmd(g))
	cmd.AddCommand(NewServerCmd(g))
	cmd.AddCommand(NewVersionCmd())

	cmd.SetVersionTemplate(fmt.Sprintf("%s (%s/%s)\n", version.Version, runtime.GOOS, runtime.GOARCH))
	cmd.Version = version.Version

	return cmd
}
