package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"sosfetch/core/internal/serverapp"
	"sosfetch/log"
)

func NewServerCmd(g *globals) *cobra.Command {
	var port int
	var tlsEnabled bool
	var tlsCert string
	var tlsKey string
	var psk string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve generate and fetch over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = g.cfg.Server.Port
			}
			if !cmd.Flags().Changed("psk") {
				psk = g.cfg.Server.PSK
			}
			if tlsEnabled && (tlsCert == "" || tlsKey == "") {
				return fmt.Errorf("--tls-cert and --tls-key are required when --tls-enabled=true")
			}

			a, err := newApp(g.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := serverapp.New(serverapp.Config{PSK: psk}, a.svc, a.audit)
			httpSrv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				log.Check(log.WarnLevel, "Shutting down server", httpSrv.Shutdown(shutdown))
			}()

			if tlsEnabled {
				log.Info(fmt.Sprintf("server listening https://0.0.0.0:%d (reports=%s)", port, g.cfg.Reports.Dir))
				err = httpSrv.ListenAndServeTLS(tlsCert, tlsKey)
			} else {
				log.Info(fmt.Sprintf("server listening http://0.0.0.0:%d (reports=%s)", port, g.cfg.Reports.Dir))
				err = httpSrv.ListenAndServe()
			}
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVar(&port, "port", 8443, "Server port (default: [server] port)")
	cmd.Flags().BoolVar(&tlsEnabled, "tls-enabled", true, "Enable TLS")
	cmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate (PEM)")
	cmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS private key (PEM)")
	cmd.Flags().StringVar(&psk, "psk", "", "Pre-shared key required in X-PSK (default: [server] psk)")
	return cmd
}
