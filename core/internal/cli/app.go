package cli

import (
	"github.com/pkg/errors"

	"sosfetch/core/internal/audit"
	"sosfetch/core/internal/client"
	"sosfetch/core/internal/commands"
	"sosfetch/core/internal/config"
	"sosfetch/core/internal/evidence"
	"sosfetch/core/internal/metrics"
	"sosfetch/core/internal/serverapp"
	"sosfetch/core/internal/sosreport"
	"sosfetch/log"
	"sosfetch/transport"
	"sosfetch/transport/local"
	"sosfetch/transport/ssh"
)

// newExecutor builds the transport for cfg. Tests replace it.
var newExecutor = func(cfg *config.Config) (transport.Executor, error) {
	router := &transport.Router{Local: local.New(cfg.Timeout)}
	if cfg.SSH.KeyFile == "" {
		log.Debug("No ssh key configured, remote hosts are unavailable")
		return router, nil
	}
	remote, err := ssh.New(ssh.Config{
		User:                  cfg.SSH.User,
		Port:                  cfg.SSH.Port,
		KeyFile:               cfg.SSH.KeyFile,
		KnownHosts:            cfg.SSH.KnownHosts,
		InsecureIgnoreHostKey: cfg.SSH.InsecureIgnoreHostKey,
		Timeout:               cfg.Timeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "configuring ssh transport")
	}
	router.Remote = remote
	return router, nil
}

type app struct {
	svc     *sosreport.Service
	audit   *audit.Store
	metrics *metrics.Recorder
}

func newApp(cfg *config.Config) (*app, error) {
	exec, err := newExecutor(cfg)
	if err != nil {
		return nil, err
	}
	registry := commands.SosRegistry(commands.SosOptions{
		Binary:          cfg.Sos.Binary,
		Timeout:         cfg.Timeout,
		GenerateTimeout: cfg.GenerateTimeout,
	})

	a := &app{audit: audit.NewStore(cfg.Audit.DB)}
	recorders := []sosreport.Recorder{a.audit}
	if cfg.Influxdb.Server != "" {
		m, err := metrics.New(metrics.Config{
			Server: cfg.Influxdb.Server,
			DB:     cfg.Influxdb.DB,
			User:   cfg.Influxdb.User,
			Pass:   cfg.Influxdb.Pass,
		})
		if !log.Check(log.WarnLevel, "Configuring InfluxDB metrics", err) {
			a.metrics = m
			recorders = append(recorders, m)
		}
	}

	a.svc = sosreport.New(sosreport.Config{
		DefaultHost: cfg.Target.Host,
		TmpDir:      cfg.Sos.TmpDir,
		Label:       cfg.Sos.Label,
		MinVersion:  cfg.Sos.MinVersion,
	}, commands.NewRunner(exec, registry), evidence.NewStore(cfg.Reports.Dir), recorders...)
	return a, nil
}

func (a *app) Close() {
	if a.metrics != nil {
		log.Check(log.DebugLevel, "Closing InfluxDB client", a.metrics.Close())
	}
}

// tools returns the remote client when --server is set, else a local app.
func (g *globals) tools() (serverapp.Tools, func(), error) {
	if g.server != "" {
		c, err := client.New(client.Config{
			ServerURL:   g.server,
			PSK:         g.serverPSK,
			InsecureTLS: g.insecureTLS,
			Timeout:     g.cfg.GenerateTimeout + g.cfg.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
	a, err := newApp(g.cfg)
	if err != nil {
		return nil, nil, err
	}
	return a.svc, a.Close, nil
}
