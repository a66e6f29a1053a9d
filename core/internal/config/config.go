// Package config loads sosfetch settings from a gcfg file layered over
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/gcfg.v1"

	"sosfetch/core/internal/validation"
)

// DefaultPath is read when --config is not given. Missing is fine.
const DefaultPath = "/etc/sosfetch/sosfetch.gcfg"

type targetConfig struct {
	Host string
}

type sosConfig struct {
	Binary     string
	TmpDir     string
	Label      string
	MinVersion string
}

type transportConfig struct {
	Timeout         string
	GenerateTimeout string
}

type sshConfig struct {
	User                  string
	Port                  int
	KeyFile               string
	KnownHosts            string
	InsecureIgnoreHostKey bool
}

type reportsConfig struct {
	Dir string
}

type auditConfig struct {
	DB string
}

type influxdbConfig struct {
	Server string
	DB     string
	User   string
	Pass   string
}

type serverConfig struct {
	Port int
	PSK  string
}

type logConfig struct {
	Debug bool
}

type configFile struct {
	Target    targetConfig
	Sos       sosConfig
	Transport transportConfig
	SSH       sshConfig
	Reports   reportsConfig
	Audit     auditConfig
	Influxdb  influxdbConfig
	Server    serverConfig
	Log       logConfig
}

const defaultConfig = `
[target]
host =

[sos]
binary = /usr/bin/sos
tmpDir = /var/tmp
label = sosfetch
minVersion = 4.0

[transport]
timeout = 5m
generateTimeout = 30m

[ssh]
user = root
port = 22
keyFile =
knownHosts =
insecureIgnoreHostKey = false

[reports]
dir =

[audit]
db =

[influxdb]
server =
db = sosfetch
user =
pass =

[server]
port = 8443
psk =

[log]
debug = false
`

// Config is the resolved configuration.
type Config struct {
	Target    targetConfig
	Sos       sosConfig
	SSH       sshConfig
	Reports   reportsConfig
	Audit     auditConfig
	Influxdb  influxdbConfig
	Server    serverConfig
	Log       logConfig

	Timeout         time.Duration
	GenerateTimeout time.Duration
}

// Load parses the defaults, then path on top of them. A missing file at
// path is not an error.
func Load(path string) (*Config, error) {
	var f configFile
	if err := gcfg.ReadStringInto(&f, defaultConfig); err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := gcfg.ReadFileInto(&f, path); err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return resolve(f)
}

func resolve(f configFile) (*Config, error) {
	c := &Config{
		Target:   f.Target,
		Sos:      f.Sos,
		SSH:      f.SSH,
		Reports:  f.Reports,
		Audit:    f.Audit,
		Influxdb: f.Influxdb,
		Server:   f.Server,
		Log:      f.Log,
	}

	var err error
	if c.Timeout, err = parseDuration("transport.timeout", f.Transport.Timeout); err != nil {
		return nil, err
	}
	if c.GenerateTimeout, err = parseDuration("transport.generateTimeout", f.Transport.GenerateTimeout); err != nil {
		return nil, err
	}

	if !validation.ValidPluginName(c.Sos.Label) {
		return nil, fmt.Errorf("sos.label %q is not a valid token", c.Sos.Label)
	}
	if c.Sos.TmpDir, err = validation.Path(c.Sos.TmpDir); err != nil {
		return nil, fmt.Errorf("sos.tmpDir: %w", err)
	}
	if c.Sos.Binary, err = validation.Path(c.Sos.Binary); err != nil {
		return nil, fmt.Errorf("sos.binary: %w", err)
	}

	if c.Reports.Dir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.Reports.Dir = filepath.Join(dir, "sosfetch", "reports")
	}
	if c.Audit.DB == "" {
		c.Audit.DB = filepath.Join(filepath.Dir(c.Reports.Dir), "audit.db")
	}
	return c, nil
}

func parseDuration(name, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}
