package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sosfetch.gcfg")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.gcfg"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Sos.TmpDir != "/var/tmp" || c.Sos.Label != "sosfetch" || c.Sos.Binary != "/usr/bin/sos" {
		t.Errorf("sos = %+v", c.Sos)
	}
	if c.Timeout != 5*time.Minute || c.GenerateTimeout != 30*time.Minute {
		t.Errorf("timeouts = %s / %s", c.Timeout, c.GenerateTimeout)
	}
	if c.SSH.User != "root" || c.SSH.Port != 22 {
		t.Errorf("ssh = %+v", c.SSH)
	}
	if c.Reports.Dir == "" {
		t.Error("reports dir should default")
	}
	if c.Target.Host != "" {
		t.Errorf("target host = %q", c.Target.Host)
	}
}

func TestLoad_Overrides(t *testing.T) {
	p := writeConfig(t, `
[target]
host = node1.example.com

[sos]
label = support-case

[transport]
generateTimeout = 1h

[reports]
dir = /srv/reports

[influxdb]
server = http://influx:8086
`)
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Target.Host != "node1.example.com" {
		t.Errorf("host = %q", c.Target.Host)
	}
	if c.Sos.Label != "support-case" || c.Sos.TmpDir != "/var/tmp" {
		t.Errorf("sos = %+v", c.Sos)
	}
	if c.GenerateTimeout != time.Hour || c.Timeout != 5*time.Minute {
		t.Errorf("timeouts = %s / %s", c.Timeout, c.GenerateTimeout)
	}
	if c.Reports.Dir != "/srv/reports" || c.Influxdb.Server != "http://influx:8086" || c.Influxdb.DB != "sosfetch" {
		t.Errorf("reports=%q influx=%+v", c.Reports.Dir, c.Influxdb)
	}
	if c.Audit.DB != "/srv/audit.db" {
		t.Errorf("audit db = %q", c.Audit.DB)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad duration", "[transport]\ntimeout = soon\n", "transport.timeout"},
		{"bad label", "[sos]\nlabel = two words\n", "sos.label"},
		{"relative tmp dir", "[sos]\ntmpDir = tmp\n", "sos.tmpDir"},
		{"unknown section", "[nope]\nx = 1\n", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
