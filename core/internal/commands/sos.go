package commands

import "time"

// Names of the commands the sosreport tools use.
const (
	SosVersion  = "sosreport/version"
	SosGenerate = "sosreport/generate"
	SosLatest   = "sosreport/latest"
	SosStat     = "sosreport/stat"
	ReadFile    = "read_file"
)

// CatBinary is the read command; sudoers rules reference it by this path.
const CatBinary = "/usr/bin/cat"

type SosOptions struct {
	Binary          string
	Timeout         time.Duration
	GenerateTimeout time.Duration
}

// SosRegistry returns the command set used for generating and fetching
// sosreports. Prefixes must stay stable: remote sudo policy matches them.
func SosRegistry(o SosOptions) *Registry {
	if o.Binary == "" {
		o.Binary = "/usr/bin/sos"
	}
	r := NewRegistry()
	r.Register(SosVersion, Spec{
		Args:    []string{o.Binary, "--version"},
		Timeout: o.Timeout,
	})
	r.Register(SosGenerate, Spec{
		Args: []string{"sudo", "-n", o.Binary, "report", "--batch", "--tmp-dir", "{tmp_dir}"},
		Flags: []Flag{
			{Param: "label", Tokens: []string{"--label", "{label}"}},
			{Param: "only_plugins", Tokens: []string{"--only-plugins", "{only_plugins}"}},
			{Param: "enable_plugins", Tokens: []string{"--enable-plugins", "{enable_plugins}"}},
			{Param: "disable_plugins", Tokens: []string{"--disable-plugins", "{disable_plugins}"}},
			{Param: "log_size", Tokens: []string{"--log-size", "{log_size}"}},
			{Param: "redaction_disabled", Tokens: []string{"--no-clean"}},
		},
		Timeout:  o.GenerateTimeout,
		Required: []string{"tmp_dir"},
	})
	r.Register(SosLatest, Spec{
		Args:     []string{"ls", "-1tr", "{tmp_dir}"},
		Timeout:  o.Timeout,
		Required: []string{"tmp_dir"},
	})
	r.Register(SosStat, Spec{
		Args:     []string{"stat", "-c", "%s %Y", "{path}"},
		Timeout:  o.Timeout,
		Required: []string{"path"},
	})
	r.Register(ReadFile, Spec{
		Args:     []string{"sudo", "-n", CatBinary, "{path}"},
		Binary:   true,
		Timeout:  o.GenerateTimeout,
		Required: []string{"path"},
	})
	return r
}
