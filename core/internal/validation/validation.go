// Package validation rejects caller-supplied values before they are placed
// into a remote command. Error messages are returned verbatim to callers.
package validation

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/c2h5oh/datasize"
)

var (
	pluginNameRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]*$`)
	logSizeRE    = regexp.MustCompile(`^[0-9]+[KMGkmg]?$`)
)

const errLogSize = "log_size must be a number optionally suffixed with a unit"

// PluginValues checks an optional plugin list. A nil list is absent and
// yields an empty list; a non-nil empty list is rejected.
func PluginValues(names []string, field string) ([]string, error) {
	if names == nil {
		return []string{}, nil
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", field)
	}
	for _, n := range names {
		if !ValidPluginName(n) {
			return nil, fmt.Errorf("Invalid plugin name: %s", n)
		}
	}
	return names, nil
}

// ValidPluginName reports whether s matches the plugin token grammar.
func ValidPluginName(s string) bool {
	return pluginNameRE.MatchString(s)
}

// PluginScope rejects only_plugins combined with enable or disable lists.
func PluginScope(only, enable, disable []string) error {
	if len(only) > 0 && (len(enable) > 0 || len(disable) > 0) {
		return errors.New("only_plugins cannot be combined with enable_plugins or disable_plugins")
	}
	return nil
}

// LogSize checks an optional size such as "50M". An empty string is absent.
func LogSize(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if !logSizeRE.MatchString(value) {
		return "", errors.New(errLogSize)
	}
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(value)); err != nil || v.Bytes() == 0 {
		return "", errors.New(errLogSize)
	}
	return value, nil
}

// Path validates a value that becomes a literal remote filesystem argument
// and returns it cleaned. Every path, including ones recovered from command
// output, goes through here before it reaches a command.
func Path(p string) (string, error) {
	if p == "" {
		return "", errors.New("Path cannot be empty")
	}
	if strings.IndexFunc(p, unicode.IsControl) >= 0 {
		return "", errors.New("Path contains invalid characters")
	}
	if strings.HasPrefix(p, "-") {
		return "", errors.New("Path cannot start with '-'")
	}
	if !path.IsAbs(p) {
		return "", errors.New("Path must be absolute")
	}
	return path.Clean(p), nil
}
