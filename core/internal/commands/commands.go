// Package commands maps logical operations to command token templates and
// renders them with caller parameters. Placeholders replace whole tokens;
// nothing is ever concatenated into a shell string.
package commands

import (
	"fmt"
	"strings"
	"time"

	"sosfetch/transport"
)

// Flag is an optional argument group appended when its parameter is set.
// A Flag whose Tokens contain no placeholder is a switch driven by a bool.
type Flag struct {
	Param  string
	Tokens []string
}

// Spec is the template of one command.
type Spec struct {
	Args     []string
	Flags    []Flag
	Binary   bool
	Timeout  time.Duration
	Required []string
}

// Params carries placeholder values. Values are strings, []string (joined
// with commas) or bool (switch flags).
type Params map[string]any

// Render builds the token sequence for s.
func (s Spec) Render(op string, p Params) (transport.Command, error) {
	for _, name := range s.Required {
		if v, ok := stringParam(p, name); !ok || v == "" {
			return transport.Command{}, fmt.Errorf("%s: missing required parameter %q", op, name)
		}
	}

	args := make([]string, 0, len(s.Args)+len(s.Flags)*2)
	for _, tok := range s.Args {
		v, err := substitute(op, tok, p)
		if err != nil {
			return transport.Command{}, err
		}
		args = append(args, v)
	}

	for _, f := range s.Flags {
		if !isSet(p[f.Param]) {
			continue
		}
		for _, tok := range f.Tokens {
			v, err := substitute(op, tok, p)
			if err != nil {
				return transport.Command{}, err
			}
			args = append(args, v)
		}
	}

	return transport.Command{Args: args, Binary: s.Binary, Operation: op, Timeout: s.Timeout}, nil
}

func substitute(op, tok string, p Params) (string, error) {
	if !isPlaceholder(tok) {
		return tok, nil
	}
	name := tok[1 : len(tok)-1]
	v, ok := stringParam(p, name)
	if !ok {
		return "", fmt.Errorf("%s: no value for placeholder %s", op, tok)
	}
	return v, nil
}

func isPlaceholder(tok string) bool {
	return len(tok) > 2 && strings.HasPrefix(tok, "{") && strings.HasSuffix(tok, "}")
}

func stringParam(p Params, name string) (string, bool) {
	switch v := p[name].(type) {
	case string:
		return v, true
	case []string:
		return strings.Join(v, ","), true
	default:
		return "", false
	}
}

func isSet(v any) bool {
	switch t := v.(type) {
	case string:
		return t != ""
	case []string:
		return len(t) > 0
	case bool:
		return t
	default:
		return false
	}
}

// Registry holds command specs by "group/name".
type Registry struct {
	specs map[string]Spec
}

func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

func (r *Registry) Register(name string, s Spec) {
	r.specs[name] = s
}

// Get returns the spec registered under name.
func (r *Registry) Get(name string) (Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return Spec{}, fmt.Errorf("unknown command %q", name)
	}
	return s, nil
}
