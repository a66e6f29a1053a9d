// Package reportpath recovers the archive path that sos printed somewhere in
// its free-form output. Strategies are pure functions over the accumulated
// text; within a strategy the last match wins, because sos echoes template
// paths before the final one.
package reportpath

import (
	"errors"
	"path"
	"regexp"
	"strings"
	"unicode"
)

// ErrNotFound is returned when no strategy yields a path.
var ErrNotFound = errors.New("Unable to determine sosreport archive path from command output")

var (
	absoluteRE = regexp.MustCompile(`(/[^\s]+?sosreport[^\s]+?\.(?:tar\.xz|tar\.gz))`)
	bareRE     = regexp.MustCompile(`^sosreport-[^/]+\.tar\.(?:xz|gz)$`)
)

// Strategy returns the path it recovers from text, if any.
type Strategy struct {
	Name string
	Find func(text string) (string, bool)
}

// Combine joins stdout and stderr the way every strategy expects them.
func Combine(stdout, stderr string) string {
	return stdout + "\n" + stderr
}

// Absolute matches any absolute path ending in a tar archive suffix that
// contains "sosreport".
func Absolute() Strategy {
	return Strategy{Name: "absolute", Find: func(text string) (string, bool) {
		return last(absoluteRE.FindAllString(text, -1))
	}}
}

// BareName matches a bare sosreport file name and places it in dir.
func BareName(dir string) Strategy {
	return Strategy{Name: "bare-name", Find: func(text string) (string, bool) {
		return last(inDir(dir, bareNames(text, "")))
	}}
}

// Labeled matches bare file names carrying -label- and places them in dir.
// It is meant for directory listings ordered oldest first.
func Labeled(dir, label string) Strategy {
	return Strategy{Name: "labeled", Find: func(text string) (string, bool) {
		return last(inDir(dir, bareNames(text, "-"+label+"-")))
	}}
}

// Find runs strategies in order and returns the first hit.
func Find(text string, strategies ...Strategy) (string, string, error) {
	for _, s := range strategies {
		if p, ok := s.Find(text); ok {
			return p, s.Name, nil
		}
	}
	return "", "", ErrNotFound
}

func bareNames(text, mustContain string) []string {
	var out []string
	for _, f := range strings.FieldsFunc(text, isSeparator) {
		f = strings.TrimRight(f, ".")
		if !bareRE.MatchString(f) {
			continue
		}
		if mustContain != "" && !strings.Contains(f, mustContain) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isSeparator(r rune) bool {
	switch r {
	case '\'', '"', '=', ':', ';', ',', '(', ')', '[', ']':
		return true
	}
	return unicode.IsSpace(r)
}

func inDir(dir string, names []string) []string {
	for i, n := range names {
		names[i] = path.Join(dir, n)
	}
	return names
}

func last(matches []string) (string, bool) {
	if len(matches) == 0 {
		return "", false
	}
	return matches[len(matches)-1], true
}
