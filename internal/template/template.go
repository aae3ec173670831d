// Package template implements the supervisor's bespoke "{{name}}" /
// "{{a ? b ? c}}" textual substitution scheme, used in configuration
// values, hook scripts, and probe scripts. Grounded on the Rust
// original's replace_all_str_from_map (original_source/src/utils/string.rs),
// which finds-and-replaces to a fixed point rather than doing a single
// regex pass.
package template

import (
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Vars is the flat string->string map every lookup resolves against.
type Vars map[string]string

// Expand resolves every "{{...}}" placeholder in s against vars. A
// placeholder's body is a '?'-separated list of candidate keys, evaluated
// left to right; the first candidate with a non-empty value in vars wins.
// A blank body, or an empty candidate reached before any key resolved,
// yields "" for that placeholder ("{{a ? }}" is "" when a is unset). If no
// candidate resolves, the whole expression is unresolvable. Expand reports ok=false when any placeholder in s could
// not be resolved, in which case the returned string is meaningless.
func Expand(s string, vars Vars) (string, bool) {
	ok := true
	// Re-run until no placeholder remains or a pass makes no further
	// progress, so a resolved value that itself contains "{{" is expanded
	// too, while guaranteeing termination on fully resolvable input.
	for i := 0; i < 32 && placeholder.MatchString(s); i++ {
		next := placeholder.ReplaceAllStringFunc(s, func(m string) string {
			body := placeholder.FindStringSubmatch(m)[1]
			val, resolved := resolveCandidates(body, vars)
			if !resolved {
				ok = false
				return m
			}
			return val
		})
		if next == s {
			break
		}
		s = next
	}
	if placeholder.MatchString(s) {
		ok = false
	}
	return s, ok
}

func resolveCandidates(body string, vars Vars) (string, bool) {
	if strings.TrimSpace(body) == "" {
		return "", true
	}
	for _, cand := range strings.Split(body, "?") {
		cand = strings.TrimSpace(cand)
		if cand == "" {
			return "", true
		}
		if v, ok := vars[cand]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// ReplaceAllLiteral performs a literal (non-placeholder-aware) find and
// replace of every key in mapping against s, repeated until no further
// occurrence of any key exists. Used for the attrs-token pass over the
// variable map (spec step 7) and for substituting script_vars into hook
// script bodies.
func ReplaceAllLiteral(s string, mapping map[string]string) string {
	for {
		replaced := s
		for k, v := range mapping {
			replaced = strings.ReplaceAll(replaced, k, v)
		}
		if replaced == s {
			return s
		}
		s = replaced
	}
}
