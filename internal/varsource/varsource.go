// Package varsource loads the Variable Map from the sources listed in
// ProjectConfig.Path: local YAML/properties files, or (stubbed) remote
// HTTP(S) documents. Grounded on original_source/src/binary/args_builder.rs
// (load_form_local / load_properties), generalized to Go's os/bufio/yaml.v3.
package varsource

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/nehonix-oss/procsupervisor/internal/supervisorerr"
	"gopkg.in/yaml.v3"
)

// Vars is the flat string->string map populated by LoadPath and later
// enriched by the Argument & Environment Builder.
type Vars map[string]string

// InsertIfAbsent implements the "first write wins" (cover=false) policy.
func (v Vars) InsertIfAbsent(key, value string) {
	if _, ok := v[key]; !ok {
		v[key] = value
	}
}

// LoadPath loads every URI in paths into vars in order, using
// "first write wins" semantics within a single source and across sources.
// A load failure for one entry is logged via warn and does not abort the
// rest of the list — this matches spec.md's "IoError ... logged-and-skipped
// inside probe execution" policy as applied to variable sourcing.
func LoadPath(paths []string, vars Vars, warn func(format string, args ...any)) {
	for _, uri := range paths {
		if err := loadOne(uri, vars); err != nil {
			warn("failed to load variable source %q: %v", uri, err)
		}
	}
}

func loadOne(uri string, vars Vars) error {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return loadRemote(uri, vars)
	case strings.HasPrefix(uri, "file://"):
		return loadLocal(strings.TrimPrefix(uri, "file://"), vars)
	default:
		return loadLocal(uri, vars)
	}
}

func loadLocal(path string, vars Vars) error {
	path = strings.TrimSpace(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return supervisorerr.WrapIoError("read variable source "+path, err)
	}

	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return loadYAML(data, vars)
	case strings.HasSuffix(path, ".properties"), strings.HasSuffix(path, ".env"):
		loadProperties(data, vars)
		return nil
	default:
		return supervisorerr.NewAppError("unknown file type: %s", path)
	}
}

func loadYAML(data []byte, vars Vars) error {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return supervisorerr.WrapIoError("parse yaml variable source", err)
	}
	for k, v := range raw {
		vars.InsertIfAbsent(k, fmt.Sprintf("%v", v))
	}
	return nil
}

func loadProperties(data []byte, vars Vars) {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		vars.InsertIfAbsent(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}
}

// loadRemote is an intentional stub: spec.md's §9 Open Question resolves
// the HTTP loader as "emit a not-implemented warning and continue". The
// AppError returned here is recognized by callers as non-fatal.
func loadRemote(uri string, _ Vars) error {
	return supervisorerr.NewAppError("remote loader not implemented: %s", uri)
}
