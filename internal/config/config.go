// Package config loads and validates the supervisor's ProjectConfig
// document. Parsing is the only thing this package does: variable
// expansion and argument resolution live in internal/argbuilder.
package config

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/nehonix-oss/procsupervisor/internal/supervisorerr"
	"gopkg.in/yaml.v3"
)

// RestartPolicy controls whether the Supervisor Loop respawns the child
// after it exits.
type RestartPolicy string

const (
	RestartNone   RestartPolicy = "NONE"
	RestartAlways RestartPolicy = "ALWAYS"
	RestartFail   RestartPolicy = "FAIL"
)

type SignalsConfig struct {
	Reload int `yaml:"reload"`
	Exit   int `yaml:"exit"`
	Kill   int `yaml:"kill"`
}

type ScriptWorkerConfig struct {
	Interpreter string `yaml:"interpreter"`
}

type HealthCheck struct {
	Script      string `yaml:"script"`
	DelaySec    int    `yaml:"delay_sec"`
	IntervalSec int    `yaml:"interval_sec"`
	Failures    int    `yaml:"failures"`
}

func (h HealthCheck) Enabled() bool {
	return h.IntervalSec > 0 && h.Script != ""
}

type StartedCheck struct {
	Script        string `yaml:"script"`
	IntervalSec   int    `yaml:"interval_sec"`
	Success       int    `yaml:"success"`
	StartedScript string `yaml:"started_script"`
}

func (s StartedCheck) Enabled() bool {
	return s.IntervalSec > 0 && s.Script != ""
}

type ProjectInfo struct {
	Name          string             `yaml:"name"`
	Binary        string             `yaml:"binary"`
	BeforeScript  string             `yaml:"before_script"`
	AfterScript   string             `yaml:"after_script"`
	CheckHealth   HealthCheck        `yaml:"check_health"`
	CheckStarted  StartedCheck       `yaml:"check_started"`
	Signals       SignalsConfig      `yaml:"signals"`
	RestartPolicy RestartPolicy      `yaml:"restart_policy"`
	ScriptWorker  ScriptWorkerConfig `yaml:"script_worker"`
}

type ArgumentSpec struct {
	Key          string   `yaml:"key"`
	Expr         []string `yaml:"expr"`
	Mode         string   `yaml:"mode"` // ARG|ENV|BOOL|MERGE
	Must         bool     `yaml:"must"`
	ValidRegex   string   `yaml:"valid_regex"`
	ValidMessage string   `yaml:"valid_message"`
}

type ConfigAlias struct {
	Key  string   `yaml:"key"`
	Expr []string `yaml:"expr"`
	Over bool     `yaml:"over"`
}

type ConsoleLog struct {
	Level string `yaml:"level"`
}

type FileLog struct {
	Level     string `yaml:"level"`
	Path      string `yaml:"path"`
	ErrorPath string `yaml:"error_path"`
	Append    bool   `yaml:"append"`
}

type LogConfig struct {
	Console ConsoleLog `yaml:"console"`
	File    FileLog    `yaml:"file"`
}

type ProjectConfig struct {
	Project     ProjectInfo       `yaml:"project"`
	Args        []ArgumentSpec    `yaml:"args"`
	Path        []string          `yaml:"path"`
	Log         LogConfig         `yaml:"log"`
	Attach      map[string]string `yaml:"attach"`
	ConfigAlias []ConfigAlias     `yaml:"config_alias"`
}

// Load reads path, parses it as YAML, and fills in the documented defaults:
// signals default to SIGHUP/SIGTERM/SIGKILL, the script interpreter
// defaults to bash. It then validates that the binary exists and is
// executable. Any failure here is a ConfigError and is fatal to the
// process.
func Load(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, supervisorerr.WrapConfigError("read config file "+path, err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, supervisorerr.WrapConfigError("parse config file "+path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	if cfg.Project.Signals.Reload == 0 {
		cfg.Project.Signals.Reload = int(syscall.SIGHUP)
	}
	if cfg.Project.Signals.Exit == 0 {
		cfg.Project.Signals.Exit = int(syscall.SIGTERM)
	}
	if cfg.Project.Signals.Kill == 0 {
		cfg.Project.Signals.Kill = int(syscall.SIGKILL)
	}
	if cfg.Project.ScriptWorker.Interpreter == "" {
		cfg.Project.ScriptWorker.Interpreter = "bash"
	}
	if cfg.Project.RestartPolicy == "" {
		cfg.Project.RestartPolicy = RestartNone
	}
	if cfg.Attach == nil {
		cfg.Attach = map[string]string{}
	}
}

func validate(cfg *ProjectConfig) error {
	if cfg.Project.Binary == "" {
		return supervisorerr.NewConfigError("project.binary is required")
	}
	if !filepath.IsAbs(cfg.Project.Binary) {
		return supervisorerr.NewConfigError("project.binary must be an absolute path: " + cfg.Project.Binary)
	}
	info, err := os.Stat(cfg.Project.Binary)
	if err != nil {
		return supervisorerr.WrapConfigError("stat project.binary "+cfg.Project.Binary, err)
	}
	if info.IsDir() {
		return supervisorerr.NewConfigError("project.binary is a directory: " + cfg.Project.Binary)
	}
	if info.Mode()&0o111 == 0 {
		return supervisorerr.NewConfigError("project.binary is not executable: " + cfg.Project.Binary)
	}
	switch cfg.Project.RestartPolicy {
	case RestartNone, RestartAlways, RestartFail:
	default:
		return supervisorerr.NewConfigError("project.restart_policy must be one of NONE, ALWAYS, FAIL")
	}
	return nil
}
