package config

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	binPath := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(binPath, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	doc := `
project:
  name: demo
  binary: ` + binPath + `
  restart_policy: ALWAYS
  check_health:
    script: "echo ok"
    delay_sec: 1
    interval_sec: 5
    failures: 3
  check_started:
    script: "echo ready"
    interval_sec: 2
    success: 2
    started_script: "echo started"
args:
  - key: "--port"
    expr: ["{{port}}"]
    mode: ARG
    must: false
path:
  - "file://vars.properties"
attach:
  greeting: hello
`
	cfgPath := filepath.Join(dir, "application.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(doc), 0o644))
	return cfgPath
}

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFixture(t, dir)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, int(syscall.SIGHUP), cfg.Project.Signals.Reload)
	require.Equal(t, int(syscall.SIGTERM), cfg.Project.Signals.Exit)
	require.Equal(t, int(syscall.SIGKILL), cfg.Project.Signals.Kill)
	require.Equal(t, "bash", cfg.Project.ScriptWorker.Interpreter)
	require.Equal(t, RestartAlways, cfg.Project.RestartPolicy)
	require.True(t, cfg.Project.CheckHealth.Enabled())
	require.True(t, cfg.Project.CheckStarted.Enabled())
	require.Equal(t, "hello", cfg.Attach["greeting"])
}

func TestLoadRejectsMissingBinary(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "application.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
project:
  name: demo
  binary: /nonexistent/bin
`), 0o644))

	_, err := Load(cfgPath)
	require.Error(t, err)
}

func TestLoadRejectsRelativeBinary(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "application.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
project:
  name: demo
  binary: relative/bin
`), 0o644))

	_, err := Load(cfgPath)
	require.Error(t, err)
}
