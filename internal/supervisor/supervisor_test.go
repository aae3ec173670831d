package supervisor

import (
	"os"
	"testing"
	"time"

	"github.com/nehonix-oss/procsupervisor/internal/argbuilder"
	"github.com/nehonix-oss/procsupervisor/internal/config"
	"github.com/nehonix-oss/procsupervisor/internal/xlog"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T, restartPolicy config.RestartPolicy) *config.ProjectConfig {
	t.Helper()
	return &config.ProjectConfig{
		Project: config.ProjectInfo{
			Binary:        "/bin/sh",
			RestartPolicy: restartPolicy,
			ScriptWorker:  config.ScriptWorkerConfig{Interpreter: "bash"},
			Signals: config.SignalsConfig{
				Exit: 15, // SIGTERM
				Kill: 9,
			},
		},
	}
}

func TestRunWithFailPolicyExitsOnceOnCleanExit(t *testing.T) {
	cfg := baseConfig(t, config.RestartFail)
	ctx := &argbuilder.BinaryContext{
		Argv:       []string{"-c", "exit 0"},
		Envp:       map[string]string{"PATH": os.Getenv("PATH")},
		ScriptVars: map[string]string{},
	}

	s, err := New(cfg, ctx, xlog.Nop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not exit under FAIL policy after a clean child exit")
	}
}

func TestRunWithNonePolicyExitsOnAnyExit(t *testing.T) {
	cfg := baseConfig(t, config.RestartNone)
	ctx := &argbuilder.BinaryContext{
		Argv: []string{"-c", "exit 7"},
		Envp: map[string]string{"PATH": os.Getenv("PATH")},
	}

	s, err := New(cfg, ctx, xlog.Nop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not exit under NONE policy")
	}
}
