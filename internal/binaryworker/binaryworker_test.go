package binaryworker

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/nehonix-oss/procsupervisor/internal/xlog"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T, argv []string) *Worker {
	t.Helper()
	w, err := New(Config{
		Binary:      "/bin/sh",
		Argv:        argv,
		Envp:        map[string]string{"PATH": os.Getenv("PATH")},
		Interpreter: "bash",
		ExitSignal:  syscall.SIGTERM,
		Log:         xlog.Nop(),
	})
	require.NoError(t, err)
	return w
}

func TestWorkerStartThenNaturalExit(t *testing.T) {
	w := newTestWorker(t, []string{"-c", "exit 3"})
	w.Start()

	require.Eventually(t, func() bool {
		o := w.Observe()
		return o.State == StateExited && o.ExitCode == 3
	}, 3*time.Second, 20*time.Millisecond)

	w.Exit()
	w.WaitDestroyed()
	require.Equal(t, StateDestroyed, w.Observe().State)
}

func TestWorkerKillStopsLongRunningChild(t *testing.T) {
	w := newTestWorker(t, []string{"-c", "sleep 30"})
	w.Start()

	require.Eventually(t, func() bool {
		return w.Observe().State == StateStarted
	}, time.Second, 10*time.Millisecond)

	w.Kill(syscall.SIGTERM)

	require.Eventually(t, func() bool {
		return w.Observe().State == StateExited
	}, 3*time.Second, 20*time.Millisecond)

	w.Exit()
	w.WaitDestroyed()
}

func TestWorkerRestartRespawnsChild(t *testing.T) {
	w := newTestWorker(t, []string{"-c", "sleep 30"})
	w.Start()

	require.Eventually(t, func() bool {
		return w.Observe().State == StateStarted
	}, time.Second, 10*time.Millisecond)

	w.Restart()

	require.Eventually(t, func() bool {
		return w.Observe().State == StateStarted
	}, 3*time.Second, 20*time.Millisecond)

	w.Exit()
	w.WaitDestroyed()
}

func TestWorkerCommandsAfterDestroyedAreNoOps(t *testing.T) {
	w := newTestWorker(t, []string{"-c", "exit 0"})
	w.Exit()
	w.WaitDestroyed()

	w.Start()
	w.Kill(syscall.SIGTERM)
	require.Equal(t, StateDestroyed, w.Observe().State)
}

func TestWorkerPrehookFailureAbortsSpawn(t *testing.T) {
	w, err := New(Config{
		Binary:      "/bin/sh",
		Argv:        []string{"-c", "exit 0"},
		Envp:        map[string]string{"PATH": os.Getenv("PATH")},
		PreHookBody: "#!/bin/sh\nexit 1\n",
		Interpreter: "bash",
		ExitSignal:  syscall.SIGTERM,
		Log:         xlog.Nop(),
	})
	require.NoError(t, err)
	w.Start()

	require.Eventually(t, func() bool {
		o := w.Observe()
		return o.State == StateExited && o.ExitCode == 1
	}, 2*time.Second, 20*time.Millisecond)

	w.Exit()
	w.WaitDestroyed()
}
