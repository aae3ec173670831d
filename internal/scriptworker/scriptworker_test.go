package scriptworker

import (
	"os"
	"testing"
	"time"

	"github.com/nehonix-oss/procsupervisor/internal/xlog"
	"github.com/stretchr/testify/require"
)

func TestWorkerRunsOnIntervalAndReportsStatus(t *testing.T) {
	w, err := New("probe", "bash", "#!/bin/sh\nexit 0\n", map[string]string{"PATH": os.Getenv("PATH")}, 0, 1, xlog.Nop())
	require.NoError(t, err)
	w.Start()

	var statuses []int
	require.Eventually(t, func() bool {
		statuses = append(statuses, w.PollStatus()...)
		return len(statuses) >= 1
	}, 3*time.Second, 50*time.Millisecond)

	require.Equal(t, 0, statuses[0])
	w.Close()
	w.WaitClosed()
}

func TestWorkerStopHaltsExecutions(t *testing.T) {
	w, err := New("probe", "bash", "#!/bin/sh\nexit 1\n", map[string]string{"PATH": os.Getenv("PATH")}, 0, 1, xlog.Nop())
	require.NoError(t, err)
	w.Start()

	require.Eventually(t, func() bool {
		return len(w.PollStatus()) >= 0
	}, time.Second, 10*time.Millisecond)

	w.Stop()
	time.Sleep(200 * time.Millisecond)
	w.PollStatus()

	time.Sleep(1200 * time.Millisecond)
	require.Empty(t, w.PollStatus())

	w.Close()
	w.WaitClosed()
}

func TestWorkerCloseIsIdempotent(t *testing.T) {
	w, err := New("probe", "bash", "#!/bin/sh\nexit 0\n", nil, 0, 5, xlog.Nop())
	require.NoError(t, err)
	w.Close()
	w.Close()
	w.WaitClosed()
}
