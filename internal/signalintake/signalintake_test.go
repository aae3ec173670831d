package signalintake

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPollReturnsDeliveredSignalsInOrder(t *testing.T) {
	in := New()
	defer in.Close()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGHUP))
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGHUP))

	var got []syscall.Signal
	require.Eventually(t, func() bool {
		got = append(got, in.Poll()...)
		return len(got) >= 2
	}, 2*time.Second, 20*time.Millisecond)

	require.Equal(t, []syscall.Signal{syscall.SIGHUP, syscall.SIGHUP}, got)
}

func TestPollEmptyWhenNothingDelivered(t *testing.T) {
	in := New()
	defer in.Close()
	require.Empty(t, in.Poll())
}

func TestCloseIsIdempotentAndClearsQueue(t *testing.T) {
	in := New()
	in.Close()
	in.Close()
	require.Empty(t, in.Poll())
}
