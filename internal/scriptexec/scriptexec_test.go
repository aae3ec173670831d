package scriptexec

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaterializeAndRun(t *testing.T) {
	path, err := Materialize("probe", "#!/bin/sh\necho out-line\necho err-line 1>&2\nexit 0\n")
	require.NoError(t, err)
	defer os.Remove(path)

	res, err := Run("bash", path, map[string]string{"PATH": os.Getenv("PATH")})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Contains(t, res.Stdout, "out-line")
	require.Contains(t, res.Stderr, "err-line")
}

func TestRunNonZeroExit(t *testing.T) {
	path, err := Materialize("fail", "#!/bin/sh\nexit 7\n")
	require.NoError(t, err)
	defer os.Remove(path)

	res, err := Run("bash", path, map[string]string{"PATH": os.Getenv("PATH")})
	require.NoError(t, err)
	require.Equal(t, 7, res.ExitCode)
}

func TestRunSpawnFailure(t *testing.T) {
	_, err := Run("/nonexistent/interpreter", "/nonexistent/script.sh", nil)
	require.Error(t, err)
}
