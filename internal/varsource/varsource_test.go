package varsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadPathFirstWriteWins(t *testing.T) {
	dir := t.TempDir()
	propsPath := filepath.Join(dir, "a.properties")
	require.NoError(t, os.WriteFile(propsPath, []byte("# comment\nfoo=1\nbar=2\n"), 0o644))
	yamlPath := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("foo: should-not-win\nbaz: 3\n"), 0o644))

	vars := Vars{}
	var warnings []string
	LoadPath([]string{propsPath, "file://" + yamlPath}, vars, func(format string, args ...any) {
		warnings = append(warnings, format)
	})

	require.Equal(t, "1", vars["foo"])
	require.Equal(t, "2", vars["bar"])
	require.Equal(t, "3", vars["baz"])
	require.Empty(t, warnings)
}

func TestLoadPathRemoteIsWarningOnly(t *testing.T) {
	vars := Vars{}
	var warnings int
	LoadPath([]string{"https://example.invalid/vars.yaml"}, vars, func(format string, args ...any) {
		warnings++
	})
	require.Equal(t, 1, warnings)
	require.Empty(t, vars)
}

func TestLoadPathUnknownExtensionWarns(t *testing.T) {
	dir := t.TempDir()
	badPath := filepath.Join(dir, "x.txt")
	require.NoError(t, os.WriteFile(badPath, []byte("irrelevant"), 0o644))

	vars := Vars{}
	var warnings int
	LoadPath([]string{badPath}, vars, func(format string, args ...any) { warnings++ })
	require.Equal(t, 1, warnings)
}
