package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	root := NewRootCommand(testBuild)
	assert.Equal(t, "shapefinder", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)
	assert.True(t, root.HasSubCommands())

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"find", "classify", "masks", "serve", "config", "version"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "verbose", "log-level", "log-format"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %s", flag)
	}
}

func TestRootCommandHelp(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "classify")
}

func TestRootCommandNoArgs(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
}

func TestRootCommandVersionFlag(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "shapefinder 1.2.3 (built 2026-01-02T03:04:05Z, commit abc1234)\n", out)
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "shapefinder 1.2.3")
	assert.Contains(t, out, "Build time: 2026-01-02T03:04:05Z")
	assert.Contains(t, out, "Git commit: abc1234")
}

func TestRootCommandInvalidFlag(t *testing.T) {
	isolate(t)
	_, stderr, err := execute(t, "", "--invalid-flag")
	require.Error(t, err)
	assert.Contains(t, stderr, "unknown flag")
}

func TestCommandTreesAreIndependent(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)

	out, _, err := execute(t, "", "config", "show", "--levels", "3", "--format", "yaml")
	require.Error(t, err, "config show does not take finder flags")
	assert.Empty(t, out)

	_, _, err = execute(t, "", "find", img, "--levels", "3", "--channels", "gray")
	require.NoError(t, err)

	out, _, err = execute(t, "", "config", "show", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "levels: 10", "flags from an earlier run must not leak")
}

func TestLogLevelFlags(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)
	args := append([]string{"find", img}, grayFlags...)

	_, stderr, err := execute(t, "", args...)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "shapes found", "info is below the default warn level")

	_, stderr, err = execute(t, "", append(args, "--log-level", "info")...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "shapes found")

	_, stderr, err = execute(t, "", append(args, "-v")...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "mask scanned")

	_, stderr, err = execute(t, "", append(args, "--log-level", "info", "--log-format", "json")...)
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"shapes found"`)
}

func TestInvalidLogLevel(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "", "config", "show", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log")
}
