package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var testBuild = BuildInfo{Version: "1.2.3", BuildTime: "2026-01-02T03:04:05Z", GitCommit: "abc1234"}

// grayFlags restricts scanning to the gray channel with one edge map and
// three thresholds, without smoothing.
var grayFlags = []string{"--channels", "gray", "--levels", "4", "--smooth=false"}

// isolate runs the test in an empty directory with no user configuration
// and no SHAPEFINDER_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "SHAPEFINDER_") {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	return dir
}

// execute runs a fresh command tree with args and returns stdout and
// stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand(testBuild)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// writeSquareImage writes a 300x240 black PNG with a white square covering
// (50,40)-(250,200).
func writeSquareImage(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 300, 240))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(50, 40, 250, 200), image.NewUniform(color.RGBA{255, 255, 255, 255}), image.Point{}, draw.Src)

	path := filepath.Join(dir, "square.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}
