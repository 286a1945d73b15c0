package cmd

import (
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
)

func thresholdDetections(dets []detection.Detection) []detection.Detection {
	var out []detection.Detection
	for _, d := range dets {
		if d.Mask.Kind == imaging.MaskThreshold {
			out = append(out, d)
		}
	}
	return out
}

func runFindJSON(t *testing.T, args ...string) findReport {
	t.Helper()
	out, _, err := execute(t, "", append(append([]string{"find"}, args...), "--format", "json")...)
	require.NoError(t, err)
	var report findReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	return report
}

func TestFindCommand(t *testing.T) {
	root := NewRootCommand(testBuild)
	find, _, err := root.Find([]string{"find"})
	require.NoError(t, err)
	assert.Equal(t, "find <image>", find.Use)
	for _, flag := range []string{"roi", "annotate", "polygons", "format", "channels", "levels",
		"workers", "backend", "smooth", "min-area", "epsilon", "metrics-file", "thickness", "labels"} {
		assert.NotNil(t, find.Flags().Lookup(flag), "flag %s", flag)
	}
}

func TestFind_JSON(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)

	report := runFindJSON(t, append([]string{img}, grayFlags...)...)
	assert.Equal(t, img, report.Image)
	assert.Equal(t, "png", report.Format)
	assert.Equal(t, 300, report.Width)
	assert.Equal(t, 240, report.Height)
	assert.Equal(t, "0,0,300,240", report.Region)
	assert.Equal(t, detection.BackendNative, report.Toolkit)
	assert.Equal(t, len(report.Detections), report.Count)

	thresholds := thresholdDetections(report.Detections)
	require.Len(t, thresholds, 3)
	for _, d := range thresholds {
		assert.Equal(t, detection.Rectangle, d.Label)
		assert.Len(t, d.Polygon, 4)
		assert.InDelta(t, 149.5, d.Centroid.X, 1e-9)
		assert.InDelta(t, 119.5, d.Centroid.Y, 1e-9)
		assert.Equal(t, imaging.ChannelGray, d.Mask.Channel)
	}
	assert.GreaterOrEqual(t, report.Summary[detection.Rectangle], 3)
}

func TestFind_ROI(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)

	report := runFindJSON(t, append([]string{img, "--roi", "40,30,260,210"}, grayFlags...)...)
	assert.Equal(t, "40,30,260,210", report.Region)
	thresholds := thresholdDetections(report.Detections)
	require.Len(t, thresholds, 3)
	for _, d := range thresholds {
		assert.InDelta(t, 149.5, d.Centroid.X, 1e-9, "centroids are in image coordinates")
		assert.InDelta(t, 119.5, d.Centroid.Y, 1e-9)
	}
}

func TestFind_WithoutPolygons(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)

	report := runFindJSON(t, append([]string{img, "--polygons=false"}, grayFlags...)...)
	require.NotEmpty(t, report.Detections)
	for _, d := range report.Detections {
		assert.Empty(t, d.Polygon)
	}
}

func TestFind_MinAreaFromEnvironment(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)
	t.Setenv("SHAPEFINDER_CLASSIFIER_MIN_AREA", "1000000")

	report := runFindJSON(t, append([]string{img}, grayFlags...)...)
	assert.Zero(t, report.Count)
	assert.Empty(t, report.Detections)
}

func TestFind_FlagOverridesConfigFile(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)
	cfg := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("finder:\n  channels: [gray]\n  levels: 2\n  smooth: false\n"), 0o644))

	report := runFindJSON(t, img, "--config", cfg)
	for _, d := range report.Detections {
		assert.LessOrEqual(t, d.Mask.Level, 1)
	}

	report = runFindJSON(t, img, "--config", cfg, "--levels", "4")
	assert.Len(t, thresholdDetections(report.Detections), 3)
}

func TestFind_Text(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)

	out, _, err := execute(t, "", append([]string{"find", img}, grayFlags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "300x240 png, region 0,0,300,240, toolkit native")
	assert.Contains(t, out, "MASK")
	assert.Contains(t, out, "gray/level-1")
	assert.Contains(t, out, "149.5,119.5")
	assert.Contains(t, out, "found ")
	assert.Contains(t, out, "rectangle=")
}

func TestFind_YAML(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)

	out, _, err := execute(t, "", append([]string{"find", img, "--format", "yaml"}, grayFlags...)...)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "native", doc["toolkit"])
	assert.Equal(t, 300, doc["width"])
	dets, ok := doc["detections"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, dets)
	first, ok := dets[0].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, first, "label", "result fields are inlined")
	assert.Contains(t, first, "mask")
}

func TestFind_Annotate(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)
	out := filepath.Join(dir, "found.png")

	report := runFindJSON(t, append([]string{img, "--annotate", out, "--labels=false"}, grayFlags...)...)
	assert.Equal(t, out, report.Annotated)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	annotated, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 300, annotated.Bounds().Dx())

	r, g, b, _ := annotated.At(150, 40).RGBA()
	want := detection.LabelColor(detection.Rectangle)
	assert.Equal(t, uint32(want.R), r>>8)
	assert.Equal(t, uint32(want.G), g>>8)
	assert.Equal(t, uint32(want.B), b>>8)
}

func TestFind_MetricsFile(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)
	prom := filepath.Join(dir, "shapefinder.prom")

	_, _, err := execute(t, "", append([]string{"find", img, "--metrics-file", prom}, grayFlags...)...)
	require.NoError(t, err)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), `shapefinder_shapes_classified_total{shape="rectangle"}`)
	assert.Contains(t, string(data), `shapefinder_mask_matches_total{channel="gray",kind="threshold"} 3`)
}

func TestFind_Errors(t *testing.T) {
	dir := isolate(t)
	img := writeSquareImage(t, dir)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing image", []string{"find", filepath.Join(dir, "nope.png")}, "nope.png"},
		{"no image", []string{"find"}, "accepts 1 arg"},
		{"bad region", []string{"find", img, "--roi", "1,2"}, "invalid region"},
		{"unknown format", []string{"find", img, "--format", "xml"}, "unknown format"},
		{"unknown backend", []string{"find", img, "--backend", "magic"}, "unknown backend"},
		{"unknown channel", []string{"find", img, "--channels", "purple"}, "unknown channel"},
		{"missing config", []string{"find", img, "--config", filepath.Join(dir, "none.yaml")}, "does not exist"},
		{"metrics dir missing", []string{"find", img, "--channels", "gray", "--levels", "2",
			"--metrics-file", filepath.Join(dir, "missing", "x.prom")}, "failed to write metrics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, stderr, "Error:")
		})
	}
}
