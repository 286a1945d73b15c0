package support

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/cucumber/godog"
)

func (testCtx *TestContext) writePNG(name string, img image.Image) error {
	f, err := os.Create(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return f.Close()
}

func blackImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)
	return img
}

// aBlankImage writes a black w x h PNG.
func (testCtx *TestContext) aBlankImage(w, h int, name string) error {
	return testCtx.writePNG(name, blackImage(w, h))
}

// anImageWithAWhiteRectangle writes a black w x h PNG with a white
// rectangle covering (x0,y0)-(x1,y1).
func (testCtx *TestContext) anImageWithAWhiteRectangle(w, h int, name string, x0, y0, x1, y1 int) error {
	img := blackImage(w, h)
	draw.Draw(img, image.Rect(x0, y0, x1, y1), image.NewUniform(color.RGBA{255, 255, 255, 255}), image.Point{}, draw.Src)
	return testCtx.writePNG(name, img)
}

func (testCtx *TestContext) theImageShouldBe(name string, w, h int) error {
	f, err := os.Open(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("%s is not a PNG: %w", name, err)
	}
	if cfg.Width != w || cfg.Height != h {
		return fmt.Errorf("%s is %dx%d, want %dx%d", name, cfg.Width, cfg.Height, w, h)
	}
	return nil
}

// RegisterImageSteps registers fixture image steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a blank (\d+)x(\d+) image "([^"]*)"$`, testCtx.aBlankImage)
	sc.Step(`^a (\d+)x(\d+) image "([^"]*)" with a white rectangle from (\d+),(\d+) to (\d+),(\d+)$`,
		testCtx.anImageWithAWhiteRectangle)
	sc.Step(`^the image "([^"]*)" should be (\d+)x(\d+)$`, testCtx.theImageShouldBe)
}
