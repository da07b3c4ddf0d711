// Command dither applies the dither post effect to an image file on the CPU. It produces the
// same pixels the GPU effect writes for a frame whose depth buffer is all geometry.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
	"github.com/Carmen-Shannon/oxy-dither/engine/postfx"
	"github.com/disintegration/imaging"
)

const HelpBanner = `
┌┬┐┬┌┬┐┬ ┬┌─┐┬─┐
 │││ │ ├─┤├┤ ├┬┘
─┴┘┴ ┴ ┴ ┴└─┘┴└─

Two-colour ordered dithering for still images.

`

var (
	source      = flag.String("in", "", "Source image")
	destination = flag.String("out", "", "Destination image, format chosen by extension")
	algorithm   = flag.String("algorithm", "Bayer_Dither", "Dither algorithm: None, Bayer_Dither, Random_Bayer_Dither or Dot_Bayer_Dither")
	matrixSize  = flag.Int("matrix", 4, "Bayer matrix size: 2, 4 or 8")
	palette     = flag.String("palette", "0", "Palette preset, by index or label")
	elapsed     = flag.Float64("time", 0, "Elapsed seconds seeding the randomized variant")
	newWidth    = flag.Int("width", 0, "Resize to this width before dithering, 0 keeps the source size")
	verbose     = flag.Bool("v", false, "Verbose logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, HelpBanner)
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *source == "" || *destination == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(); err != nil {
		common.Logger().Error("dither failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	a, err := dither.ParseAlgorithm(*algorithm)
	if err != nil {
		return err
	}
	m, err := dither.ParseMatrixSize(*matrixSize)
	if err != nil {
		return err
	}
	preset, err := postfx.ParsePreset(*palette)
	if err != nil {
		return err
	}
	params := postfx.NewParams(
		postfx.WithAlgorithm(a),
		postfx.WithMatrixSize(m),
		postfx.WithPreset(preset),
	)

	start := time.Now()
	img, err := imaging.Open(*source, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open %s: %w", *source, err)
	}
	if *newWidth > 0 {
		img = imaging.Resize(img, *newWidth, 0, imaging.Lanczos)
	}

	out := params.DitherOptions(float32(*elapsed)).Apply(img)
	if err := imaging.Save(out, *destination); err != nil {
		return fmt.Errorf("save %s: %w", *destination, err)
	}
	common.Logger().Info("dithered",
		"in", *source,
		"out", *destination,
		"size", fmt.Sprintf("%dx%d", out.Bounds().Dx(), out.Bounds().Dy()),
		"algorithm", a.Name(),
		"palette", params.PaletteLabel(),
		"took", time.Since(start),
	)
	return nil
}
