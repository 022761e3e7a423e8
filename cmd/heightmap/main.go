package main

import (
	"flag"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os"

	"github.com/fellwalk/fellwalk/internal/sim/terrain/noise"
)

// heightmap renders the terrain height field around the origin as a
// grayscale PNG, for eyeballing seed and octave choices before a run.
func main() {
	params := noise.DefaultParams()

	out := flag.String("out", "heightmap.png", "output PNG path")
	size := flag.Int("size", 512, "image size in pixels")
	scale := flag.Float64("scale", 1.0, "world units per pixel")
	flag.Int64Var(&params.Seed, "seed", params.Seed, "terrain seed")
	flag.IntVar(&params.Octaves, "octaves", params.Octaves, "fractal octaves")
	flag.Float64Var(&params.Amplitude, "amplitude", params.Amplitude, "height amplitude")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	sampler := noise.NewSampler(params)

	px := *size
	heights := make([]float64, px*px)
	min, max := math.Inf(1), math.Inf(-1)
	half := float64(px) / 2

	for iy := 0; iy < px; iy++ {
		for ix := 0; ix < px; ix++ {
			h := sampler.Sample((float64(ix)-half)**scale, (float64(iy)-half)**scale)
			heights[iy*px+ix] = h
			if h < min {
				min = h
			}
			if h > max {
				max = h
			}
		}
	}

	span := max - min
	if span == 0 {
		span = 1
	}

	img := image.NewGray(image.Rect(0, 0, px, px))
	for i, h := range heights {
		img.Pix[i] = uint8(255 * (h - min) / span)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Error("create output", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		log.Error("encode png", "error", err)
		os.Exit(1)
	}

	log.Info("heightmap written",
		"path", *out,
		"size", px,
		"seed", params.Seed,
		"min", min,
		"max", max,
	)
}
