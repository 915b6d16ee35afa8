package c64conv

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/c64conv/palette"
	"github.com/ericpauley/go-quantize/quantize"
)

const backgroundClusters = 8

// AutoBackground picks the palette color covering the most of m. The image is
// first clustered with a median cut so that noise and gradients count towards
// their dominant color.
func AutoBackground(m image.Image, p palette.Palette) uint8 {
	b := m.Bounds()
	if b.Empty() {
		return 0
	}

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, backgroundClusters), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	counts := make([]int, len(p))
	for _, i := range pm.Pix {
		counts[p.Index(pm.Palette[i])]++
	}

	var best int
	for i, n := range counts {
		if n > counts[best] {
			best = i
		}
	}

	return uint8(best)
}
