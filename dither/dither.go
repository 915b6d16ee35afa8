/*
Package dither implements Floyd-Steinberg error diffusion onto a fixed
palette.

The buffer is visited exactly once in raster order. Each pixel is replaced by
its nearest palette color and the difference is spread over the neighbours
that have not been visited yet:

	        *     7/16
	3/16  5/16    1/16
*/
package dither

import (
	"github.com/bodgit/c64conv/palette"
	"github.com/bodgit/c64conv/raster"
)

type weight struct {
	dx, dy int
	n      int
}

var floydSteinberg = [...]weight{
	{1, 0, 7},
	{-1, 1, 3},
	{0, 1, 5},
	{1, 1, 1},
}

func clamp(v int) byte {
	switch {
	case v < 0:
		return 0
	case v > 0xff:
		return 0xff
	}
	return byte(v)
}

// FloydSteinberg dithers b in place so that every pixel becomes a color
// from p.
func FloydSteinberg(b *raster.Buffer, p palette.Palette) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			old := b.At(x, y)
			c := p[p.MustNearest(old)]
			b.Set(x, y, c)

			residual := [raster.Channels]int{
				int(old.R) - int(c.R),
				int(old.G) - int(c.G),
				int(old.B) - int(c.B),
			}
			if residual == [raster.Channels]int{} {
				continue
			}

			for _, w := range floydSteinberg {
				nx, ny := x+w.dx, y+w.dy
				if nx < 0 || nx >= b.Width || ny >= b.Height {
					continue
				}
				j := b.Offset(nx, ny)
				for ch, e := range residual {
					b.Pix[j+ch] = clamp(int(b.Pix[j+ch]) + e*w.n/16)
				}
			}
		}
	}

	return nil
}

// Quantize replaces every pixel in b with its nearest color from p without
// any error diffusion.
func Quantize(b *raster.Buffer, p palette.Palette) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			b.Set(x, y, p[p.MustNearest(b.At(x, y))])
		}
	}
	return nil
}
