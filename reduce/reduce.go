/*
Package reduce enforces the Commodore 64 per-cell color limits on a pixel
buffer.

In hires mode each 8 by 8 block may use at most two colors. In multicolor
mode each 4 by 8 block of double-wide pixels may use the shared background
color plus at most three colors of its own.

Hires blocks have no shared color, so by default both colors of a block are
free and the global background is not reserved. Setting LockBackground makes
the background one of the two colors of every hires block.

By default the colors of each block are chosen by frequency and every pixel
is remapped to the nearest chosen color, which always succeeds. In strict
mode colors are taken in the order they are first seen and a block needing
too many colors is an error; this is for images that are expected to already
fit.
*/
package reduce

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/bodgit/c64conv/c64"
	"github.com/bodgit/c64conv/palette"
	"github.com/bodgit/c64conv/raster"
)

var errBadBackground = errors.New("reduce: background color out of range")

// Options control how colors are chosen for each block.
type Options struct {
	// Strict takes colors in the order they are first seen and fails
	// rather than remapping when a block has too many
	Strict bool
	// Background is the color shared by every multicolor block
	Background uint8
	// LockBackground reserves Background as one of the two colors of
	// every hires block
	LockBackground bool
}

// PaletteOverflowError is returned in strict mode when a block needs more
// colors than the mode allows.
type PaletteOverflowError struct {
	Row   int
	Col   int
	Mode  c64.Mode
	Limit int
}

func (e *PaletteOverflowError) Error() string {
	return fmt.Sprintf("reduce: more than %d colors in %s block %d, %d", e.Limit, e.Mode, e.Row, e.Col)
}

// HiresCell is the pair of colors used by a hires block. Background is
// whichever of the two appears first in the block.
type HiresCell struct {
	Background uint8
	Foreground uint8
}

// MulticolorCell holds the colors used by a multicolor block, the first is
// always the shared background.
type MulticolorCell struct {
	Colors [4]uint8
}

func checkPalette(p palette.Palette, m c64.Mode) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(p) != c64.Colors {
		return &c64.UnsupportedModeError{Mode: m, Reason: fmt.Sprintf("palette has %d colors, need %d", len(p), c64.Colors)}
	}
	return nil
}

func check(b *raster.Buffer, p palette.Palette, m c64.Mode, opt Options) error {
	if err := checkPalette(p, m); err != nil {
		return err
	}
	if int(opt.Background) >= len(p) {
		return errBadBackground
	}
	return b.Validate()
}

// Count the occurrences of each palette color within r
func tally(b *raster.Buffer, p palette.Palette, r image.Rectangle) []int {
	counts := make([]int, len(p))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			counts[p.MustNearest(b.At(x, y))]++
		}
	}
	return counts
}

// Return the indices of all colors that occur, most frequent first with
// ties going to the lowest index. A negative exclude keeps every color
func rank(counts []int, exclude int) []uint8 {
	var ranked []uint8
	for i, n := range counts {
		if n > 0 && i != exclude {
			ranked = append(ranked, uint8(i))
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	return ranked
}

func contains(s []uint8, c uint8) bool {
	for _, v := range s {
		if v == c {
			return true
		}
	}
	return false
}

// Remap every pixel within r to the nearest of the candidate colors and
// return the position in candidates of the first pixel
func remap(b *raster.Buffer, p palette.Palette, r image.Rectangle, candidates []uint8) int {
	first := -1
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			k := p.NearestOf(b.At(x, y), candidates)
			if first < 0 {
				first = k
			}
			b.Set(x, y, p[candidates[k]])
		}
	}
	return first
}

// Collect the colors of a block in the order they are first seen, seeded
// with any colors already reserved. The nearest color of every pixel is
// stored in idx so it can be written back once the whole image fits
func firstSeen(b *raster.Buffer, p palette.Palette, r image.Rectangle, seen []uint8, limit int, idx []uint8) ([]uint8, bool) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := p.MustNearest(b.At(x, y))
			idx[y*b.Width+x] = c
			if contains(seen, c) {
				continue
			}
			if len(seen) == limit {
				return seen, false
			}
			seen = append(seen, c)
		}
	}
	return seen, true
}

func writeBack(b *raster.Buffer, p palette.Palette, idx []uint8) {
	for i, c := range idx {
		j := i * raster.Channels
		b.Pix[j], b.Pix[j+1], b.Pix[j+2] = p[c].R, p[c].G, p[c].B
	}
}
