package reduce

import (
	"github.com/bodgit/c64conv/c64"
	"github.com/bodgit/c64conv/palette"
	"github.com/bodgit/c64conv/raster"
)

// Fill any unused slots after the first n with the next palette index after
// the previous slot that isn't already in use
func fill(p palette.Palette, slots *[4]uint8, n int) {
	for k := n; k < len(slots); k++ {
		c := slots[k-1]
		for {
			c = uint8((int(c) + 1) % len(p))
			if !contains(slots[:k], c) {
				break
			}
		}
		slots[k] = c
	}
}

// Multicolor reduces every 4 by 8 block of b, where each pixel is one
// double-wide multicolor pixel, to the background plus at most three colors
// from p, updating b in place. The chosen colors of each block are returned
// row by row.
func Multicolor(b *raster.Buffer, p palette.Palette, opt Options) ([]MulticolorCell, error) {
	if err := check(b, p, c64.Multicolor, opt); err != nil {
		return nil, err
	}
	if opt.Strict {
		return multicolorStrict(b, p, opt)
	}

	cols, rows := b.Blocks(c64.MulticolorBlockWidth, c64.CellHeight)
	cells := make([]MulticolorCell, 0, cols*rows)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			r := b.Block(col, row, c64.MulticolorBlockWidth, c64.CellHeight)

			slots := [4]uint8{opt.Background}
			n := 1 + copy(slots[1:], rank(tally(b, p, r), int(opt.Background)))
			fill(p, &slots, n)

			remap(b, p, r, slots[:])
			cells = append(cells, MulticolorCell{Colors: slots})
		}
	}

	return cells, nil
}

func multicolorStrict(b *raster.Buffer, p palette.Palette, opt Options) ([]MulticolorCell, error) {
	cols, rows := b.Blocks(c64.MulticolorBlockWidth, c64.CellHeight)
	cells := make([]MulticolorCell, 0, cols*rows)
	idx := make([]uint8, b.Width*b.Height)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			r := b.Block(col, row, c64.MulticolorBlockWidth, c64.CellHeight)
			seen, ok := firstSeen(b, p, r, []uint8{opt.Background}, 4, idx)
			if !ok {
				return nil, &PaletteOverflowError{Row: row, Col: col, Mode: c64.Multicolor, Limit: 4}
			}

			var slots [4]uint8
			n := copy(slots[:], seen)
			fill(p, &slots, n)
			cells = append(cells, MulticolorCell{Colors: slots})
		}
	}

	writeBack(b, p, idx)

	return cells, nil
}
