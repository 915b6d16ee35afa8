package reduce

import (
	"github.com/bodgit/c64conv/c64"
	"github.com/bodgit/c64conv/palette"
	"github.com/bodgit/c64conv/raster"
)

// The second color of a block that only uses one
func hiresFallback(p palette.Palette, c uint8) uint8 {
	return uint8((int(c) + len(p)/2) % len(p))
}

// Hires reduces every 8 by 8 block of b to at most two colors from p,
// updating b in place. The chosen colors of each block are returned row by
// row.
func Hires(b *raster.Buffer, p palette.Palette, opt Options) ([]HiresCell, error) {
	if err := check(b, p, c64.Hires, opt); err != nil {
		return nil, err
	}
	if opt.Strict {
		return hiresStrict(b, p, opt)
	}

	cols, rows := b.Blocks(c64.CellWidth, c64.CellHeight)
	cells := make([]HiresCell, 0, cols*rows)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			r := b.Block(col, row, c64.CellWidth, c64.CellHeight)
			counts := tally(b, p, r)

			var pair [2]uint8
			if opt.LockBackground {
				pair[0] = opt.Background
				if ranked := rank(counts, int(opt.Background)); len(ranked) > 0 {
					pair[1] = ranked[0]
				} else {
					pair[1] = hiresFallback(p, pair[0])
				}
			} else {
				ranked := rank(counts, -1)
				pair[0] = ranked[0]
				if len(ranked) > 1 {
					pair[1] = ranked[1]
				} else {
					pair[1] = hiresFallback(p, pair[0])
				}
			}

			first := remap(b, p, r, pair[:])
			if opt.LockBackground {
				first = 0
			}
			cells = append(cells, HiresCell{
				Background: pair[first],
				Foreground: pair[1-first],
			})
		}
	}

	return cells, nil
}

func hiresStrict(b *raster.Buffer, p palette.Palette, opt Options) ([]HiresCell, error) {
	cols, rows := b.Blocks(c64.CellWidth, c64.CellHeight)
	cells := make([]HiresCell, 0, cols*rows)
	idx := make([]uint8, b.Width*b.Height)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			var seen []uint8
			if opt.LockBackground {
				seen = append(seen, opt.Background)
			}

			seen, ok := firstSeen(b, p, b.Block(col, row, c64.CellWidth, c64.CellHeight), seen, 2, idx)
			if !ok {
				return nil, &PaletteOverflowError{Row: row, Col: col, Mode: c64.Hires, Limit: 2}
			}
			if len(seen) == 1 {
				seen = append(seen, hiresFallback(p, seen[0]))
			}
			cells = append(cells, HiresCell{Background: seen[0], Foreground: seen[1]})
		}
	}

	writeBack(b, p, idx)

	return cells, nil
}
