package bitmap

import (
	"fmt"

	"github.com/bodgit/c64conv/c64"
	"github.com/bodgit/c64conv/palette"
	"github.com/bodgit/c64conv/raster"
	"github.com/bodgit/c64conv/reduce"
)

func checkPalette(p palette.Palette, m c64.Mode) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(p) != c64.Colors {
		return &c64.UnsupportedModeError{Mode: m, Reason: fmt.Sprintf("palette has %d colors, need %d", len(p), c64.Colors)}
	}
	return nil
}

func checkBuffer(b *raster.Buffer, m c64.Mode, cells int) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Width > m.Width() || b.Height > c64.ScreenHeight {
		return fmt.Errorf("%w: %dx%d in %s mode", ErrTooLarge, b.Width, b.Height, m)
	}
	if cols, rows := b.Blocks(m.BlockSize()); cols*rows != cells {
		return errBadCells
	}
	return nil
}

// EncodeHires lays out b, which must already use no more than the two colors
// of each cell, as a hires bitmap. Pixels that are the cell foreground set
// their bit.
func EncodeHires(b *raster.Buffer, p palette.Palette, cells []reduce.HiresCell) (*Image, error) {
	if err := checkPalette(p, c64.Hires); err != nil {
		return nil, err
	}
	if err := checkBuffer(b, c64.Hires, len(cells)); err != nil {
		return nil, err
	}

	m := newImage(false)
	cols, _ := b.Blocks(c64.CellWidth, c64.CellHeight)

	for y := 0; y < b.Height; y++ {
		row := y / c64.CellHeight
		for x := 0; x < b.Width; x++ {
			col := x / c64.CellWidth
			cell := cells[row*cols+col]

			switch p.MustNearest(b.At(x, y)) {
			case cell.Background:
			case cell.Foreground:
				i, bit := Offset(x, y)
				m.Bitmap[i] |= 1 << bit
			default:
				return nil, &BlockOverflowError{Row: row, Col: col, Mode: c64.Hires, Limit: 2}
			}
		}
	}

	for i, cell := range cells {
		row, col := i/cols, i%cols
		m.ColorRAM[row*c64.Columns+col] = cell.Background&0x0f | (cell.Foreground&0x0f)<<4
	}

	return m, nil
}

// EncodeMulticolor lays out b, where each pixel is one double-wide pixel, as
// a multicolor bitmap. The position of a pixel's color within its cell is
// the bit pair written for it.
func EncodeMulticolor(b *raster.Buffer, p palette.Palette, background uint8, cells []reduce.MulticolorCell) (*Image, error) {
	if err := checkPalette(p, c64.Multicolor); err != nil {
		return nil, err
	}
	if err := checkBuffer(b, c64.Multicolor, len(cells)); err != nil {
		return nil, err
	}
	for _, cell := range cells {
		if cell.Colors[0] != background {
			return nil, errBadBackground
		}
	}

	m := newImage(true)
	m.Background = background & 0x0f
	cols, _ := b.Blocks(c64.MulticolorBlockWidth, c64.CellHeight)

	for y := 0; y < b.Height; y++ {
		row := y / c64.CellHeight
		for x := 0; x < b.Width; x++ {
			col := x / c64.MulticolorBlockWidth
			cell := cells[row*cols+col]

			c := p.MustNearest(b.At(x, y))
			pair := -1
			for k, cc := range cell.Colors {
				if cc == c {
					pair = k
					break
				}
			}
			if pair < 0 {
				return nil, &BlockOverflowError{Row: row, Col: col, Mode: c64.Multicolor, Limit: 4}
			}

			i, bit := Offset(x<<1, y)
			m.Bitmap[i] |= byte(pair) << (bit - 1)
		}
	}

	for i, cell := range cells {
		j := i/cols*c64.Columns + i%cols
		m.ColorRAM[j] = (cell.Colors[1]&0x0f)<<4 | cell.Colors[2]&0x0f
		m.D800[j] = cell.Colors[3] & 0x0f
	}

	return m, nil
}

// Encode lays out b in mode mo, working out the colors of each cell in the
// order they are first seen. Unlike the reducer it never changes a color so
// it fails if any cell has too many. b is not modified.
func Encode(b *raster.Buffer, p palette.Palette, mo c64.Mode, background uint8) (*Image, error) {
	dup := b.Clone()
	opt := reduce.Options{Strict: true, Background: background}

	switch mo {
	case c64.Hires:
		cells, err := reduce.Hires(dup, p, opt)
		if err != nil {
			return nil, err
		}
		return EncodeHires(dup, p, cells)
	case c64.Multicolor:
		cells, err := reduce.Multicolor(dup, p, opt)
		if err != nil {
			return nil, err
		}
		return EncodeMulticolor(dup, p, background, cells)
	}

	return nil, &c64.UnsupportedModeError{Mode: mo, Reason: "no memory layout"}
}
