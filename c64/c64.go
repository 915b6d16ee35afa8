/*
Package c64 defines the fixed memory layout of the Commodore 64 VIC-II bitmap
modes.

The screen is 320 by 200 pixels split into a grid of 40 by 25 character
cells, each 8 by 8 pixels. The bitmap is 8000 bytes stored cell by cell, eight
consecutive bytes per cell, one byte per scanline. Each cell also owns one
byte of the 1000 byte screen matrix and, in multicolor mode, one nibble of the
1000 byte color RAM at $D800.
*/
package c64

import "fmt"

const (
	ScreenWidth  = 320
	ScreenHeight = 200

	CellWidth  = 8
	CellHeight = 8
	Columns    = ScreenWidth / CellWidth
	Rows       = ScreenHeight / CellHeight
	Cells      = Columns * Rows

	// BytesPerRow is the distance in the bitmap between two rows of cells
	BytesPerRow = Columns * CellHeight

	BitmapSize   = Cells * CellHeight
	ColorRAMSize = Cells

	// MulticolorWidth is the logical width of a multicolor screen where
	// each pixel is two physical pixels wide
	MulticolorWidth      = ScreenWidth / 2
	MulticolorBlockWidth = CellWidth / 2

	// Colors is the number of entries in the hardware palette
	Colors = 16

	BitmapAddress   = 0x2000
	ColorRAMAddress = 0x0400
	D800Address     = 0xd800
)

// Mode selects how an image is reduced and laid out in memory.
type Mode int

const (
	// None quantizes every pixel to the palette without any per-cell
	// color limit
	None Mode = iota
	Hires
	Multicolor
)

// ParseMode returns the Mode named by s.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "none", "":
		return None, nil
	case "hires":
		return Hires, nil
	case "multicolor", "mc", "koala":
		return Multicolor, nil
	}
	return None, fmt.Errorf("c64: unknown mode %q", s)
}

func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Hires:
		return "hires"
	case Multicolor:
		return "multicolor"
	default:
		return "unknown"
	}
}

// BlockSize returns the width and height in buffer pixels of the block over
// which the color limit of m is enforced.
func (m Mode) BlockSize() (int, int) {
	if m == Multicolor {
		return MulticolorBlockWidth, CellHeight
	}
	return CellWidth, CellHeight
}

// Limit returns the maximum number of distinct colors per block.
func (m Mode) Limit() int {
	switch m {
	case Hires:
		return 2
	case Multicolor:
		return 4
	}
	return Colors
}

// Width returns the buffer width that covers the whole screen in mode m.
func (m Mode) Width() int {
	if m == Multicolor {
		return MulticolorWidth
	}
	return ScreenWidth
}

// UnsupportedModeError is returned when a mode is combined with something it
// cannot work with, such as a palette that is not 16 colors.
type UnsupportedModeError struct {
	Mode   Mode
	Reason string
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("c64: %s mode: %s", e.Mode, e.Reason)
}
