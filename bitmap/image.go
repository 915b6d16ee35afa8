/*
Package bitmap implements the Commodore 64 hires and multicolor bitmap memory
layout encoder and decoder.

The bitmap is 8000 bytes covering 40 by 25 cells. Each cell is stored as 8
consecutive bytes, one per scanline, so the byte holding pixel (x, y) is at

	(y / 8) * 320 + (x / 8) * 8 + (y & 7)

In hires mode each bit selects between the two colors of the cell which are
held in the matching byte of the 1000 byte color RAM; the low nibble is used
for clear bits and the high nibble for set bits.

In multicolor mode pixels are twice as wide and each pair of bits selects one
of four colors: 00 is the shared background, 01 the high nibble of the color
RAM byte, 10 the low nibble and 11 the matching nibble at $D800. This is the
same layout as the Koala Painter format.
*/
package bitmap

import (
	"errors"
	"fmt"

	"github.com/bodgit/c64conv/c64"
	"github.com/bodgit/c64conv/prg"
)

var (
	// ErrTooLarge is returned when the buffer doesn't fit on the screen
	ErrTooLarge = errors.New("bitmap: image is larger than the screen")

	errBadCells      = errors.New("bitmap: cell count doesn't match image")
	errBadBackground = errors.New("bitmap: cell doesn't use the shared background")
	errNotEnough     = errors.New("bitmap: not enough image data")
	errTooMuch       = errors.New("bitmap: too much image data")
	errBadAddress    = errors.New("bitmap: unexpected load address")
)

// Image is the memory image of a converted picture ready to be loaded.
type Image struct {
	// Bitmap is loaded at $2000
	Bitmap []byte
	// ColorRAM holds the per-cell color nibbles and is loaded into the
	// screen matrix at $0400
	ColorRAM []byte
	// D800 holds the multicolor 11 bit pair colors, nil in hires mode
	D800 []byte
	// Background is the color shared by every multicolor cell
	Background uint8
	Multicolor bool
}

func newImage(multicolor bool) *Image {
	m := &Image{
		Bitmap:     make([]byte, c64.BitmapSize),
		ColorRAM:   make([]byte, c64.ColorRAMSize),
		Multicolor: multicolor,
	}
	if multicolor {
		m.D800 = make([]byte, c64.ColorRAMSize)
	}
	return m
}

// Mode returns the display mode of the image.
func (m *Image) Mode() c64.Mode {
	if m.Multicolor {
		return c64.Multicolor
	}
	return c64.Hires
}

// BlockOverflowError is returned when a cell needs more colors than the mode
// allows.
type BlockOverflowError struct {
	Row   int
	Col   int
	Mode  c64.Mode
	Limit int
}

func (e *BlockOverflowError) Error() string {
	return fmt.Sprintf("bitmap: more than %d colors in %s cell %d, %d", e.Limit, e.Mode, e.Row, e.Col)
}

// Offset returns the index in the bitmap of the byte holding screen pixel
// (x, y) and the bit within it. A multicolor pixel at logical x occupies the
// bit for screen pixel 2x and the bit below it.
func Offset(x, y int) (int, uint) {
	row, col, line := y/c64.CellHeight, x/c64.CellWidth, y&7
	return row*c64.BytesPerRow + col*c64.CellHeight + line, uint(7 - x&7)
}

// Files returns the program files that load the image.
//
// The multicolor background is appended to the $D800 data, which puts it
// in the unused color RAM straight after the last cell as Koala Painter does.
func (m *Image) Files() []*prg.File {
	files := []*prg.File{
		{Address: c64.BitmapAddress, Data: m.Bitmap},
		{Address: c64.ColorRAMAddress, Data: m.ColorRAM},
	}
	if m.Multicolor {
		d800 := make([]byte, 0, len(m.D800)+1)
		d800 = append(d800, m.D800...)
		d800 = append(d800, m.Background)
		files = append(files, &prg.File{Address: c64.D800Address, Data: d800})
	}
	return files
}
