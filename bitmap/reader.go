package bitmap

import (
	"github.com/bodgit/c64conv/c64"
	"github.com/bodgit/c64conv/palette"
	"github.com/bodgit/c64conv/prg"
	"github.com/bodgit/c64conv/raster"
)

func upperNibble(b byte) byte {
	return b >> 4
}

func lowerNibble(b byte) byte {
	return b & 0x0f
}

func (m *Image) check() error {
	switch {
	case len(m.Bitmap) < c64.BitmapSize, len(m.ColorRAM) < c64.ColorRAMSize:
		return errNotEnough
	case len(m.Bitmap) > c64.BitmapSize, len(m.ColorRAM) > c64.ColorRAMSize:
		return errTooMuch
	case m.Multicolor && len(m.D800) < c64.ColorRAMSize:
		return errNotEnough
	case m.Multicolor && len(m.D800) > c64.ColorRAMSize:
		return errTooMuch
	}
	return nil
}

// Decode renders the whole screen of m. Hires images are 320 by 200 pixels
// and multicolor images are 160 by 200 double-wide pixels.
func Decode(m *Image, p palette.Palette) (*raster.Buffer, error) {
	if err := checkPalette(p, m.Mode()); err != nil {
		return nil, err
	}
	if err := m.check(); err != nil {
		return nil, err
	}

	b, err := raster.New(m.Mode().Width(), c64.ScreenHeight)
	if err != nil {
		return nil, err
	}

	for y := 0; y < b.Height; y++ {
		row := y / c64.CellHeight
		for x := 0; x < b.Width; x++ {
			var c byte
			if m.Multicolor {
				cell := row*c64.Columns + x/c64.MulticolorBlockWidth
				i, bit := Offset(x<<1, y)
				switch m.Bitmap[i] >> (bit - 1) & 0x03 {
				case 0:
					c = m.Background
				case 1:
					c = upperNibble(m.ColorRAM[cell])
				case 2:
					c = lowerNibble(m.ColorRAM[cell])
				case 3:
					c = lowerNibble(m.D800[cell])
				}
			} else {
				cell := row*c64.Columns + x/c64.CellWidth
				i, bit := Offset(x, y)
				if m.Bitmap[i]>>bit&0x01 == 1 {
					c = upperNibble(m.ColorRAM[cell])
				} else {
					c = lowerNibble(m.ColorRAM[cell])
				}
			}
			b.Set(x, y, p[c&0x0f])
		}
	}

	return b, nil
}

func expect(f *prg.File, address uint16, size int) error {
	switch {
	case f.Address != address:
		return errBadAddress
	case len(f.Data) < size:
		return errNotEnough
	case len(f.Data) > size:
		return errTooMuch
	}
	return nil
}

// FromFiles rebuilds an image from its program files. Two files are a hires
// image, a third $D800 file makes it multicolor.
func FromFiles(files ...*prg.File) (*Image, error) {
	if len(files) < 2 {
		return nil, errNotEnough
	}
	if len(files) > 3 {
		return nil, errTooMuch
	}

	if err := expect(files[0], c64.BitmapAddress, c64.BitmapSize); err != nil {
		return nil, err
	}
	if err := expect(files[1], c64.ColorRAMAddress, c64.ColorRAMSize); err != nil {
		return nil, err
	}

	m := &Image{
		Bitmap:   files[0].Data,
		ColorRAM: files[1].Data,
	}

	if len(files) == 3 {
		if err := expect(files[2], c64.D800Address, c64.ColorRAMSize+1); err != nil {
			return nil, err
		}
		m.Multicolor = true
		m.D800 = files[2].Data[:c64.ColorRAMSize]
		m.Background = lowerNibble(files[2].Data[c64.ColorRAMSize])
	}

	return m, nil
}
