package bitmap

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/bodgit/c64conv/c64"
	"github.com/bodgit/c64conv/palette"
	"github.com/bodgit/c64conv/prg"
	"github.com/bodgit/c64conv/raster"
	"github.com/bodgit/c64conv/reduce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blank(t *testing.T, w, h int) *raster.Buffer {
	t.Helper()
	b, err := raster.New(w, h)
	require.NoError(t, err)
	return b
}

func noise(t *testing.T, w, h int) *raster.Buffer {
	t.Helper()
	r := rand.New(rand.NewSource(6502))
	b := blank(t, w, h)
	r.Read(b.Pix)
	return b
}

func TestOffset(t *testing.T) {
	tables := []struct {
		x, y int
		i    int
		bit  uint
	}{
		{0, 0, 0, 7},
		{7, 0, 0, 0},
		{8, 0, 8, 7},
		{3, 5, 5, 4},
		{3*8 + 3, 2*8 + 5, 2*320 + 3*8 + 5, 4},
		{319, 199, 7999, 0},
	}

	for _, table := range tables {
		i, bit := Offset(table.x, table.y)
		assert.Equal(t, table.i, i, "%d, %d", table.x, table.y)
		assert.Equal(t, table.bit, bit, "%d, %d", table.x, table.y)
	}
}

func TestEncodeHiresLayout(t *testing.T) {
	p := palette.C64()

	b := blank(t, c64.ScreenWidth, c64.ScreenHeight)
	b.Set(3*8+3, 2*8+5, p[palette.White])

	m, err := Encode(b, p, c64.Hires, palette.Black)
	require.NoError(t, err)
	require.Len(t, m.Bitmap, c64.BitmapSize)
	require.Len(t, m.ColorRAM, c64.ColorRAMSize)
	assert.Nil(t, m.D800)
	assert.False(t, m.Multicolor)

	for i, v := range m.Bitmap {
		if i == 2*320+3*8+5 {
			assert.Equal(t, byte(0x10), v)
			continue
		}
		assert.Zero(t, v, "byte %d", i)
	}

	for i, v := range m.ColorRAM {
		if i == 2*40+3 {
			assert.Equal(t, palette.Black|palette.White<<4, v)
			continue
		}
		// Solid black cells get the fallback foreground
		assert.Equal(t, palette.Black|palette.Orange<<4, v, "cell %d", i)
	}
}

func TestEncodeMulticolorLayout(t *testing.T) {
	p := palette.C64()

	b := blank(t, c64.MulticolorWidth, c64.ScreenHeight)
	b.Set(1, 0, p[palette.White])

	m, err := Encode(b, p, c64.Multicolor, palette.Black)
	require.NoError(t, err)
	require.Len(t, m.D800, c64.ColorRAMSize)
	assert.True(t, m.Multicolor)
	assert.Equal(t, palette.Black, m.Background)

	// The second double-wide pixel of the first byte is bit pair 01
	assert.Equal(t, byte(0x10), m.Bitmap[0])
	assert.Equal(t, palette.White<<4|palette.Red, m.ColorRAM[0])
	assert.Equal(t, palette.Cyan, m.D800[0])

	for _, v := range m.Bitmap[1:] {
		assert.Zero(t, v)
	}
}

func TestMulticolorBitPairs(t *testing.T) {
	p := palette.C64()

	b := blank(t, 4, 8)
	b.Set(0, 0, p[palette.Blue])
	b.Set(1, 0, p[palette.Red])
	b.Set(2, 0, p[palette.Green])
	b.Set(3, 0, p[palette.Yellow])

	cells := []reduce.MulticolorCell{{Colors: [4]uint8{palette.Blue, palette.Red, palette.Green, palette.Yellow}}}
	for y := 1; y < 8; y++ {
		for x := 0; x < 4; x++ {
			b.Set(x, y, p[palette.Blue])
		}
	}

	m, err := EncodeMulticolor(b, p, palette.Blue, cells)
	require.NoError(t, err)
	assert.Equal(t, byte(0x1b), m.Bitmap[0])
	assert.Equal(t, palette.Red<<4|palette.Green, m.ColorRAM[0])
	assert.Equal(t, palette.Yellow, m.D800[0])
	assert.Equal(t, palette.Blue, m.Background)
}

func TestRoundTripHires(t *testing.T) {
	p := palette.C64()
	b := noise(t, c64.ScreenWidth, c64.ScreenHeight)

	cells, err := reduce.Hires(b, p, reduce.Options{})
	require.NoError(t, err)

	m, err := EncodeHires(b, p, cells)
	require.NoError(t, err)

	out, err := Decode(m, p)
	require.NoError(t, err)
	assert.Equal(t, b.Width, out.Width)
	assert.Equal(t, b.Height, out.Height)
	assert.Equal(t, b.Pix, out.Pix)
}

func TestRoundTripMulticolor(t *testing.T) {
	p := palette.C64()
	b := noise(t, c64.MulticolorWidth, c64.ScreenHeight)

	cells, err := reduce.Multicolor(b, p, reduce.Options{Background: palette.Blue})
	require.NoError(t, err)

	m, err := EncodeMulticolor(b, p, palette.Blue, cells)
	require.NoError(t, err)

	out, err := Decode(m, p)
	require.NoError(t, err)
	assert.Equal(t, b.Width, out.Width)
	assert.Equal(t, b.Pix, out.Pix)

	// And again via the program files
	m2, err := FromFiles(m.Files()...)
	require.NoError(t, err)
	assert.Equal(t, m, m2)
}

func TestPartialScreen(t *testing.T) {
	p := palette.C64()
	b := noise(t, 100, 50)

	cells, err := reduce.Hires(b, p, reduce.Options{})
	require.NoError(t, err)
	require.Len(t, cells, 13*7)

	m, err := EncodeHires(b, p, cells)
	require.NoError(t, err)

	out, err := Decode(m, p)
	require.NoError(t, err)

	top, err := out.Crop(b.Width, b.Height)
	require.NoError(t, err)
	assert.Equal(t, b.Pix, top.Pix)

	// Cells outside the image are left empty
	assert.Zero(t, m.ColorRAM[c64.ColorRAMSize-1])
}

func TestEncodeErrors(t *testing.T) {
	p := palette.C64()

	_, err := Encode(blank(t, c64.ScreenWidth+1, 8), p, c64.Hires, 0)
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = Encode(blank(t, c64.MulticolorWidth+1, 8), p, c64.Multicolor, 0)
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = Encode(blank(t, 8, 8), p, c64.None, 0)
	var mErr *c64.UnsupportedModeError
	assert.True(t, errors.As(err, &mErr))

	b := blank(t, 8, 8)
	b.Set(1, 1, p[palette.White])
	b.Set(2, 2, p[palette.Red])
	_, err = Encode(b, p, c64.Hires, 0)
	var pErr *reduce.PaletteOverflowError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, 0, pErr.Row)
	assert.Equal(t, 0, pErr.Col)

	_, err = EncodeHires(b, p, []reduce.HiresCell{{Background: palette.Black, Foreground: palette.White}})
	var bErr *BlockOverflowError
	require.True(t, errors.As(err, &bErr))
	assert.Equal(t, c64.Hires, bErr.Mode)
	assert.Equal(t, 2, bErr.Limit)

	_, err = EncodeHires(b, p, nil)
	assert.Error(t, err)

	_, err = EncodeMulticolor(blank(t, 4, 8), p, palette.Blue, []reduce.MulticolorCell{{Colors: [4]uint8{0, 1, 2, 3}}})
	assert.Error(t, err)
}

func TestFiles(t *testing.T) {
	m := newImage(false)
	files := m.Files()
	require.Len(t, files, 2)
	assert.Equal(t, uint16(0x2000), files[0].Address)
	assert.Len(t, files[0].Data, 8000)
	assert.Equal(t, uint16(0x0400), files[1].Address)
	assert.Len(t, files[1].Data, 1000)

	m = newImage(true)
	m.Background = palette.Purple
	files = m.Files()
	require.Len(t, files, 3)
	assert.Equal(t, uint16(0xd800), files[2].Address)
	require.Len(t, files[2].Data, 1001)
	assert.Equal(t, palette.Purple, files[2].Data[1000])
}

func TestFromFilesErrors(t *testing.T) {
	m := newImage(true)
	files := m.Files()

	_, err := FromFiles(files[0])
	assert.Error(t, err)

	_, err = FromFiles(files[1], files[0])
	assert.Error(t, err)

	_, err = FromFiles(files[0], files[1], &prg.File{Address: c64.D800Address, Data: make([]byte, 1000)})
	assert.Error(t, err)

	_, err = FromFiles(append(files, files[2])...)
	assert.Error(t, err)

	hires, err := FromFiles(files[:2]...)
	require.NoError(t, err)
	assert.Equal(t, c64.Hires, hires.Mode())
}

func TestDecodeErrors(t *testing.T) {
	p := palette.C64()

	m := newImage(false)
	m.Bitmap = m.Bitmap[:100]
	_, err := Decode(m, p)
	assert.Error(t, err)

	m = newImage(true)
	m.D800 = nil
	_, err = Decode(m, p)
	assert.Error(t, err)

	_, err = Decode(newImage(false), p[:4])
	assert.Error(t, err)
}
