package reduce

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/bodgit/c64conv/c64"
	"github.com/bodgit/c64conv/palette"
	"github.com/bodgit/c64conv/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Build a buffer from rows of palette indices
func fromIndices(t *testing.T, p palette.Palette, rows [][]uint8) *raster.Buffer {
	t.Helper()
	b, err := raster.New(len(rows[0]), len(rows))
	require.NoError(t, err)
	for y, row := range rows {
		for x, c := range row {
			b.Set(x, y, p[c])
		}
	}
	return b
}

func solid(w, h int, c uint8) [][]uint8 {
	rows := make([][]uint8, h)
	for y := range rows {
		rows[y] = make([]uint8, w)
		for x := range rows[y] {
			rows[y][x] = c
		}
	}
	return rows
}

func noise(t *testing.T, w, h int) *raster.Buffer {
	t.Helper()
	r := rand.New(rand.NewSource(64))
	b, err := raster.New(w, h)
	require.NoError(t, err)
	r.Read(b.Pix)
	return b
}

func blockColors(b *raster.Buffer, p palette.Palette, col, row, w, h int) map[uint8]struct{} {
	colors := make(map[uint8]struct{})
	for c := range b.Colors(b.Block(col, row, w, h)) {
		colors[p.MustNearest(c)] = struct{}{}
	}
	return colors
}

func TestHiresLimit(t *testing.T) {
	p := palette.C64()
	b := noise(t, 36, 20)

	cells, err := Hires(b, p, Options{})
	require.NoError(t, err)

	cols, rows := b.Blocks(c64.CellWidth, c64.CellHeight)
	require.Equal(t, 5, cols)
	require.Equal(t, 3, rows)
	require.Len(t, cells, cols*rows)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell := cells[row*cols+col]
			assert.NotEqual(t, cell.Background, cell.Foreground)

			colors := blockColors(b, p, col, row, c64.CellWidth, c64.CellHeight)
			assert.LessOrEqual(t, len(colors), 2)
			for c := range colors {
				assert.Contains(t, []uint8{cell.Background, cell.Foreground}, c)
			}
		}
	}

	// Every pixel is now exactly a palette color
	for c := range b.Colors(b.Block(0, 0, b.Width, b.Height)) {
		assert.Equal(t, c, p[p.MustNearest(c)])
	}
}

func TestHiresIdempotent(t *testing.T) {
	p := palette.C64()
	b := noise(t, 32, 16)

	cells, err := Hires(b, p, Options{})
	require.NoError(t, err)

	again := b.Clone()
	cells2, err := Hires(again, p, Options{})
	require.NoError(t, err)

	assert.Equal(t, b.Pix, again.Pix)
	assert.Equal(t, cells, cells2)
}

func TestHiresRanking(t *testing.T) {
	p := palette.C64()

	rows := solid(8, 8, palette.Red)
	rows[0][0] = palette.White
	for x := 1; x < 8; x++ {
		rows[1][x] = palette.White
		rows[2][x] = palette.White
	}
	rows[7][6] = palette.Black
	rows[7][7] = palette.Black
	b := fromIndices(t, p, rows)

	cells, err := Hires(b, p, Options{})
	require.NoError(t, err)
	require.Len(t, cells, 1)

	// White is seen first even though red is more frequent
	assert.Equal(t, HiresCell{Background: palette.White, Foreground: palette.Red}, cells[0])
	assert.Equal(t, p[palette.Red], b.At(6, 7))
	assert.Equal(t, p[palette.Red], b.At(7, 7))
	assert.Equal(t, p[palette.White], b.At(0, 0))
}

func TestHiresTie(t *testing.T) {
	p := palette.C64()

	rows := solid(8, 8, palette.Green)
	for x := 0; x < 8; x++ {
		rows[0][x] = palette.Yellow
		rows[1][x] = palette.Blue
		rows[2][x] = palette.Purple
	}
	b := fromIndices(t, p, rows)

	cells, err := Hires(b, p, Options{})
	require.NoError(t, err)

	// Purple, Blue and Yellow have the same count so the lowest index wins
	// the second slot
	colors := blockColors(b, p, 0, 0, 8, 8)
	assert.Len(t, colors, 2)
	assert.Contains(t, colors, palette.Green)
	assert.Contains(t, colors, palette.Purple)
	assert.Equal(t, HiresCell{Background: palette.Purple, Foreground: palette.Green}, cells[0])
}

func TestHiresSolid(t *testing.T) {
	p := palette.C64()
	b := fromIndices(t, p, solid(8, 8, palette.Blue))

	cells, err := Hires(b, p, Options{})
	require.NoError(t, err)
	assert.Equal(t, HiresCell{Background: palette.Blue, Foreground: palette.LightBlue}, cells[0])

	cells, err = Hires(b, p, Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, HiresCell{Background: palette.Blue, Foreground: palette.LightBlue}, cells[0])
}

func TestHiresLockBackground(t *testing.T) {
	p := palette.C64()

	rows := solid(8, 8, palette.Red)
	for x := 0; x < 8; x++ {
		rows[0][x] = palette.White
	}
	b := fromIndices(t, p, rows)

	// Without the lock the background isn't reserved
	free := b.Clone()
	cells, err := Hires(free, p, Options{Background: palette.Black})
	require.NoError(t, err)
	assert.Equal(t, HiresCell{Background: palette.White, Foreground: palette.Red}, cells[0])

	cells, err = Hires(b, p, Options{Background: palette.Black, LockBackground: true})
	require.NoError(t, err)
	assert.Equal(t, HiresCell{Background: palette.Black, Foreground: palette.Red}, cells[0])

	colors := blockColors(b, p, 0, 0, 8, 8)
	assert.Len(t, colors, 1)
	assert.Contains(t, colors, palette.Red)
}

func TestHiresPartialBlocks(t *testing.T) {
	p := palette.C64()
	b := noise(t, 10, 10)

	cells, err := Hires(b, p, Options{})
	require.NoError(t, err)
	assert.Len(t, cells, 4)

	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			assert.LessOrEqual(t, len(blockColors(b, p, col, row, 8, 8)), 2)
		}
	}
}

func TestHiresStrict(t *testing.T) {
	p := palette.C64()

	rows := solid(16, 8, palette.Black)
	rows[0][3] = palette.White
	rows[2][12] = palette.Cyan
	b := fromIndices(t, p, rows)

	cells, err := Hires(b, p, Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, []HiresCell{
		{Background: palette.Black, Foreground: palette.White},
		{Background: palette.Black, Foreground: palette.Cyan},
	}, cells)

	rows[5][9] = palette.Red
	b = fromIndices(t, p, rows)
	before := b.Clone()

	_, err = Hires(b, p, Options{Strict: true})
	require.Error(t, err)

	var pErr *PaletteOverflowError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, 0, pErr.Row)
	assert.Equal(t, 1, pErr.Col)
	assert.Equal(t, c64.Hires, pErr.Mode)
	assert.Equal(t, 2, pErr.Limit)

	// Nothing is written when a block fails
	assert.Equal(t, before.Pix, b.Pix)
}

func TestHiresStrictSnaps(t *testing.T) {
	p := palette.C64()

	b, err := raster.New(8, 8)
	require.NoError(t, err)
	b.Set(4, 4, palette.RGB{R: 0xf0, G: 0xf0, B: 0xf0})

	cells, err := Hires(b, p, Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, HiresCell{Background: palette.Black, Foreground: palette.White}, cells[0])
	assert.Equal(t, p[palette.White], b.At(4, 4))
}

func TestMulticolorLimit(t *testing.T) {
	p := palette.C64()
	b := noise(t, 18, 20)

	cells, err := Multicolor(b, p, Options{Background: palette.Blue})
	require.NoError(t, err)

	cols, rows := b.Blocks(c64.MulticolorBlockWidth, c64.CellHeight)
	require.Len(t, cells, cols*rows)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell := cells[row*cols+col]
			assert.Equal(t, palette.Blue, cell.Colors[0])

			colors := blockColors(b, p, col, row, c64.MulticolorBlockWidth, c64.CellHeight)
			assert.LessOrEqual(t, len(colors), 4)
			for c := range colors {
				assert.Contains(t, cell.Colors[:], c)
			}

			seen := make(map[uint8]bool)
			for _, c := range cell.Colors {
				assert.False(t, seen[c], "duplicate color %d", c)
				seen[c] = true
			}
		}
	}
}

func TestMulticolorRanking(t *testing.T) {
	p := palette.C64()

	rows := solid(4, 8, palette.Black)
	for x := 0; x < 4; x++ {
		rows[0][x] = palette.Red
		rows[1][x] = palette.Red
		rows[2][x] = palette.Green
		rows[3][x] = palette.White
		rows[4][x] = palette.White
		rows[5][x] = palette.White
	}
	rows[6][0] = palette.Yellow
	b := fromIndices(t, p, rows)

	cells, err := Multicolor(b, p, Options{Background: palette.Black})
	require.NoError(t, err)
	assert.Equal(t, [4]uint8{palette.Black, palette.White, palette.Red, palette.Green}, cells[0].Colors)

	// Yellow is closest to white of the four
	assert.Equal(t, p[palette.White], b.At(0, 6))
}

func TestMulticolorFill(t *testing.T) {
	p := palette.C64()

	tables := map[string]struct {
		rows       [][]uint8
		background uint8
		want       [4]uint8
	}{
		"background only": {solid(4, 8, palette.Black), palette.Black, [4]uint8{0, 1, 2, 3}},
		"wrap":            {solid(4, 8, palette.LightGrey), palette.LightGrey, [4]uint8{15, 0, 1, 2}},
		"one color": {
			func() [][]uint8 {
				rows := solid(4, 8, palette.Black)
				rows[3][2] = palette.Red
				return rows
			}(),
			palette.Black,
			[4]uint8{0, 2, 3, 4},
		},
		"skip used": {
			func() [][]uint8 {
				rows := solid(4, 8, palette.White)
				rows[0][0] = palette.Black
				return rows
			}(),
			palette.Red,
			[4]uint8{2, 1, 0, 3},
		},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			b := fromIndices(t, p, table.rows)
			cells, err := Multicolor(b, p, Options{Background: table.background})
			require.NoError(t, err)
			assert.Equal(t, table.want, cells[0].Colors)
		})
	}
}

func TestMulticolorStrict(t *testing.T) {
	p := palette.C64()

	rows := solid(8, 16, palette.Blue)
	rows[0][0] = palette.White
	rows[0][1] = palette.Red
	rows[1][0] = palette.Green
	b := fromIndices(t, p, rows)

	cells, err := Multicolor(b, p, Options{Strict: true, Background: palette.Blue})
	require.NoError(t, err)
	require.Len(t, cells, 4)
	assert.Equal(t, [4]uint8{palette.Blue, palette.White, palette.Red, palette.Green}, cells[0].Colors)
	assert.Equal(t, [4]uint8{palette.Blue, palette.Yellow, palette.Orange, palette.Brown}, cells[1].Colors)

	rows[12][5] = palette.Black
	rows[13][6] = palette.White
	rows[14][7] = palette.Red
	rows[15][4] = palette.Green
	b = fromIndices(t, p, rows)

	_, err = Multicolor(b, p, Options{Strict: true, Background: palette.Blue})
	require.Error(t, err)

	var pErr *PaletteOverflowError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, 1, pErr.Row)
	assert.Equal(t, 1, pErr.Col)
	assert.Equal(t, c64.Multicolor, pErr.Mode)
	assert.Equal(t, 4, pErr.Limit)
}

func TestInvalid(t *testing.T) {
	p := palette.C64()
	b := noise(t, 8, 8)

	_, err := Multicolor(b, p, Options{Background: 16})
	assert.Error(t, err)

	_, err = Hires(b, p[:8], Options{})
	var mErr *c64.UnsupportedModeError
	assert.True(t, errors.As(err, &mErr))

	_, err = Hires(b, nil, Options{})
	var pErr *palette.InvalidPaletteError
	assert.True(t, errors.As(err, &pErr))

	b.Pix = b.Pix[:10]
	_, err = Hires(b, p, Options{})
	assert.Error(t, err)
}
