/*
Package palette implements the Commodore 64 color palette and nearest color
lookup by Euclidean distance in RGB space.

A Palette is an ordered list of colors and is passed explicitly to anything
that needs one; there is no package level mutable state.
*/
package palette

import (
	"fmt"
	"image/color"
	"math"
)

const maxColors = 256

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBA implements the color.Color interface.
func (c RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{c.R, c.G, c.B, 0xff}.RGBA()
}

// Palette is an ordered list of colors, the position of a color is its index.
type Palette []RGB

var c64 = [...]RGB{
	{0x00, 0x00, 0x00},
	{0xff, 0xff, 0xff},
	{0x88, 0x00, 0x00},
	{0xaa, 0xff, 0xee},
	{0xcc, 0x44, 0xcc},
	{0x00, 0xcc, 0x55},
	{0x00, 0x00, 0xaa},
	{0xee, 0xee, 0x77},
	{0xdd, 0x88, 0x55},
	{0x66, 0x44, 0x00},
	{0xff, 0x77, 0x77},
	{0x33, 0x33, 0x33},
	{0x77, 0x77, 0x77},
	{0xaa, 0xff, 0x66},
	{0x00, 0x88, 0xff},
	{0xbb, 0xbb, 0xbb},
}

var names = [...]string{
	"Black", "White", "Red", "Cyan", "Purple", "Green", "Blue", "Yellow",
	"Orange", "Brown", "Light Red", "Dark Grey", "Medium Grey",
	"Light Green", "Light Blue", "Light Grey",
}

// The hardware color indices
const (
	Black uint8 = iota
	White
	Red
	Cyan
	Purple
	Green
	Blue
	Yellow
	Orange
	Brown
	LightRed
	DarkGrey
	MediumGrey
	LightGreen
	LightBlue
	LightGrey
)

// C64 returns a copy of the 16 color Commodore 64 palette.
func C64() Palette {
	p := make(Palette, len(c64))
	copy(p, c64[:])
	return p
}

// InvalidPaletteError is returned when a palette cannot be used for a lookup.
type InvalidPaletteError struct {
	Reason string
}

func (e *InvalidPaletteError) Error() string {
	return "palette: invalid palette: " + e.Reason
}

// Validate checks the palette has between 1 and 256 colors.
func (p Palette) Validate() error {
	switch {
	case len(p) == 0:
		return &InvalidPaletteError{Reason: "no colors"}
	case len(p) > maxColors:
		return &InvalidPaletteError{Reason: fmt.Sprintf("%d colors, the max is %d", len(p), maxColors)}
	}
	return nil
}

// Distance returns the Euclidean distance between two colors.
func Distance(a, b RGB) float64 {
	return math.Sqrt(sqDistance(a, b))
}

func sqDistance(a, b RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return dr*dr + dg*dg + db*db
}

// Nearest returns the index of the color closest to c. Ties resolve to the
// lowest index.
func (p Palette) Nearest(c RGB) (uint8, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return p.nearest(c), nil
}

// MustNearest is like Nearest but panics on an invalid palette. It is for
// callers that have already validated p.
func (p Palette) MustNearest(c RGB) uint8 {
	i, err := p.Nearest(c)
	if err != nil {
		panic(err)
	}
	return i
}

func (p Palette) nearest(c RGB) uint8 {
	best, bestDist := 0, math.MaxFloat64
	for i, pc := range p {
		// Squared distance orders the same as Distance
		if d := sqDistance(c, pc); d < bestDist {
			best, bestDist = i, d
		}
	}
	return uint8(best)
}

// NearestOf returns the position within candidates of the palette color
// closest to c. Ties resolve to the earliest candidate.
func (p Palette) NearestOf(c RGB, candidates []uint8) int {
	best, bestDist := 0, math.MaxFloat64
	for i, ci := range candidates {
		if d := sqDistance(c, p[ci]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Name returns the Commodore 64 name of color i.
func (p Palette) Name(i uint8) string {
	if int(i) < len(names) && int(i) < len(p) && p[i] == c64[i] {
		return names[i]
	}
	return "Unknown"
}

// ColorPalette returns p as a color.Palette for use with image.Paletted.
func (p Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, len(p))
	for i, c := range p {
		cp[i] = c
	}
	return cp
}

// Convert returns the palette color closest to c.
func (p Palette) Convert(c color.Color) RGB {
	return p[p.Index(c)]
}

// Index returns the index of the palette color closest to c, which is
// reduced to 8 bits per channel first.
func (p Palette) Index(c color.Color) uint8 {
	r, g, b, _ := c.RGBA()
	return p.nearest(RGB{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)})
}
