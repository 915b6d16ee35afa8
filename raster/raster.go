/*
Package raster implements a flat RGB pixel buffer.

Pixels are stored row by row, three bytes per pixel, with no padding between
rows so the buffer is always exactly width * height * 3 bytes.
*/
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/c64conv/palette"
)

// Channels is the number of bytes per pixel
const Channels = 3

var errBadDimensions = errors.New("raster: invalid dimensions")

// Buffer is a mutable RGB24 image.
type Buffer struct {
	Pix    []byte
	Width  int
	Height int
}

// New returns a black buffer of the given size.
func New(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, errBadDimensions
	}
	return &Buffer{
		Pix:    make([]byte, width*height*Channels),
		Width:  width,
		Height: height,
	}, nil
}

// Validate checks the pixel slice matches the dimensions.
func (b *Buffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return errBadDimensions
	}
	if len(b.Pix) != b.Width*b.Height*Channels {
		return fmt.Errorf("raster: have %d bytes, want %d for %dx%d", len(b.Pix), b.Width*b.Height*Channels, b.Width, b.Height)
	}
	return nil
}

// Offset returns the index in Pix of the first byte of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * Channels
}

// At returns the color of pixel (x, y).
func (b *Buffer) At(x, y int) palette.RGB {
	i := b.Offset(x, y)
	return palette.RGB{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2]}
}

// Set changes the color of pixel (x, y).
func (b *Buffer) Set(x, y int, c palette.RGB) {
	i := b.Offset(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2] = c.R, c.G, c.B
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	dup := *b
	dup.Pix = append([]byte(nil), b.Pix...)
	return &dup
}

// Block returns the rectangle of the block at block coordinates (col, row)
// clipped to the buffer.
func (b *Buffer) Block(col, row, width, height int) image.Rectangle {
	r := image.Rect(col*width, row*height, col*width+width, row*height+height)
	return r.Intersect(image.Rect(0, 0, b.Width, b.Height))
}

// Blocks returns the number of block columns and rows needed to cover the
// buffer, including partial blocks at the edges.
func (b *Buffer) Blocks(width, height int) (int, int) {
	return (b.Width + width - 1) / width, (b.Height + height - 1) / height
}

// FromImage copies m into a new buffer, dropping any alpha channel.
func FromImage(m image.Image) *Buffer {
	bounds := m.Bounds()

	// Normalise to NRGBA so the alpha premultiplication doesn't darken
	// translucent pixels
	src, ok := m.(*image.NRGBA)
	if !ok {
		src = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(src, src.Bounds(), m, bounds.Min, draw.Src)
	}

	b := &Buffer{
		Pix:    make([]byte, bounds.Dx()*bounds.Dy()*Channels),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			i := src.PixOffset(src.Rect.Min.X+x, src.Rect.Min.Y+y)
			j := b.Offset(x, y)
			copy(b.Pix[j:j+Channels], src.Pix[i:i+Channels])
		}
	}
	return b
}

// Image returns a copy of the buffer as an opaque image.
func (b *Buffer) Image() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := b.At(x, y)
			m.SetNRGBA(x, y, color.NRGBA{c.R, c.G, c.B, 0xff})
		}
	}
	return m
}

// Paletted returns a copy of the buffer as a paletted image using p.
func (b *Buffer) Paletted(p palette.Palette) *image.Paletted {
	m := image.NewPaletted(image.Rect(0, 0, b.Width, b.Height), p.ColorPalette())
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			m.SetColorIndex(x, y, p.Index(b.At(x, y)))
		}
	}
	return m
}

// Colors returns the set of distinct colors within r.
func (b *Buffer) Colors(r image.Rectangle) map[palette.RGB]int {
	colors := make(map[palette.RGB]int)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			colors[b.At(x, y)]++
		}
	}
	return colors
}

// Crop returns a copy of the top-left width by height pixels of the buffer.
func (b *Buffer) Crop(width, height int) (*Buffer, error) {
	if width > b.Width || height > b.Height {
		return nil, errBadDimensions
	}
	dup, err := New(width, height)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		copy(dup.Pix[dup.Offset(0, y):dup.Offset(0, y+1)], b.Pix[b.Offset(0, y):])
	}
	return dup, nil
}
