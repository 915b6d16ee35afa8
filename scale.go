package c64conv

import (
	"image"

	"github.com/bodgit/c64conv/c64"
	"github.com/disintegration/imaging"
)

// Fit returns the largest size with the same aspect ratio as width by height
// that fits the screen.
func Fit(width, height int) (int, int) {
	aspect := float64(width) / float64(height)

	var w, h int
	if aspect > float64(c64.ScreenWidth)/float64(c64.ScreenHeight) {
		w, h = c64.ScreenWidth, int(float64(c64.ScreenWidth)/aspect)
	} else {
		w, h = int(float64(c64.ScreenHeight)*aspect), c64.ScreenHeight
	}

	return max(w, 1), max(h, 1)
}

// Scale resizes m to fit the screen in mode mo. Multicolor pixels are twice
// as wide so the width is halved.
func Scale(m image.Image, mo c64.Mode) *image.NRGBA {
	b := m.Bounds()
	w, h := Fit(b.Dx(), b.Dy())
	if mo == c64.Multicolor {
		w = max(w/2, 1)
	}
	return imaging.Resize(m, w, h, imaging.NearestNeighbor)
}

// Widen doubles the width of m so multicolor pixels display at their true
// shape.
func Widen(m image.Image) *image.NRGBA {
	b := m.Bounds()
	return imaging.Resize(m, b.Dx()*2, b.Dy(), imaging.NearestNeighbor)
}
