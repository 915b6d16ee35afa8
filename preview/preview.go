// Package preview shows a converted picture in a window.
package preview

import (
	"errors"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const defaultTitle = "c64conv"

var errNoImage = errors.New("preview: no image")

type viewer struct {
	src    image.Image
	screen *ebiten.Image
	width  int
	height int
}

func (v *viewer) Update() error {
	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	if v.screen == nil {
		v.screen = ebiten.NewImageFromImage(v.src)
	}
	screen.DrawImage(v.screen, nil)
}

func (v *viewer) Layout(_, _ int) (int, int) {
	return v.width, v.height
}

// Show opens a window displaying m magnified by scale and blocks until it is
// closed or Escape is pressed.
func Show(m image.Image, title string, scale int) error {
	if m == nil {
		return errNoImage
	}
	if scale < 1 {
		scale = 1
	}
	if title == "" {
		title = defaultTitle
	}

	bounds := m.Bounds()
	v := &viewer{
		src:    m,
		width:  bounds.Dx(),
		height: bounds.Dy(),
	}

	ebiten.SetWindowSize(v.width*scale, v.height*scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowClosingHandled(true)

	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}

	return nil
}
