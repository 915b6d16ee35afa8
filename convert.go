package c64conv

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/c64conv/bitmap"
	"github.com/bodgit/c64conv/c64"
	"github.com/bodgit/c64conv/dither"
	"github.com/bodgit/c64conv/loader"
	"github.com/bodgit/c64conv/prg"
	"github.com/bodgit/c64conv/raster"
	"github.com/bodgit/c64conv/reduce"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// The on-disk suffixes of the program files, in the order returned by
// bitmap.Image.Files
var prgSuffixes = [...]string{"image", "color", "d800"}

// Result is the outcome of a conversion.
type Result struct {
	// Buffer holds the converted pixels. Multicolor buffers are at the
	// halved logical resolution
	Buffer *raster.Buffer
	// Image is the memory layout, nil when no mode is selected
	Image      *bitmap.Image
	Background uint8
	// Cached is set when the bitmap came from the catalog
	Cached bool
	// Output is the image file written, which may differ from the
	// requested name if the format wasn't recognised
	Output string
	// Files lists the program and loader files written
	Files []string
}

// Mode returns the mode the result was converted in.
func (r *Result) Mode() c64.Mode {
	if r.Image == nil {
		return c64.None
	}
	return r.Image.Mode()
}

// Display returns the converted pixels at their displayed shape.
func (r *Result) Display() image.Image {
	m := r.Buffer.Image()
	if r.Mode() == c64.Multicolor {
		return Widen(m)
	}
	return m
}

// Convert fits m to the screen and reduces it to the palette and the color
// limits of the mode.
func (c *Converter) Convert(m image.Image) (*Result, error) {
	scaled := Scale(m, c.opt.Mode)

	bg := c.opt.Background
	if c.opt.AutoBackground && (c.opt.Mode == c64.Multicolor || c.opt.LockBackground) {
		bg = AutoBackground(scaled, c.palette)
		c.logger.Debug("picked background", zap.Uint8("color", bg), zap.String("name", c.palette.Name(bg)))
	}

	b := raster.FromImage(scaled)

	switch {
	case c.opt.Dither:
		if err := dither.FloydSteinberg(b, c.palette); err != nil {
			return nil, err
		}
	case c.opt.Mode == c64.None:
		if err := dither.Quantize(b, c.palette); err != nil {
			return nil, err
		}
	}

	r := &Result{
		Buffer:     b,
		Background: bg,
	}
	opt := reduce.Options{
		Strict:         c.opt.Strict,
		Background:     bg,
		LockBackground: c.opt.LockBackground,
	}

	var err error
	switch c.opt.Mode {
	case c64.Hires:
		var cells []reduce.HiresCell
		if cells, err = reduce.Hires(b, c.palette, opt); err != nil {
			return nil, err
		}
		r.Image, err = bitmap.EncodeHires(b, c.palette, cells)
	case c64.Multicolor:
		var cells []reduce.MulticolorCell
		if cells, err = reduce.Multicolor(b, c.palette, opt); err != nil {
			return nil, err
		}
		r.Image, err = bitmap.EncodeMulticolor(b, c.palette, bg, cells)
	}
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (c *Converter) fromCatalog(key Key) (*Result, error) {
	e, err := c.db.Lookup(key)
	if err != nil || e == nil {
		return nil, err
	}

	full, err := bitmap.Decode(e.Image, c.palette)
	if err != nil {
		return nil, err
	}
	b, err := full.Crop(e.Width, e.Height)
	if err != nil {
		return nil, err
	}

	return &Result{
		Buffer:     b,
		Image:      e.Image,
		Background: e.Image.Background,
		Cached:     true,
	}, nil
}

// ConvertFile converts the image in file. If output is not empty the
// converted image is saved there, with the format chosen by its extension.
// Program and loader files are written as the options request.
func (c *Converter) ConvertFile(file, output string) (*Result, error) {
	return c.convertFile(file, output, c.opt.OutDir)
}

// convertFile is ConvertFile writing program and loader files into dir, or
// next to the output or source image if dir is empty.
func (c *Converter) convertFile(file, output, dir string) (*Result, error) {
	writeFiles := c.opt.WritePRG || c.opt.WriteASM
	if writeFiles && c.opt.Mode == c64.None {
		return nil, &c64.UnsupportedModeError{Mode: c.opt.Mode, Reason: "no memory layout"}
	}

	name := output
	if name == "" {
		name = file
	}
	if dir == "" {
		dir = filepath.Dir(name)
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	if writeFiles {
		if err := c.claim(filepath.Join(dir, base), file); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var r *Result
	key := NewKey(data, c.opt)
	if c.db != nil && c.opt.Mode != c64.None {
		if r, err = c.fromCatalog(key); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}

	if r == nil {
		m, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		if r, err = c.Convert(m); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		if c.db != nil && r.Image != nil {
			if err := c.db.Store(key, file, r.Buffer.Width, r.Buffer.Height, r.Image); err != nil {
				return nil, err
			}
		}
	} else {
		c.logger.Debug("found in catalog", zap.String("file", file), zap.String("hash", key.Hash))
	}

	if output != "" {
		if r.Output, err = c.save(r, output); err != nil {
			return nil, err
		}
	}

	if c.opt.WritePRG {
		for i, f := range r.Image.Files() {
			path := filepath.Join(dir, base+prgSuffixes[i]+".prg")
			if err := prg.WriteFile(path, f); err != nil {
				return nil, err
			}
			r.Files = append(r.Files, path)
		}
	}

	if c.opt.WriteASM {
		path := filepath.Join(dir, base+".asm")
		if err := c.writeLoader(path, r.Mode() == c64.Multicolor); err != nil {
			return nil, err
		}
		r.Files = append(r.Files, path)
	}

	c.logger.Info("converted", zap.String("file", file), zap.Stringer("mode", r.Mode()), zap.Int("width", r.Buffer.Width), zap.Int("height", r.Buffer.Height), zap.Bool("cached", r.Cached))

	return r, nil
}

func (c *Converter) save(r *Result, output string) (string, error) {
	if _, err := imaging.FormatFromFilename(output); err != nil {
		c.logger.Warn("unsupported output format, using PNG", zap.String("file", output))
		output += ".png"
	}
	if err := imaging.Save(r.Display(), output); err != nil {
		return "", err
	}
	return output, nil
}

func (c *Converter) writeLoader(path string, multicolor bool) error {
	names, err := loader.NewNames(path, multicolor)
	if err != nil {
		return err
	}
	for _, name := range names.Long() {
		c.logger.Warn("file name too long for a disk directory", zap.String("name", name))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := loader.Generate(f, names); err != nil {
		return err
	}

	return f.Close()
}
