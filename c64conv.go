/*
Package c64conv is a library for converting pictures into Commodore 64 hires
and multicolor bitmaps.
*/
package c64conv

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/bodgit/c64conv/c64"
	"github.com/bodgit/c64conv/palette"
	"go.uber.org/zap"
)

// Options control a conversion.
type Options struct {
	Mode   c64.Mode
	Dither bool
	Strict bool
	// Background is the multicolor background, and the reserved hires
	// color with LockBackground
	Background     uint8
	AutoBackground bool
	LockBackground bool
	// OutDir is where program and loader files are written, defaulting
	// to the directory of the output or source image
	OutDir   string
	WritePRG bool
	WriteASM bool
	Workers  int
}

// String returns the options that affect the converted bitmap in a stable
// form, used as part of the catalog key.
func (o Options) String() string {
	background := fmt.Sprint(o.Background)
	if o.AutoBackground {
		background = "auto"
	}
	return fmt.Sprintf("mode=%s dither=%t strict=%t background=%s lock=%t", o.Mode, o.Dither, o.Strict, background, o.LockBackground)
}

// ErrOutputClash is returned when two different sources would write the
// same program or loader files.
var ErrOutputClash = errors.New("c64conv: output already written by another image")

// Converter converts images using a fixed set of options. It is safe for
// concurrent use.
type Converter struct {
	opt     Options
	palette palette.Palette
	db      *Catalog
	logger  *zap.Logger

	mu sync.Mutex
	// Output base path to the source that claimed it
	claimed map[string]string
}

// New returns a Converter. db may be nil to disable the catalog.
func New(opt Options, db *Catalog, logger *zap.Logger) (*Converter, error) {
	if int(opt.Background) >= c64.Colors {
		return nil, fmt.Errorf("c64conv: background %d out of range", opt.Background)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		opt:     opt,
		palette: palette.C64(),
		db:      db,
		logger:  logger,
		claimed: make(map[string]string),
	}, nil
}

// claim reserves the output base path for file. Converting the same file
// again is allowed.
func (c *Converter) claim(base, file string) error {
	base, err := filepath.Abs(base)
	if err != nil {
		return err
	}
	file, err = filepath.Abs(file)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if other, ok := c.claimed[base]; ok && other != file {
		return fmt.Errorf("%w: %s from %s", ErrOutputClash, base, other)
	}
	c.claimed[base] = file

	return nil
}

// Close closes the catalog, if any.
func (c *Converter) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
