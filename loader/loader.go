/*
Package loader generates a small 6502 assembly program that switches the
VIC-II into bitmap mode and loads the converted image files from the last
used drive.

The program is written to autostart from the stack page so it can be loaded
with LOAD "NAME",8,1 and then loops forever displaying the picture.
*/
package loader

import (
	_ "embed"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"text/template"
)

// Longest file name the 1541 directory can hold
const maxNameLength = 16

var errEmptyName = errors.New("loader: empty base name")

//go:embed loader.asm.tmpl
var source string

var tmpl = template.Must(template.New("loader").Parse(source))

// Names holds the on-disk names of the files the loader fetches.
type Names struct {
	Image      string
	Color      string
	D800       string
	Multicolor bool
}

// Base returns the upper case name of path without its directory or
// extension.
func Base(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

// NewNames derives the file names from the output path.
func NewNames(path string, multicolor bool) (*Names, error) {
	base := Base(path)
	if base == "" || base == "." {
		return nil, errEmptyName
	}

	n := &Names{
		Image:      base + "IMAGE",
		Color:      base + "COLOR",
		Multicolor: multicolor,
	}
	if multicolor {
		n.D800 = base + "D800"
	}

	return n, nil
}

// Long returns any names that will not fit in a disk directory entry.
func (n *Names) Long() []string {
	var long []string
	for _, s := range []string{n.Image, n.Color, n.D800} {
		if len(s) > maxNameLength {
			long = append(long, s)
		}
	}
	return long
}

// Generate writes the loader source for n to w.
func Generate(w io.Writer, n *Names) error {
	return tmpl.Execute(w, n)
}
