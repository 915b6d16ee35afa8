/*
Package prg implements the Commodore 64 program file container.

A program file is a two byte little-endian load address followed by the bytes
to be loaded there. The KERNAL LOAD routine places the data at the load
address when called with a non-zero secondary address.
*/
package prg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	headerSize = 2

	// MaxSize is the most data that fits between the load address and the
	// top of the 64 KB address space
	MaxSize = 0x10000
)

var (
	errNotEnough = errors.New("prg: not enough data")
	errTooMuch   = errors.New("prg: data overflows address space")
)

// File is a single program file. It implements the encoding.BinaryMarshaler,
// encoding.BinaryUnmarshaler and io.WriterTo interfaces.
type File struct {
	Address uint16
	Data    []byte
}

func (f *File) check() error {
	if int(f.Address)+len(f.Data) > MaxSize {
		return fmt.Errorf("%w: $%04x + %d bytes", errTooMuch, f.Address, len(f.Data))
	}
	return nil
}

// MarshalBinary encodes the file into binary form and returns the result
func (f *File) MarshalBinary() ([]byte, error) {
	if err := f.check(); err != nil {
		return nil, err
	}

	b := new(bytes.Buffer)
	if err := binary.Write(b, binary.LittleEndian, f.Address); err != nil {
		return nil, err
	}
	if _, err := b.Write(f.Data); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes the file from binary form
func (f *File) UnmarshalBinary(b []byte) error {
	if len(b) < headerSize {
		return errNotEnough
	}
	f.Address = binary.LittleEndian.Uint16(b)
	f.Data = append([]byte(nil), b[headerSize:]...)
	return f.check()
}

// WriteTo writes the file to w.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	b, err := f.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Read reads a whole program file from r.
func Read(r io.Reader) (*File, error) {
	b, err := io.ReadAll(io.LimitReader(r, MaxSize+headerSize+1))
	if err != nil {
		return nil, err
	}
	f := new(File)
	if err := f.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return f, nil
}

// ReadFile reads the program file at path.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return Read(fh)
}

// WriteFile writes f to path, replacing any existing file.
func WriteFile(path string, f *File) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
