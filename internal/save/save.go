// save.go - Cartridge save-data backing storage
//
// License: GPLv3 or later

// Package save implements cartridge save-data backing storage: a
// tagged-type file header, a dirty-flag-flushed in-memory image, and
// the SPI-style command interface cartridges use to read and write
// it (spec §4.7 supplement), grounded on
// original_source/spa/src/ds/card/save/{file.rs,mod.rs}.
package save

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

const headerSize = 8

// Save type tag bytes, matching the single-character prefix written
// at the start of a save file (file.rs SMALL_EEPROM_CODE / EEPROM_CODE
// / FLASH_CODE).
const (
	tagSmallEEPROM = 'S'
	tagEEPROM      = 'E'
	tagFlash       = 'F'
)

// Kind names the backing technology a save image emulates.
type Kind int

const (
	SmallEEPROM Kind = iota
	EEPROM
	Flash
)

// Type pairs a Kind with its image size in bytes.
type Type struct {
	Kind Kind
	Size int
}

// header renders the 8-byte tagged-type prefix written at the start
// of every save file: a one-character kind tag followed by a 7-digit
// decimal size (bytes for SmallEEPROM, kibibytes otherwise).
func (t Type) header() [headerSize]byte {
	var tag byte
	var n int
	switch t.Kind {
	case SmallEEPROM:
		tag, n = tagSmallEEPROM, t.Size
	case EEPROM:
		tag, n = tagEEPROM, t.Size/1024
	default:
		tag, n = tagFlash, t.Size/1024
	}
	var out [headerSize]byte
	out[0] = tag
	copy(out[1:], fmt.Sprintf("%07d", n))
	return out
}

// TypeFromFile reads and parses the tagged-type header at the start
// of an already-open save file, per file.rs's type_from_file.
func TypeFromFile(f *os.File) (Type, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Type{}, err
	}
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return Type{}, fmt.Errorf("save: reading header: %w", err)
	}

	n, err := strconv.Atoi(string(buf[1:8]))
	if err != nil {
		return Type{}, fmt.Errorf("save: malformed size field %q: %w", buf[1:8], err)
	}

	switch buf[0] {
	case tagSmallEEPROM:
		return Type{Kind: SmallEEPROM, Size: n}, nil
	case tagEEPROM:
		return Type{Kind: EEPROM, Size: n * 1024}, nil
	case tagFlash:
		return Type{Kind: Flash, Size: n * 1024}, nil
	default:
		return Type{}, fmt.Errorf("save: unknown save type tag %q", buf[0])
	}
}

// File holds the in-memory save image and optionally mirrors it to
// disk on Flush, tracked with a dirty flag so an unmodified image is
// never rewritten (spec §4.7).
type File struct {
	buffer []byte
	file   *os.File
	dirty  bool
}

// FromFile loads size bytes of save data from an already-open file
// positioned past the type header, or returns an empty zeroed image
// if f is nil.
func FromFile(f *os.File, size int) (*File, error) {
	buffer := make([]byte, size)
	if f == nil {
		return &File{buffer: buffer}, nil
	}
	if _, err := f.Seek(headerSize, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(f, buffer); err != nil {
		return nil, fmt.Errorf("save: reading image: %w", err)
	}
	return &File{buffer: buffer, file: f}, nil
}

// Create starts a fresh save file of the given type at path (or an
// unbacked in-memory image if path is empty), writing the tagged
// header immediately.
func Create(path string, t Type) (*File, error) {
	var f *os.File
	if path != "" {
		var err error
		f, err = os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("save: creating save file: %w", err)
		}
		header := t.header()
		if _, err := f.Write(header[:]); err != nil {
			return nil, fmt.Errorf("save: writing header: %w", err)
		}
	}
	return &File{buffer: make([]byte, t.Size), file: f}, nil
}

// ReadByte reads one byte from the save image.
func (s *File) ReadByte(addr uint32) uint8 { return s.buffer[addr] }

// WriteByte writes one byte to the save image and marks it dirty.
func (s *File) WriteByte(addr uint32, data uint8) {
	s.buffer[addr] = data
	s.dirty = true
}

// Flush writes the image back to the backing file if it has been
// modified since the last flush, then clears the dirty flag.
func (s *File) Flush() error {
	if !s.dirty {
		return nil
	}
	s.dirty = false
	if s.file == nil {
		return nil
	}
	if _, err := s.file.Seek(headerSize, io.SeekStart); err != nil {
		return err
	}
	w := bufio.NewWriter(s.file)
	if _, err := w.Write(s.buffer); err != nil {
		return err
	}
	return w.Flush()
}

// Dirty reports whether the image has unflushed writes.
func (s *File) Dirty() bool { return s.dirty }
