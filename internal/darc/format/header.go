// Package format implements the on-disk DXA/WOLF archive header and
// directory-block layout: fixed header fields, filename interning, and
// the pre-order file/directory tables described by the archive's
// directory block.
package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic is the two-byte signature every valid archive begins with.
var Magic = [2]byte{'D', 'X'}

// ErrNotAnArchive is returned when a stream's first two bytes are not "DX".
var ErrNotAnArchive = errors.New("format: not an archive (bad magic)")

// ErrUnsupportedVersion is returned for a header version with no known
// VersionProfile.
var ErrUnsupportedVersion = errors.New("format: unsupported archive version")

// Code flag bits within Header.CodeFlags.
const (
	FlagNoEncryption uint16 = 1 << 0
	FlagChaChaCipher uint16 = 1 << 1
)

// FieldWidths selects 32-bit or 64-bit size/offset fields, gated by
// version rather than inferred from payload magnitude.
type FieldWidths struct {
	DataStart64 bool
}

// Header is the fixed-layout prefix of an archive file.
type Header struct {
	Magic            [2]byte
	Version          uint16
	HeaderSize       uint32 // size on disk of the compressed+encrypted directory block
	DirectoryOffset  uint32 // file offset where the directory block begins
	DataStart        uint64 // file offset of the first payload byte (32-bit on disk for v5)
	FileTableOffset  uint32 // offset of fileTable within the decompressed directory block
	DirTableOffset   uint32 // offset of dirTable within the decompressed directory block
	CodeFlags        uint16
	HuffmanThreshold uint8
}

// HeaderLen returns the on-disk header size for the given field widths:
// the dataStart field is 4 bytes under v5, 8 bytes under v6+.
func HeaderLen(widths FieldWidths) int {
	dataStartLen := 4
	if widths.DataStart64 {
		dataStartLen = 8
	}
	// magic(2) + version(2) + headerSize(4) + directoryOffset(4) +
	// dataStart(4 or 8) + fileTableOffset(4) + dirTableOffset(4) +
	// codeFlags(2) + huffmanThreshold(1) + reserved(1)
	return 2 + 2 + 4 + 4 + dataStartLen + 4 + 4 + 2 + 1 + 1
}

// ReadHeader reads and validates the fixed header from r. It fails with
// ErrNotAnArchive if the magic doesn't match "DX".
func ReadHeader(r io.Reader, widths FieldWidths) (*Header, error) {
	h := &Header{}

	if _, err := io.ReadFull(r, h.Magic[:]); err != nil {
		return nil, fmt.Errorf("format: reading magic: %w", err)
	}
	if h.Magic != Magic {
		return nil, fmt.Errorf("%w: got %q", ErrNotAnArchive, h.Magic)
	}

	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return nil, fmt.Errorf("format: reading version: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.HeaderSize); err != nil {
		return nil, fmt.Errorf("format: reading header size: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.DirectoryOffset); err != nil {
		return nil, fmt.Errorf("format: reading directory offset: %w", err)
	}

	if widths.DataStart64 {
		if err := binary.Read(r, binary.LittleEndian, &h.DataStart); err != nil {
			return nil, fmt.Errorf("format: reading data start: %w", err)
		}
	} else {
		var v uint32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, fmt.Errorf("format: reading data start: %w", err)
		}
		h.DataStart = uint64(v)
	}

	if err := binary.Read(r, binary.LittleEndian, &h.FileTableOffset); err != nil {
		return nil, fmt.Errorf("format: reading file table offset: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.DirTableOffset); err != nil {
		return nil, fmt.Errorf("format: reading dir table offset: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.CodeFlags); err != nil {
		return nil, fmt.Errorf("format: reading code flags: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.HuffmanThreshold); err != nil {
		return nil, fmt.Errorf("format: reading huffman threshold: %w", err)
	}
	var reserved uint8
	if err := binary.Read(r, binary.LittleEndian, &reserved); err != nil {
		return nil, fmt.Errorf("format: reading reserved byte: %w", err)
	}

	return h, nil
}

// WriteHeader serializes h to w using the given field widths.
func WriteHeader(w io.Writer, h *Header, widths FieldWidths) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return fmt.Errorf("format: writing magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h.Version); err != nil {
		return fmt.Errorf("format: writing version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h.HeaderSize); err != nil {
		return fmt.Errorf("format: writing header size: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h.DirectoryOffset); err != nil {
		return fmt.Errorf("format: writing directory offset: %w", err)
	}

	if widths.DataStart64 {
		if err := binary.Write(w, binary.LittleEndian, h.DataStart); err != nil {
			return fmt.Errorf("format: writing data start: %w", err)
		}
	} else {
		if err := binary.Write(w, binary.LittleEndian, uint32(h.DataStart)); err != nil {
			return fmt.Errorf("format: writing data start: %w", err)
		}
	}

	if err := binary.Write(w, binary.LittleEndian, h.FileTableOffset); err != nil {
		return fmt.Errorf("format: writing file table offset: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h.DirTableOffset); err != nil {
		return fmt.Errorf("format: writing dir table offset: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h.CodeFlags); err != nil {
		return fmt.Errorf("format: writing code flags: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h.HuffmanThreshold); err != nil {
		return fmt.Errorf("format: writing huffman threshold: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(0)); err != nil {
		return fmt.Errorf("format: writing reserved byte: %w", err)
	}

	return nil
}
