package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// RootDirIndex is the sentinel parentDirIndex for entries with no parent
// (the root directory itself).
const RootDirIndex int32 = -1

// FileEntryWidths extends FieldWidths, additionally selecting whether
// file-entry size/offset fields are 32-bit (v5) or 64-bit (v6+), and
// whether entries carry the v≥8 huffmanCompressedSize field.
type FileEntryWidths struct {
	FieldWidths
	SizeFields64  bool
	HasHuffmanTail bool
}

// FileEntry describes one packed file.
type FileEntry struct {
	Name                  string // resolved display name, not itself serialized
	LookupName            string // case-folded name used for lookups
	Attributes            uint32
	CreateTime            uint64
	LastAccessTime        uint64
	LastWriteTime         uint64
	ParentDirIndex        int32
	DataOffset            uint64
	StoredSize            uint64
	OriginalSize          uint64
	CompressedSize        int64 // -1 if not compressed
	HuffmanCompressedSize int64 // -1 if not huffman-coded; ignored pre-v8

	nameOffset uint32 // resolved at parse time, recomputed at serialize time
}

// DirEntry describes one directory in the tree.
type DirEntry struct {
	DirectoryFileEntryIndex int32 // index into Files of the entry representing this directory
	ParentDirIndex          int32
	FileCount               uint32
	FirstFileIndex          uint32
}

// DirectoryBlock is the parsed, in-memory form of the directory block:
// a pre-order dirTable, the fileTable it indexes into, and the filename
// table both reference by offset.
type DirectoryBlock struct {
	Files []FileEntry
	Dirs  []DirEntry
}

// internFilenames builds the filenameTable bytes for all Files, in Files
// order, deduplicating identical (Name) entries, and returns each
// FileEntry's name offset in Files order; the entries themselves are not
// modified.
func internFilenames(files []FileEntry) ([]byte, []uint32) {
	table := make([]byte, 0, 64*len(files))
	offsets := make([]uint32, len(files))
	seen := make(map[string]uint32, len(files))

	for i, f := range files {
		if off, ok := seen[f.Name]; ok {
			offsets[i] = off
			continue
		}

		off := uint32(len(table))
		lookup := []byte(caseFold(f.Name))
		display := []byte(f.Name)

		record := make([]byte, 0, 2+len(lookup)+1+len(display)+1)
		record = binary.LittleEndian.AppendUint16(record, uint16(len(display)))
		record = append(record, lookup...)
		record = append(record, 0)
		record = append(record, display...)
		record = append(record, 0)
		for len(record)%4 != 0 {
			record = append(record, 0)
		}

		table = append(table, record...)
		offsets[i] = off
		seen[f.Name] = off
	}

	return table, offsets
}

// readFilename reads the display and lookup names stored at offset within
// table.
func readFilename(table []byte, offset uint32) (display, lookup string, err error) {
	if int(offset)+2 > len(table) {
		return "", "", fmt.Errorf("format: name offset %d out of range", offset)
	}
	length := int(binary.LittleEndian.Uint16(table[offset : offset+2]))
	pos := int(offset) + 2

	if pos+length+1 > len(table) {
		return "", "", fmt.Errorf("format: truncated lookup name at offset %d", offset)
	}
	lookupBytes := table[pos : pos+length]
	pos += length + 1 // skip NUL

	if pos+length+1 > len(table) {
		return "", "", fmt.Errorf("format: truncated display name at offset %d", offset)
	}
	displayBytes := table[pos : pos+length]

	return string(displayBytes), string(lookupBytes), nil
}

// caseFold implements the archive's case-insensitive lookup rule: ASCII
// letters are uppercased; bytes with the high bit set (as in the legacy
// Shift-JIS-like encoding) pass through unchanged.
func caseFold(name string) string {
	b := []byte(name)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// Serialize encodes block into the three-table byte layout and returns the
// buffer plus the fileTable/dirTable offsets to record in the Header.
func Serialize(block *DirectoryBlock, widths FileEntryWidths) (data []byte, fileTableOffset, dirTableOffset uint32) {
	nameTable, offsets := internFilenames(block.Files)

	fileTableOffset = uint32(len(nameTable))

	var fileBuf bytes.Buffer
	binary.Write(&fileBuf, binary.LittleEndian, uint32(len(block.Files)))
	for i, f := range block.Files {
		writeFileEntry(&fileBuf, f, offsets[i], widths)
	}

	dirTableOffset = fileTableOffset + uint32(fileBuf.Len())

	var dirBuf bytes.Buffer
	binary.Write(&dirBuf, binary.LittleEndian, uint32(len(block.Dirs)))
	for _, d := range block.Dirs {
		binary.Write(&dirBuf, binary.LittleEndian, d.DirectoryFileEntryIndex)
		binary.Write(&dirBuf, binary.LittleEndian, d.ParentDirIndex)
		binary.Write(&dirBuf, binary.LittleEndian, d.FileCount)
		binary.Write(&dirBuf, binary.LittleEndian, d.FirstFileIndex)
	}

	data = make([]byte, 0, len(nameTable)+fileBuf.Len()+dirBuf.Len())
	data = append(data, nameTable...)
	data = append(data, fileBuf.Bytes()...)
	data = append(data, dirBuf.Bytes()...)
	return data, fileTableOffset, dirTableOffset
}

func writeFileEntry(w *bytes.Buffer, f FileEntry, nameOffset uint32, widths FileEntryWidths) {
	binary.Write(w, binary.LittleEndian, nameOffset)
	binary.Write(w, binary.LittleEndian, f.Attributes)
	binary.Write(w, binary.LittleEndian, f.CreateTime)
	binary.Write(w, binary.LittleEndian, f.LastAccessTime)
	binary.Write(w, binary.LittleEndian, f.LastWriteTime)
	binary.Write(w, binary.LittleEndian, f.ParentDirIndex)

	if widths.SizeFields64 {
		binary.Write(w, binary.LittleEndian, f.DataOffset)
		binary.Write(w, binary.LittleEndian, f.StoredSize)
		binary.Write(w, binary.LittleEndian, f.OriginalSize)
		binary.Write(w, binary.LittleEndian, f.CompressedSize)
		if widths.HasHuffmanTail {
			binary.Write(w, binary.LittleEndian, f.HuffmanCompressedSize)
		}
	} else {
		binary.Write(w, binary.LittleEndian, uint32(f.DataOffset))
		binary.Write(w, binary.LittleEndian, uint32(f.StoredSize))
		binary.Write(w, binary.LittleEndian, uint32(f.OriginalSize))
		binary.Write(w, binary.LittleEndian, int32(f.CompressedSize))
		if widths.HasHuffmanTail {
			binary.Write(w, binary.LittleEndian, int32(f.HuffmanCompressedSize))
		}
	}
}

// Parse reconstructs a DirectoryBlock from the three-table byte layout
// produced by Serialize, using the offsets recorded in the archive header.
func Parse(data []byte, fileTableOffset, dirTableOffset uint32, widths FileEntryWidths) (*DirectoryBlock, error) {
	if int(fileTableOffset) > len(data) || int(dirTableOffset) > len(data) || fileTableOffset > dirTableOffset {
		return nil, fmt.Errorf("format: table offsets out of range (fileTable=%d dirTable=%d len=%d)", fileTableOffset, dirTableOffset, len(data))
	}

	nameTable := data[:fileTableOffset]
	fileSection := bytes.NewReader(data[fileTableOffset:dirTableOffset])
	dirSection := bytes.NewReader(data[dirTableOffset:])

	var fileCount uint32
	if err := binary.Read(fileSection, binary.LittleEndian, &fileCount); err != nil {
		return nil, fmt.Errorf("format: reading file count: %w", err)
	}

	files := make([]FileEntry, fileCount)
	for i := range files {
		f, err := readFileEntry(fileSection, nameTable, widths)
		if err != nil {
			return nil, fmt.Errorf("format: reading file entry %d: %w", i, err)
		}
		files[i] = f
	}

	var dirCount uint32
	if err := binary.Read(dirSection, binary.LittleEndian, &dirCount); err != nil {
		return nil, fmt.Errorf("format: reading dir count: %w", err)
	}

	dirs := make([]DirEntry, dirCount)
	for i := range dirs {
		var d DirEntry
		if err := binary.Read(dirSection, binary.LittleEndian, &d.DirectoryFileEntryIndex); err != nil {
			return nil, fmt.Errorf("format: reading dir entry %d: %w", i, err)
		}
		if err := binary.Read(dirSection, binary.LittleEndian, &d.ParentDirIndex); err != nil {
			return nil, fmt.Errorf("format: reading dir entry %d: %w", i, err)
		}
		if err := binary.Read(dirSection, binary.LittleEndian, &d.FileCount); err != nil {
			return nil, fmt.Errorf("format: reading dir entry %d: %w", i, err)
		}
		if err := binary.Read(dirSection, binary.LittleEndian, &d.FirstFileIndex); err != nil {
			return nil, fmt.Errorf("format: reading dir entry %d: %w", i, err)
		}
		if d.ParentDirIndex != RootDirIndex && int(d.ParentDirIndex) >= int(dirCount) {
			return nil, fmt.Errorf("format: dir entry %d has out-of-range parent %d", i, d.ParentDirIndex)
		}
		if d.DirectoryFileEntryIndex != -1 && (d.DirectoryFileEntryIndex < 0 || int(d.DirectoryFileEntryIndex) >= int(fileCount)) {
			return nil, fmt.Errorf("format: dir entry %d has out-of-range file index %d", i, d.DirectoryFileEntryIndex)
		}
		dirs[i] = d
	}

	if dirCount > 0 && dirs[0].ParentDirIndex != RootDirIndex {
		return nil, fmt.Errorf("format: dirTable[0] is not the root (parent=%d)", dirs[0].ParentDirIndex)
	}

	for i, f := range files {
		if f.ParentDirIndex < 0 || int(f.ParentDirIndex) >= int(dirCount) {
			return nil, fmt.Errorf("format: file entry %d (%s) has out-of-range parent %d", i, f.Name, f.ParentDirIndex)
		}
	}

	return &DirectoryBlock{Files: files, Dirs: dirs}, nil
}

func readFileEntry(r *bytes.Reader, nameTable []byte, widths FileEntryWidths) (FileEntry, error) {
	var f FileEntry

	if err := binary.Read(r, binary.LittleEndian, &f.nameOffset); err != nil {
		return f, err
	}
	if err := binary.Read(r, binary.LittleEndian, &f.Attributes); err != nil {
		return f, err
	}
	if err := binary.Read(r, binary.LittleEndian, &f.CreateTime); err != nil {
		return f, err
	}
	if err := binary.Read(r, binary.LittleEndian, &f.LastAccessTime); err != nil {
		return f, err
	}
	if err := binary.Read(r, binary.LittleEndian, &f.LastWriteTime); err != nil {
		return f, err
	}
	if err := binary.Read(r, binary.LittleEndian, &f.ParentDirIndex); err != nil {
		return f, err
	}

	if widths.SizeFields64 {
		if err := binary.Read(r, binary.LittleEndian, &f.DataOffset); err != nil {
			return f, err
		}
		if err := binary.Read(r, binary.LittleEndian, &f.StoredSize); err != nil {
			return f, err
		}
		if err := binary.Read(r, binary.LittleEndian, &f.OriginalSize); err != nil {
			return f, err
		}
		if err := binary.Read(r, binary.LittleEndian, &f.CompressedSize); err != nil {
			return f, err
		}
		if widths.HasHuffmanTail {
			if err := binary.Read(r, binary.LittleEndian, &f.HuffmanCompressedSize); err != nil {
				return f, err
			}
		} else {
			f.HuffmanCompressedSize = -1
		}
	} else {
		var dataOffset, storedSize, originalSize uint32
		var compressedSize int32
		if err := binary.Read(r, binary.LittleEndian, &dataOffset); err != nil {
			return f, err
		}
		if err := binary.Read(r, binary.LittleEndian, &storedSize); err != nil {
			return f, err
		}
		if err := binary.Read(r, binary.LittleEndian, &originalSize); err != nil {
			return f, err
		}
		if err := binary.Read(r, binary.LittleEndian, &compressedSize); err != nil {
			return f, err
		}
		f.DataOffset = uint64(dataOffset)
		f.StoredSize = uint64(storedSize)
		f.OriginalSize = uint64(originalSize)
		f.CompressedSize = int64(compressedSize)

		if widths.HasHuffmanTail {
			var huffmanSize int32
			if err := binary.Read(r, binary.LittleEndian, &huffmanSize); err != nil {
				return f, err
			}
			f.HuffmanCompressedSize = int64(huffmanSize)
		} else {
			f.HuffmanCompressedSize = -1
		}
	}

	display, lookup, err := readFilename(nameTable, f.nameOffset)
	if err != nil {
		return f, err
	}
	f.Name = display
	f.LookupName = lookup

	return f, nil
}
