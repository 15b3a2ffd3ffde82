package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ossyrian/wolfarc/internal/darc/codec"
	"github.com/ossyrian/wolfarc/internal/darc/format"
)

// TestDecodeWithHeaderRejectsOutOfBoundsEntry builds a directory block
// referencing a file entry whose stored size runs past the archive's data
// region, and checks that no extraction happens before the bounds error
// is returned.
func TestDecodeWithHeaderRejectsOutOfBoundsEntry(t *testing.T) {
	profile := v5Profile

	block := &format.DirectoryBlock{
		Files: []format.FileEntry{
			{Name: "a.txt", ParentDirIndex: 0, DataOffset: 0, StoredSize: 5, OriginalSize: 5, CompressedSize: -1, HuffmanCompressedSize: -1},
			{Name: "b.txt", ParentDirIndex: 0, DataOffset: 1000, StoredSize: 5000, OriginalSize: 5000, CompressedSize: -1, HuffmanCompressedSize: -1},
		},
		Dirs: []format.DirEntry{
			{DirectoryFileEntryIndex: -1, ParentDirIndex: format.RootDirIndex, FileCount: 2, FirstFileIndex: 0},
		},
	}
	dirBytes, fileTableOffset, dirTableOffset := format.Serialize(block, profile.FileEntryWidths)
	compressedDir := codec.Compress(dirBytes)

	dataStart := uint64(format.HeaderLen(profile.FieldWidths))
	payload := []byte("hello") // only 5 bytes: covers entry a.txt, nowhere near entry b.txt

	header := &format.Header{
		Version:         profile.HeaderVersion,
		HeaderSize:      uint32(len(compressedDir)),
		DirectoryOffset: uint32(dataStart) + uint32(len(payload)),
		DataStart:       dataStart,
		FileTableOffset: fileTableOffset,
		DirTableOffset:  dirTableOffset,
		CodeFlags:       format.FlagNoEncryption,
	}

	path := filepath.Join(t.TempDir(), "malformed.dxa")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := format.WriteHeader(f, header, profile.FieldWidths); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := f.Write(payload); err != nil {
		t.Fatalf("writing payload: %v", err)
	}
	if _, err := f.Write(compressedDir); err != nil {
		t.Fatalf("writing directory block: %v", err)
	}
	f.Close()

	f, err = os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	outDir := t.TempDir()
	_, err = decodeWithHeader(context.Background(), f, outDir, header, profile, nil)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("got %v, want ErrOutOfBounds", err)
	}

	entries, _ := os.ReadDir(outDir)
	if len(entries) != 0 {
		t.Fatalf("expected no files extracted before bounds check failed, got %v", entries)
	}
}

// TestDecodeWithHeaderRejectsOutOfRangeParent builds a directory block
// whose sole file entry names a parent directory index past the end of
// the dirTable, simulating a corrupted or wrong-key-decrypted block, and
// checks decodeWithHeader rejects it as a bad key rather than panicking
// in path resolution.
func TestDecodeWithHeaderRejectsOutOfRangeParent(t *testing.T) {
	profile := v5Profile

	block := &format.DirectoryBlock{
		Files: []format.FileEntry{
			{Name: "a.txt", ParentDirIndex: 7, DataOffset: 0, StoredSize: 5, OriginalSize: 5, CompressedSize: -1, HuffmanCompressedSize: -1},
		},
		Dirs: []format.DirEntry{
			{DirectoryFileEntryIndex: -1, ParentDirIndex: format.RootDirIndex, FileCount: 1, FirstFileIndex: 0},
		},
	}
	dirBytes, fileTableOffset, dirTableOffset := format.Serialize(block, profile.FileEntryWidths)
	compressedDir := codec.Compress(dirBytes)

	dataStart := uint64(format.HeaderLen(profile.FieldWidths))
	payload := []byte("hello")

	header := &format.Header{
		Version:         profile.HeaderVersion,
		HeaderSize:      uint32(len(compressedDir)),
		DirectoryOffset: uint32(dataStart) + uint32(len(payload)),
		DataStart:       dataStart,
		FileTableOffset: fileTableOffset,
		DirTableOffset:  dirTableOffset,
		CodeFlags:       format.FlagNoEncryption,
	}

	path := filepath.Join(t.TempDir(), "malformed-parent.dxa")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := format.WriteHeader(f, header, profile.FieldWidths); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := f.Write(payload); err != nil {
		t.Fatalf("writing payload: %v", err)
	}
	if _, err := f.Write(compressedDir); err != nil {
		t.Fatalf("writing directory block: %v", err)
	}
	f.Close()

	f, err = os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	outDir := t.TempDir()
	_, err = decodeWithHeader(context.Background(), f, outDir, header, profile, nil)
	if !errors.Is(err, ErrBadKey) {
		t.Fatalf("got %v, want ErrBadKey", err)
	}

	entries, _ := os.ReadDir(outDir)
	if len(entries) != 0 {
		t.Fatalf("expected no files extracted before the bad key check failed, got %v", entries)
	}
}
