package format

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Times holds the three timestamps an archive preserves per entry.
type Times struct {
	Create     time.Time
	LastAccess time.Time
	LastWrite  time.Time
}

// SourceEntry is one file yielded by a PathEnumerator during encode.
type SourceEntry struct {
	RelPath    string
	IsDir      bool
	Attributes uint32
	Times      Times
	SizeHint   int64
	Open       func() (io.ReadCloser, error)
}

// PathEnumerator yields the files and directories under a source tree, in
// an order Archive.Encode can use directly (directories before their
// children, matching the pre-order dirTable it builds).
type PathEnumerator interface {
	Enumerate() ([]SourceEntry, error)
}

// Sink creates directories and writes files when extracting an archive.
type Sink interface {
	CreateDir(relPath string) error
	CreateFile(relPath string, content io.Reader) error
	SetTimes(relPath string, t Times) error
	SetAttrs(relPath string, attrs uint32) error
}

// OSEnumerator walks a real directory tree with os/path-filepath, the
// concrete PathEnumerator the CLI wires in.
type OSEnumerator struct {
	Root string
}

func (e OSEnumerator) Enumerate() ([]SourceEntry, error) {
	var entries []SourceEntry

	err := filepath.Walk(e.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == e.Root {
			return nil
		}

		rel, err := filepath.Rel(e.Root, path)
		if err != nil {
			return fmt.Errorf("format: relativizing %q: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		entry := SourceEntry{
			RelPath: rel,
			IsDir:   info.IsDir(),
			Times:   Times{LastWrite: info.ModTime()},
		}
		if !info.IsDir() {
			entry.SizeHint = info.Size()
			localPath := path
			entry.Open = func() (io.ReadCloser, error) {
				return os.Open(localPath)
			}
		}

		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("format: walking %q: %w", e.Root, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})

	return entries, nil
}

// OSSink restores files and directories to a real directory tree.
type OSSink struct {
	Root string
}

func (s OSSink) resolve(relPath string) (string, error) {
	clean := filepath.Clean(relPath)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("format: entry path %q escapes extraction root", relPath)
	}
	return filepath.Join(s.Root, clean), nil
}

func (s OSSink) CreateDir(relPath string) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, 0o755)
}

func (s OSSink) CreateFile(relPath string, content io.Reader) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("format: creating parent dir for %q: %w", relPath, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("format: creating %q: %w", relPath, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, content); err != nil {
		return fmt.Errorf("format: writing %q: %w", relPath, err)
	}
	return nil
}

func (s OSSink) SetTimes(relPath string, t Times) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	return os.Chtimes(full, t.LastAccess, t.LastWrite)
}

func (s OSSink) SetAttrs(relPath string, attrs uint32) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	return setWinFileAttributes(full, attrs)
}
