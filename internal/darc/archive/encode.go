package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/ossyrian/wolfarc/internal/darc/codec"
	"github.com/ossyrian/wolfarc/internal/darc/format"
	"github.com/ossyrian/wolfarc/internal/darc/wolfcrypt"
)

// EncodeOptions controls how Encode builds an archive from a source tree.
type EncodeOptions struct {
	Profile            Tag
	Compress           bool
	AlwaysHuffman      bool
	HuffmanThresholdKB int // 0..255, ignored unless the profile is huffman-capable
	Key                []byte
	NoKey              bool
	Workers            int // > 1 shards per-file compression across a worker pool
	HuffmanPolicy      format.HuffmanPolicy
}

type fileDescriptor struct {
	name           string
	parentDirIndex int32
	isDir          bool
	dirIndex       int32 // valid when isDir
	source         format.SourceEntry
}

// Encode packs inputDir into a new archive at outputPath.
func Encode(ctx context.Context, outputPath, inputDir string, opts EncodeOptions) error {
	var profile VersionProfile
	found := false
	for _, p := range AllProfiles() {
		if p.Tag == opts.Profile {
			profile = p
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %v", format.ErrUnsupportedVersion, opts.Profile)
	}

	policy := opts.HuffmanPolicy
	if policy == nil {
		policy = format.NewDefaultHuffmanPolicy()
	}

	entries, err := (format.OSEnumerator{Root: inputDir}).Enumerate()
	if err != nil {
		return fmt.Errorf("archive: enumerating %q: %w", inputDir, err)
	}

	dirs, files, sources := buildTree(entries)

	noEncryption := opts.NoKey || len(opts.Key) == 0
	var cipher wolfcrypt.Cipher
	if !noEncryption {
		cipher, err = profile.NewCipher(opts.Key)
		if err != nil {
			return fmt.Errorf("archive: building cipher: %w", err)
		}
	}

	headerLen := format.HeaderLen(profile.FieldWidths)
	dataStart := uint64(headerLen)

	payloads, err := compressAndEncrypt(files, sources, opts, profile, policy, cipher, noEncryption, dataStart)
	if err != nil {
		return err
	}

	var payloadBuf bytes.Buffer
	offset := uint64(0)
	for i := range files {
		files[i].DataOffset = offset
		files[i].StoredSize = uint64(len(payloads[i]))
		payloadBuf.Write(payloads[i])
		offset += uint64(len(payloads[i]))
	}

	dirBlock := &format.DirectoryBlock{Files: files, Dirs: dirs}
	dirBytes, fileTableOffset, dirTableOffset := format.Serialize(dirBlock, profile.FileEntryWidths)

	directoryOffset := dataStart + uint64(payloadBuf.Len())

	// The directory block is always LZSS-compressed on disk, independent of
	// the per-file compress option, which only governs payload entries.
	compressedDir := codec.Compress(dirBytes)
	if !noEncryption {
		if err := cipher.ApplyAt(compressedDir, int64(directoryOffset)); err != nil {
			return fmt.Errorf("archive: encrypting directory block: %w", err)
		}
	}

	header := &format.Header{
		Version:          profile.HeaderVersion,
		HeaderSize:       uint32(len(compressedDir)),
		DirectoryOffset:  uint32(directoryOffset),
		DataStart:        dataStart,
		FileTableOffset:  fileTableOffset,
		DirTableOffset:   dirTableOffset,
		HuffmanThreshold: uint8(opts.HuffmanThresholdKB),
	}
	if noEncryption {
		header.CodeFlags |= format.FlagNoEncryption
	}
	if profile.Tag == V8ChaCha {
		header.CodeFlags |= format.FlagChaChaCipher
	}

	if err := writeArchiveFile(outputPath, header, profile.FieldWidths, payloadBuf.Bytes(), compressedDir); err != nil {
		return err
	}

	slog.Info("archive written", "path", outputPath, "profile", profile.Tag, "files", len(files), "dirs", len(dirs))
	return nil
}

// writeArchiveFile assembles the final bytes and writes them atomically:
// build in a temp file, then rename over outputPath, so a failed or
// interrupted encode never leaves a half-written archive at its final
// name.
func writeArchiveFile(outputPath string, header *format.Header, widths format.FieldWidths, payload, directory []byte) error {
	tmp, err := os.CreateTemp(pathDir(outputPath), "wolfarc-*.tmp")
	if err != nil {
		return fmt.Errorf("archive: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := format.WriteHeader(tmp, header, widths); err != nil {
		tmp.Close()
		return fmt.Errorf("archive: writing header: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("archive: writing payload: %w", err)
	}
	if _, err := tmp.Write(directory); err != nil {
		tmp.Close()
		return fmt.Errorf("archive: writing directory block: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("archive: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return fmt.Errorf("archive: renaming into place: %w", err)
	}
	return nil
}

func pathDir(p string) string {
	dir := filepath.Dir(p)
	if dir == "" {
		return "."
	}
	return dir
}

// buildTree turns the enumerator's flat, path-sorted entry list into a
// pre-order dirTable and a fileTable whose per-directory ranges are
// contiguous, matching the on-disk layout invariant.
func buildTree(entries []format.SourceEntry) ([]format.DirEntry, []format.FileEntry, []format.SourceEntry) {
	dirs := []format.DirEntry{{DirectoryFileEntryIndex: -1, ParentDirIndex: format.RootDirIndex}}
	pathToDir := map[string]int32{"": 0}
	childrenByParent := map[int32][]fileDescriptor{}

	for _, e := range entries {
		parentPath := path.Dir(e.RelPath)
		if parentPath == "." {
			parentPath = ""
		}
		parentIdx := pathToDir[parentPath]

		if e.IsDir {
			idx := int32(len(dirs))
			dirs = append(dirs, format.DirEntry{DirectoryFileEntryIndex: -1, ParentDirIndex: parentIdx})
			pathToDir[e.RelPath] = idx
			childrenByParent[parentIdx] = append(childrenByParent[parentIdx], fileDescriptor{
				name: path.Base(e.RelPath), parentDirIndex: parentIdx, isDir: true, dirIndex: idx,
			})
		} else {
			childrenByParent[parentIdx] = append(childrenByParent[parentIdx], fileDescriptor{
				name: path.Base(e.RelPath), parentDirIndex: parentIdx, source: e,
			})
		}
	}

	var files []format.FileEntry
	var sources []format.SourceEntry

	var visit func(dirIdx int32)
	visit = func(dirIdx int32) {
		children := childrenByParent[dirIdx]
		dirs[dirIdx].FirstFileIndex = uint32(len(files))
		dirs[dirIdx].FileCount = uint32(len(children))

		subdirs := make([]int32, 0, len(children))
		for _, c := range children {
			fe := format.FileEntry{
				Name:           c.name,
				ParentDirIndex: c.parentDirIndex,
				CompressedSize: -1,
				HuffmanCompressedSize: -1,
			}
			if c.isDir {
				fe.Attributes |= attrDirectory
				dirs[c.dirIndex].DirectoryFileEntryIndex = int32(len(files))
				subdirs = append(subdirs, c.dirIndex)
			} else {
				fe.CreateTime = timeToWinTime(c.source.Times.Create)
				fe.LastAccessTime = timeToWinTime(c.source.Times.LastAccess)
				fe.LastWriteTime = timeToWinTime(c.source.Times.LastWrite)
				fe.OriginalSize = uint64(c.source.SizeHint)
			}
			files = append(files, fe)
			sources = append(sources, c.source)
		}

		for _, sub := range subdirs {
			visit(sub)
		}
	}
	visit(0)

	return dirs, files, sources
}

func compressAndEncrypt(files []format.FileEntry, sources []format.SourceEntry, opts EncodeOptions, profile VersionProfile, policy format.HuffmanPolicy, cipher wolfcrypt.Cipher, noEncryption bool, dataStart uint64) ([][]byte, error) {
	results := make([][]byte, len(files))
	relPaths := make([]string, len(files))

	// Pass 1: read + compress + huffman-tail every file. This step is
	// order-independent so it can be sharded across a worker pool; offsets
	// (and therefore encryption, which depends on the final concatenated
	// position) happen in a second, strictly sequential pass.
	compressOne := func(i int) error {
		f := &files[i]
		if f.Attributes&attrDirectory != 0 {
			results[i] = nil
			return nil
		}

		src := sources[i]
		relPaths[i] = src.RelPath

		rc, err := src.Open()
		if err != nil {
			return fmt.Errorf("opening %q: %w", relPaths[i], err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return fmt.Errorf("reading %q: %w", relPaths[i], err)
		}
		f.OriginalSize = uint64(len(content))

		payload := content
		f.CompressedSize = -1
		if opts.Compress {
			compressed := codec.Compress(content)
			if len(compressed) < len(content) {
				payload = compressed
				f.CompressedSize = int64(len(compressed))
			}
		}

		f.HuffmanCompressedSize = -1
		if profile.HuffmanCapable && (opts.AlwaysHuffman || policy.ShouldHuffman(relPaths[i])) {
			thresholdBytes := opts.HuffmanThresholdKB * 1024
			if opts.AlwaysHuffman {
				thresholdBytes = len(payload)
			}
			var hl int
			payload, hl = codec.ApplyEntropyTail(payload, thresholdBytes)
			f.HuffmanCompressedSize = int64(hl)
		}

		results[i] = payload
		return nil
	}

	if opts.Workers > 1 {
		if err := parallelFor(len(files), opts.Workers, compressOne); err != nil {
			return nil, err
		}
	} else {
		for i := range files {
			if err := compressOne(i); err != nil {
				return nil, err
			}
		}
	}

	// Pass 2: sequential, since cipher offsets depend on the running
	// dataOffset of the final concatenated payload region.
	offset := uint64(0)
	for i := range files {
		if files[i].Attributes&attrDirectory != 0 {
			continue
		}
		if !noEncryption {
			if err := cipher.ApplyAt(results[i], int64(offset)); err != nil {
				return nil, fmt.Errorf("encrypting %q: %w", relPaths[i], err)
			}
		}
		offset += uint64(len(results[i]))
	}

	return results, nil
}

func parallelFor(n, workers int, fn func(i int) error) error {
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	work := make(chan int)
	errs := make(chan error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if err := fn(i); err != nil {
					errs <- err
					return
				}
			}
		}()
	}

	go func() {
		for i := 0; i < n; i++ {
			work <- i
		}
		close(work)
	}()

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
