package archive

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ossyrian/wolfarc/internal/darc/codec"
	"github.com/ossyrian/wolfarc/internal/darc/format"
	"github.com/ossyrian/wolfarc/internal/darc/wolfcrypt"
)

func widthsForVersion(version uint16) format.FieldWidths {
	return format.FieldWidths{DataStart64: version >= 6}
}

// peekVersion reads the 2-byte version field without consuming the
// stream, so the caller can pick field widths before the real header
// read.
func peekVersion(f io.ReadSeeker) (uint16, error) {
	var buf [4]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		if _, seekErr := f.Seek(0, io.SeekStart); seekErr == nil {
			// best effort: leave the read error as the reported one
		}
		return 0, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("archive: seeking back after version peek: %w", err)
	}
	return binary.LittleEndian.Uint16(buf[2:4]), nil
}

// Decode extracts an archive at inputPath into outputDir. An empty
// outputDir means "alongside the input" (its containing directory).
func Decode(ctx context.Context, inputPath, outputDir string, key []byte) (*Report, error) {
	if outputDir == "" {
		outputDir = filepath.Dir(inputPath)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("archive: opening %q: %w", inputPath, err)
	}
	defer f.Close()

	return decodeFrom(ctx, f, outputDir, key)
}

// DecodeAuto tries each WellKnownProfiles key whose profile is among
// candidates (all profiles when candidates is empty) against inputPath,
// in table order, returning on the first one whose directory block parses
// and passes sanity checks. A profile with no well-known key (V8Classic)
// is never tried. No side effects occur until a key succeeds. An empty
// outputDir means "alongside the input", as for Decode.
func DecodeAuto(ctx context.Context, inputPath, outputDir string, candidates []VersionProfile) (*Report, error) {
	if outputDir == "" {
		outputDir = filepath.Dir(inputPath)
	}
	if len(candidates) == 0 {
		candidates = AllProfiles()
	}

	allowed := make(map[Tag]bool, len(candidates))
	for _, p := range candidates {
		allowed[p.Tag] = true
	}

	var lastErr error
	for _, known := range WellKnownProfiles {
		if !allowed[known.Profile] {
			continue
		}

		f, err := os.Open(inputPath)
		if err != nil {
			return nil, fmt.Errorf("archive: opening %q: %w", inputPath, err)
		}

		report, err := decodeFromWithForcedProfile(ctx, f, outputDir, known.Key, known.Profile)
		f.Close()
		if err == nil {
			return report, nil
		}
		lastErr = err
		if errors.Is(err, format.ErrNotAnArchive) {
			// not worth retrying other keys against a non-archive file
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("archive: no candidate profile matched %q", inputPath)
	}
	return nil, lastErr
}

func decodeFrom(ctx context.Context, f *os.File, outputDir string, key []byte) (*Report, error) {
	version, err := peekVersion(f)
	if err != nil {
		return nil, fmt.Errorf("archive: reading version: %w", err)
	}

	header, err := format.ReadHeader(f, widthsForVersion(version))
	if err != nil {
		return nil, err
	}

	profile, err := ResolveProfile(header.Version, header.CodeFlags)
	if err != nil {
		return nil, err
	}

	return decodeWithHeader(ctx, f, outputDir, header, profile, key)
}

// decodeFromWithForcedProfile is used by DecodeAuto: it reads the header
// using the forced profile's field widths (so a v5 well-known key is never
// tried against a v8 header parse) rather than trusting header.Version.
func decodeFromWithForcedProfile(ctx context.Context, f *os.File, outputDir string, key []byte, tag Tag) (*Report, error) {
	var profile VersionProfile
	for _, p := range AllProfiles() {
		if p.Tag == tag {
			profile = p
			break
		}
	}

	header, err := format.ReadHeader(f, profile.FieldWidths)
	if err != nil {
		return nil, err
	}
	if header.Version != profile.HeaderVersion {
		return nil, fmt.Errorf("%w: header version %d does not match candidate profile %v", ErrBadKey, header.Version, tag)
	}

	return decodeWithHeader(ctx, f, outputDir, header, profile, key)
}

func decodeWithHeader(ctx context.Context, f *os.File, outputDir string, header *format.Header, profile VersionProfile, key []byte) (*Report, error) {
	noEncryption := header.CodeFlags&format.FlagNoEncryption != 0

	var cipher wolfcrypt.Cipher
	if !noEncryption {
		var err error
		cipher, err = profile.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("archive: building cipher: %w", err)
		}
	}

	dirBlockRaw := make([]byte, header.HeaderSize)
	if _, err := f.Seek(int64(header.DirectoryOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("archive: seeking to directory block: %w", err)
	}
	if _, err := io.ReadFull(f, dirBlockRaw); err != nil {
		return nil, fmt.Errorf("archive: reading directory block: %w", err)
	}

	if header.CodeFlags&format.FlagNoEncryption == 0 {
		if err := cipher.ApplyAt(dirBlockRaw, int64(header.DirectoryOffset)); err != nil {
			return nil, fmt.Errorf("archive: decrypting directory block: %w", err)
		}
	}

	decompressed, err := codec.Decompress(dirBlockRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing directory block: %v", ErrBadKey, err)
	}

	block, err := format.Parse(decompressed, header.FileTableOffset, header.DirTableOffset, profile.FileEntryWidths)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("archive: statting input: %w", err)
	}
	fileLen := uint64(stat.Size())

	for i, fe := range block.Files {
		if fe.DataOffset+fe.StoredSize > fileLen-header.DataStart {
			return nil, fmt.Errorf("%w: file entry %d (%s) offset=%d size=%d", ErrOutOfBounds, i, fe.Name, fe.DataOffset, fe.StoredSize)
		}
	}

	sink := format.OSSink{Root: outputDir}
	report := &Report{Profile: profile}

	for i := range block.Dirs {
		if i == 0 {
			continue // root, sink.Root already exists
		}
		if err := sink.CreateDir(dirPath(block.Dirs, block.Files, int32(i))); err != nil {
			return nil, fmt.Errorf("archive: creating directory: %w", err)
		}
	}

	for _, fe := range block.Files {
		if fe.Attributes&attrDirectory != 0 {
			continue // this FileEntry only names a directory, no payload
		}

		relPath := filePath(block.Dirs, block.Files, fe)
		if err := extractOne(f, sink, header, cipher, fe, relPath); err != nil {
			slog.Warn("failed to extract entry", "path", relPath, "error", err)
			report.Failed = append(report.Failed, EntryFailure{RelPath: relPath, Err: err})
			continue
		}
		report.Extracted = append(report.Extracted, relPath)
	}

	return report, nil
}

func extractOne(f *os.File, sink format.OSSink, header *format.Header, cipher wolfcrypt.Cipher, fe format.FileEntry, relPath string) error {
	buf := make([]byte, fe.StoredSize)
	absOffset := int64(header.DataStart + fe.DataOffset)
	if _, err := f.Seek(absOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to payload: %w", err)
	}
	if _, err := io.ReadFull(f, buf); err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}

	if header.CodeFlags&format.FlagNoEncryption == 0 {
		if err := cipher.ApplyAt(buf, absOffset-int64(header.DataStart)); err != nil {
			return fmt.Errorf("decrypting payload: %w", err)
		}
	}

	if fe.HuffmanCompressedSize >= 0 {
		var err error
		buf, err = codec.RemoveEntropyTail(buf, int(fe.HuffmanCompressedSize))
		if err != nil {
			return fmt.Errorf("removing entropy tail: %w", err)
		}
	}

	if fe.CompressedSize >= 0 {
		var err error
		buf, err = codec.Decompress(buf)
		if err != nil {
			return fmt.Errorf("decompressing payload: %w", err)
		}
	}

	if err := sink.CreateFile(relPath, newBytesReader(buf)); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if err := sink.SetTimes(relPath, format.Times{
		Create:     winTimeToTime(fe.CreateTime),
		LastAccess: winTimeToTime(fe.LastAccessTime),
		LastWrite:  winTimeToTime(fe.LastWriteTime),
	}); err != nil {
		return fmt.Errorf("restoring timestamps: %w", err)
	}
	if err := sink.SetAttrs(relPath, fe.Attributes); err != nil {
		return fmt.Errorf("restoring attributes: %w", err)
	}

	return nil
}

// dirPath resolves the slash-joined relative path of dirs[idx].
func dirPath(dirs []format.DirEntry, files []format.FileEntry, idx int32) string {
	if idx == format.RootDirIndex {
		return ""
	}
	d := dirs[idx]
	name := ""
	if d.DirectoryFileEntryIndex >= 0 {
		name = files[d.DirectoryFileEntryIndex].Name
	}
	parent := dirPath(dirs, files, d.ParentDirIndex)
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// filePath resolves the slash-joined relative path of a file entry.
func filePath(dirs []format.DirEntry, files []format.FileEntry, fe format.FileEntry) string {
	parent := dirPath(dirs, files, fe.ParentDirIndex)
	if parent == "" {
		return fe.Name
	}
	return parent + "/" + fe.Name
}
