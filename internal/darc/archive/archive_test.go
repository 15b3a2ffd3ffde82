package archive_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ossyrian/wolfarc/internal/darc/archive"
	"github.com/ossyrian/wolfarc/internal/darc/format"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

var sampleTree = map[string]string{
	"readme.txt":        "hello archive world, hello again hello again",
	"data/strings.json":  `{"greeting":"hello","farewell":"bye"}`,
	"data/sub/blob.bin":   string(bytes.Repeat([]byte{0xAB, 0xCD, 0xEF}, 200)),
}

func assertTreeEqual(t *testing.T, root string, want map[string]string) {
	t.Helper()
	for rel, content := range want {
		full := filepath.Join(root, filepath.FromSlash(rel))
		got, err := os.ReadFile(full)
		if err != nil {
			t.Fatalf("ReadFile %q: %v", rel, err)
		}
		if string(got) != content {
			t.Errorf("content mismatch for %q: got %d bytes, want %d bytes", rel, len(got), len(content))
		}
	}
}

func TestEncodeDecodeRoundTripV5NoKey(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, sampleTree)

	out := filepath.Join(t.TempDir(), "out.dxa")
	err := archive.Encode(context.Background(), out, src, archive.EncodeOptions{
		Profile:  archive.V5,
		Compress: true,
		NoKey:    true,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dst := t.TempDir()
	report, err := archive.Decode(context.Background(), out, dst, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(report.Failed) != 0 {
		t.Fatalf("unexpected extraction failures: %+v", report.Failed)
	}
	if len(report.Extracted) != len(sampleTree) {
		t.Fatalf("extracted %d files, want %d", len(report.Extracted), len(sampleTree))
	}

	assertTreeEqual(t, dst, sampleTree)
}

func TestEncodeDecodeRoundTripV6WithKey(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, sampleTree)

	key := []byte("supersecretkey!")
	out := filepath.Join(t.TempDir(), "out.dxa")
	err := archive.Encode(context.Background(), out, src, archive.EncodeOptions{
		Profile:  archive.V6,
		Compress: true,
		Key:      key,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dst := t.TempDir()
	report, err := archive.Decode(context.Background(), out, dst, key)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(report.Failed) != 0 {
		t.Fatalf("unexpected extraction failures: %+v", report.Failed)
	}
	assertTreeEqual(t, dst, sampleTree)
}

func TestEncodeDecodeRoundTripV8ChaChaAlwaysHuffman(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, sampleTree)

	key := bytes.Repeat([]byte{0x11}, 44)
	out := filepath.Join(t.TempDir(), "out.dxa")
	err := archive.Encode(context.Background(), out, src, archive.EncodeOptions{
		Profile:            archive.V8ChaCha,
		Compress:           true,
		AlwaysHuffman:      true,
		HuffmanThresholdKB: 1,
		Key:                key,
		Workers:            4,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dst := t.TempDir()
	report, err := archive.Decode(context.Background(), out, dst, key)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(report.Failed) != 0 {
		t.Fatalf("unexpected extraction failures: %+v", report.Failed)
	}
	assertTreeEqual(t, dst, sampleTree)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	out := filepath.Join(t.TempDir(), "garbage.dxa")
	if err := os.WriteFile(out, []byte("not an archive at all"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := archive.Decode(context.Background(), out, t.TempDir(), nil)
	if !errors.Is(err, format.ErrNotAnArchive) {
		t.Fatalf("got %v, want ErrNotAnArchive", err)
	}
}

func TestDecodeWithWrongKeyFails(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, sampleTree)

	out := filepath.Join(t.TempDir(), "out.dxa")
	err := archive.Encode(context.Background(), out, src, archive.EncodeOptions{
		Profile: archive.V6,
		Key:     []byte("correct-key!"),
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	_, err = archive.Decode(context.Background(), out, t.TempDir(), []byte("wrong-key!!!"))
	if err == nil {
		t.Fatal("expected decode with wrong key to fail")
	}
}

func TestDecodeAutoFindsWellKnownKey(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, sampleTree)

	out := filepath.Join(t.TempDir(), "out.dxa")
	wellKnown := archive.WellKnownProfiles[0]
	err := archive.Encode(context.Background(), out, src, archive.EncodeOptions{
		Profile: wellKnown.Profile,
		Key:     wellKnown.Key,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dst := t.TempDir()
	report, err := archive.DecodeAuto(context.Background(), out, dst, nil)
	if err != nil {
		t.Fatalf("DecodeAuto: %v", err)
	}
	if report.Profile.Tag != wellKnown.Profile {
		t.Fatalf("resolved profile %v, want %v", report.Profile.Tag, wellKnown.Profile)
	}
	assertTreeEqual(t, dst, sampleTree)
}

func TestDecodeOfTruncatedArchiveWritesNothing(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "hello"})

	out := filepath.Join(t.TempDir(), "out.dxa")
	if err := archive.Encode(context.Background(), out, src, archive.EncodeOptions{
		Profile: archive.V5,
		NoKey:   true,
	}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// Truncate the file just after the header so the directory block, which
	// is written after the payloads, can no longer be read in full.
	corrupted := raw[:format.HeaderLen(format.FieldWidths{DataStart64: false})+1]
	corruptedPath := filepath.Join(t.TempDir(), "corrupted.dxa")
	if err := os.WriteFile(corruptedPath, corrupted, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	dst := t.TempDir()
	_, err = archive.Decode(context.Background(), corruptedPath, dst, nil)
	if err == nil {
		t.Fatal("expected decode of corrupted archive to fail")
	}

	if entries, _ := os.ReadDir(dst); len(entries) != 0 {
		t.Fatalf("expected no files written on corrupted archive, got %v", entries)
	}
}

func TestGuessLegacyKeyRejectsModernArchive(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "hello"})

	out := filepath.Join(t.TempDir(), "out.dxa")
	if err := archive.Encode(context.Background(), out, src, archive.EncodeOptions{
		Profile: archive.V5,
		NoKey:   true,
	}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	_, err := archive.GuessLegacyKey(out)
	if !errors.Is(err, archive.ErrAlreadyModernFormat) {
		t.Fatalf("got %v, want ErrAlreadyModernFormat", err)
	}
}
