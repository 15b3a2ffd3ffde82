package bitio_test

import (
	"testing"

	"github.com/ossyrian/wolfarc/internal/darc/bitio"
)

func TestRoundTripMixedWidths(t *testing.T) {
	widths := []int{1, 3, 8, 13, 1, 32, 7, 2}
	values := []uint32{1, 5, 0xAB, 0x1FFF, 0, 0xDEADBEEF, 0x7F, 3}

	w := bitio.NewWriter()
	for i, width := range widths {
		w.WriteBits(values[i], width)
	}
	buf := w.Bytes()

	r := bitio.NewReader(buf)
	for i, width := range widths {
		got, err := r.ReadBits(width)
		if err != nil {
			t.Fatalf("ReadBits(%d) at index %d: %v", width, i, err)
		}
		want := values[i] & ((1 << uint(width)) - 1)
		if width == 32 {
			want = values[i]
		}
		if got != want {
			t.Errorf("field %d: got %#x, want %#x", i, got, want)
		}
	}
}

func TestReadPastEndFails(t *testing.T) {
	r := bitio.NewReader([]byte{0xFF})
	if _, err := r.ReadBits(8); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := r.ReadBits(1); err == nil {
		t.Fatal("expected ErrUnexpectedEnd reading past buffer, got nil")
	}
}

func TestAlignDiscardsPartialByte(t *testing.T) {
	w := bitio.NewWriter()
	w.WriteBits(0x5, 3)
	w.Align()
	w.WriteBits(0xAA, 8)
	buf := w.Bytes()

	if len(buf) != 2 {
		t.Fatalf("expected 2 bytes after align, got %d", len(buf))
	}

	r := bitio.NewReader(buf)
	if _, err := r.ReadBits(3); err != nil {
		t.Fatal(err)
	}
	r.Align()
	got, err := r.ReadBits(8)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xAA {
		t.Errorf("got %#x, want 0xAA", got)
	}
}

func TestPositionTracksBits(t *testing.T) {
	w := bitio.NewWriter()
	w.WriteBits(1, 1)
	w.WriteBits(2, 2)
	if w.Position() != 3 {
		t.Errorf("Position() = %d, want 3", w.Position())
	}

	r := bitio.NewReader(w.Bytes())
	if r.Remaining() != 8 {
		t.Errorf("Remaining() = %d, want 8", r.Remaining())
	}
	r.ReadBits(3)
	if r.Position() != 3 {
		t.Errorf("Position() = %d, want 3", r.Position())
	}
}
