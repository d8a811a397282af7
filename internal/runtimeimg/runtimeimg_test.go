package runtimeimg

import (
	"bytes"
	"testing"
)

func newImage(t *testing.T, window uint64) *Image {
	t.Helper()
	img, err := New(window, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = img.Close() })
	return img
}

func TestMaskWrapsToWindow(t *testing.T) {
	img := newImage(t, 1<<16)
	cases := []struct {
		addr uint64
		want uint64
	}{
		{0, 0},
		{0xffff, 0xffff},
		{1 << 16, 0},
		{1<<16 + 0x42, 0x42},
		{^uint64(0), 0xffff},
	}
	for _, c := range cases {
		if got := img.Mask(c.addr); got != c.want {
			t.Errorf("Mask(%#x) = %#x, want %#x", c.addr, got, c.want)
		}
	}
}

func TestLoadSegmentPlacesBytes(t *testing.T) {
	img := newImage(t, 1<<16)
	img.LoadSegment(0x1000, []byte{0xde, 0xad, 0xbe, 0xef})
	if got := img.Bytes()[0x1000:0x1004]; !bytes.Equal(got, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("segment bytes = % x", got)
	}
}

func TestLoadSegmentTruncatesAtWindowEnd(t *testing.T) {
	img := newImage(t, 1 << 12)
	img.LoadSegment(1<<12-2, []byte{1, 2, 3, 4})
	got := img.Bytes()[1<<12-2:]
	if !bytes.Equal(got, []byte{1, 2}) {
		t.Fatalf("tail bytes = % x, want the overrun dropped", got)
	}
}

func TestWindowSizeSurvivesPageRounding(t *testing.T) {
	img := newImage(t, 100)
	if img.WindowSize() != 100 {
		t.Fatalf("WindowSize = %d, want 100", img.WindowSize())
	}
	if len(img.Bytes()) != 100 {
		t.Fatalf("len(Bytes) = %d, want 100", len(img.Bytes()))
	}
}

func TestWriteRegDiscardsX0(t *testing.T) {
	img := newImage(t, 4096)
	s := NewGuestState(img)
	s.WriteReg(0, 99)
	if s.ReadReg(0) != 0 {
		t.Fatalf("x0 must always read as zero, got %d", s.ReadReg(0))
	}
	s.WriteReg(5, 42)
	if s.ReadReg(5) != 42 {
		t.Fatalf("x5 = %d, want 42", s.ReadReg(5))
	}
}

func TestReservationStateMachine(t *testing.T) {
	img := newImage(t, 4096)
	s := NewGuestState(img)
	if s.ResValid {
		t.Fatal("a fresh state must start with an invalid reservation")
	}
	s.SetReservation(0x100)
	if !s.ResValid || s.ResAddr != 0x100 {
		t.Fatalf("reservation = (%#x, %v), want (0x100, true)", s.ResAddr, s.ResValid)
	}
	s.ClearReservation()
	if s.ResValid {
		t.Fatal("ClearReservation must invalidate")
	}
}
