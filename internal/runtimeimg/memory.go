// Package runtimeimg implements the guest memory image: a single
// contiguous host allocation representing a low-address window of the
// guest physical address space. All guest addresses are
// masked to the window size before access; out-of-window accesses must not
// crash the host process. The window is backed by an anonymous mmap with
// PROT_NONE guard pages on either side.
package runtimeimg

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Image owns one guest memory window. Endianness is little-endian
// throughout.
type Image struct {
	data       []byte // mmap'd region, including the guard slack at either end
	window     []byte // the addressable guest window, a sub-slice of data
	windowSize uint64
	guardPages int
	pageSize   int
}

// New allocates a guest memory window of windowSize bytes (rounded up to a
// whole number of pages), flanked by guardPages PROT_NONE pages on each
// side so an accidental host-pointer overrun (not a masked guest address,
// which Mask already bounds) segfaults immediately rather than corrupting
// adjacent memory.
func New(windowSize uint64, guardPages int) (*Image, error) {
	pageSize := unix.Getpagesize()
	pages := (windowSize + uint64(pageSize) - 1) / uint64(pageSize)
	total := (pages + uint64(2*guardPages)) * uint64(pageSize)

	data, err := unix.Mmap(-1, 0, int(total), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("runtimeimg: mmap %d bytes: %w", total, err)
	}

	windowStart := guardPages * pageSize
	windowBytes := int(pages) * pageSize
	if err := unix.Mprotect(data[windowStart:windowStart+windowBytes], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("runtimeimg: mprotect window: %w", err)
	}

	return &Image{
		data:       data,
		window:     data[windowStart : windowStart+windowBytes],
		windowSize: windowSize,
		guardPages: guardPages,
		pageSize:   pageSize,
	}, nil
}

// Close releases the mmap'd region.
func (m *Image) Close() error {
	return unix.Munmap(m.data)
}

// Bytes returns the addressable guest window as a host byte slice, for the
// decoder and CFG builder to read instructions from directly.
func (m *Image) Bytes() []byte { return m.window[:m.windowSize] }

// Mask truncates a guest address to the window size. Every guest access
// goes through this, so out-of-range addresses wrap instead of faulting.
func (m *Image) Mask(addr uint64) uint64 {
	return addr % m.windowSize
}

// LoadSegment copies data into the window at vaddr, masking the address
// first; bytes past the window's end are silently dropped rather than
// panicking, since out-of-window accesses are undefined but must not
// crash the host process.
func (m *Image) LoadSegment(vaddr uint64, data []byte) {
	start := m.Mask(vaddr)
	copy(m.window[start:m.windowSize], data)
}

// ReadOnlyText marks the byte range [start, start+size) read-only, so a
// write there faults instead of silently corrupting translated state.
// Nothing in this repository calls it.
func (m *Image) ReadOnlyText(start, size uint64) error {
	s := m.Mask(start)
	e := s + size
	if e > m.windowSize {
		e = m.windowSize
	}
	lo := (int(s) / m.pageSize) * m.pageSize
	hi := ((int(e) + m.pageSize - 1) / m.pageSize) * m.pageSize
	windowStart := m.guardPages * m.pageSize
	return unix.Mprotect(m.data[windowStart+lo:windowStart+hi], unix.PROT_READ)
}

// WindowSize reports the addressable guest window size in bytes.
func (m *Image) WindowSize() uint64 { return m.windowSize }
