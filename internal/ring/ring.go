// Package ring implements the fixed-size circular byte buffer used by the
// CSV reader.
//
// Callers address the buffer with linear positions that may run past the
// physical end of the array (up to twice its length). Buffer is the only
// place where such positions are folded back onto the array.
package ring

import (
	"errors"
	"io"
)

// Buffer is a fixed-capacity circular byte buffer. It is never resized.
type Buffer struct {
	data []byte
}

// New allocates a Buffer holding size bytes. It panics if size is not positive.
func New(size int) *Buffer {
	if size <= 0 {
		panic("ring: buffer size must be positive")
	}
	return &Buffer{data: make([]byte, size)}
}

// Len returns the physical length of the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes exposes the physical array. Slices taken from it are only valid until
// the next Fill.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Index normalizes a linear position onto the physical array.
func (b *Buffer) Index(pos int) int {
	if pos < len(b.data) {
		return pos
	}
	return pos % len(b.data)
}

// At returns the byte stored at linear position pos.
func (b *Buffer) At(pos int) byte {
	return b.data[b.Index(pos)]
}

// Contiguous reports whether the n bytes starting at linear position start
// occupy a single physical run.
func (b *Buffer) Contiguous(start, n int) bool {
	return b.Index(start)+n <= len(b.data)
}

// Segments returns the n bytes starting at linear position start. tail is nil
// unless the window crosses the physical end of the array, in which case the
// window is head followed by tail.
func (b *Buffer) Segments(start, n int) (head, tail []byte) {
	if n <= 0 {
		return nil, nil
	}
	i := b.Index(start)
	if i+n <= len(b.data) {
		return b.data[i : i+n], nil
	}
	return b.data[i:], b.data[:n-(len(b.data)-i)]
}

// AppendTo appends the n bytes starting at linear position start to dst.
func (b *Buffer) AppendTo(dst []byte, start, n int) []byte {
	head, tail := b.Segments(start, n)
	dst = append(dst, head...)
	return append(dst, tail...)
}

// Fill loads data from src into the free part of the buffer. The occupied
// part is the valid bytes starting at physical index lineStart. Nothing is
// read while fewer than threshold bytes are free. The free space is filled as
// one run, or as two runs when it wraps around the physical end.
//
// Fill returns the number of bytes added and whether src ran short, which is
// the only end-of-input signal. Errors other than end-of-input are returned
// as is.
func (b *Buffer) Fill(src io.Reader, lineStart, valid, threshold int) (n int, eof bool, err error) {
	free := len(b.data) - valid
	if free < threshold || free == 0 {
		return 0, false, nil
	}
	freeStart := b.Index(lineStart + valid)
	if freeStart >= lineStart {
		n, eof, err = readBlock(src, b.data[freeStart:])
		if err != nil || eof || lineStart == 0 {
			return n, eof, err
		}
		m, eof, err := readBlock(src, b.data[:lineStart])
		return n + m, eof, err
	}
	return readBlock(src, b.data[freeStart:freeStart+free])
}

func readBlock(src io.Reader, p []byte) (int, bool, error) {
	if len(p) == 0 {
		return 0, false, nil
	}
	n, err := io.ReadFull(src, p)
	switch {
	case err == nil:
		return n, false, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, true, nil
	default:
		return n, false, err
	}
}
