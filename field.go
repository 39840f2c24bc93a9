package ringcsv

import (
	"github.com/oleg578/ringcsv/internal/ring"
)

// field describes one value of the current record as an inclusive range of
// linear buffer positions. For quoted fields the range includes both quotes.
type field struct {
	start   int
	end     int
	quoted  bool
	escaped int // doubled quotes inside a quoted field

	value  string
	cached bool
}

func (f *field) reset(start int) {
	f.start = start
	f.end = start - 1
	f.quoted = false
	f.escaped = 0
	f.value = ""
	f.cached = false
}

func (f *field) length() int {
	return f.end - f.start + 1
}

// content returns the window holding the field's raw value, without the
// surrounding quotes.
func (f *field) content() (start, n int) {
	if f.quoted {
		return f.start + 1, f.length() - 2
	}
	return f.start, f.length()
}

// valueLen is the length of the materialized value.
func (f *field) valueLen() int {
	if f.quoted {
		return f.length() - 2 - f.escaped
	}
	return f.length()
}

// appendValue appends the unescaped value of f to dst.
func appendValue(dst []byte, buf *ring.Buffer, f *field, quote byte) []byte {
	start, n := f.content()
	if n <= 0 {
		return dst
	}
	if !f.quoted || f.escaped == 0 {
		return buf.AppendTo(dst, start, n)
	}
	head, tail := buf.Segments(start, n)
	skip := false
	for _, seg := range [2][]byte{head, tail} {
		for _, c := range seg {
			if c == quote {
				// Inside a quoted field every quote is the first half of a pair.
				if skip {
					skip = false
					continue
				}
				skip = true
			}
			dst = append(dst, c)
		}
	}
	return dst
}

// fieldValue materializes f as a string.
func fieldValue(buf *ring.Buffer, f *field, quote byte) string {
	start, n := f.content()
	if n <= 0 {
		return ""
	}
	if (!f.quoted || f.escaped == 0) && buf.Contiguous(start, n) {
		head, _ := buf.Segments(start, n)
		return string(head)
	}
	return string(appendValue(make([]byte, 0, f.valueLen()), buf, f, quote))
}
