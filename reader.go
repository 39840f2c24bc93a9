package ringcsv

import (
	"errors"
	"fmt"
	"io"

	"github.com/oleg578/ringcsv/internal/ring"
)

const (
	// DefaultBufferSize is the default capacity of the reader's circular
	// buffer. It bounds the length of a single CSV line.
	DefaultBufferSize = 32768

	maxLoadThreshold = 8192
)

var (
	// ErrEmptyDelimiter is returned when a reader or writer is created with an empty delimiter.
	ErrEmptyDelimiter = errors.New("ringcsv: delimiter cannot be empty")
	// ErrLineTooLong is returned when a line does not fit into the reader's buffer.
	ErrLineTooLong = errors.New("ringcsv: line length exceeds buffer size")
)

// ParseError reports the line and buffer size at which reading failed.
type ParseError struct {
	Line       int
	BufferSize int
	Err        error
}

// Error formats the parse error message with the stored Line, BufferSize and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("ringcsv: parse error on line %d (buffer size %d): %v", e.Line, e.BufferSize, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Unwrap.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Reader is a streaming CSV reader with constant memory usage. Records are
// parsed in place inside a circular buffer; field values are materialized
// only when asked for.
//
// Configuration fields must be set before the first call to Read.
type Reader struct {
	src   io.Reader
	delim string

	// BufferSize is the capacity of the circular buffer and the maximum
	// supported line length. Default is DefaultBufferSize.
	BufferSize int
	// TrimFields excludes leading and trailing spaces of unquoted fields. Default is true.
	TrimFields bool
	// Quote is the quote character. Default is '"'.
	Quote byte

	buf       *ring.Buffer
	threshold int
	lineStart int
	valid     int
	drained   bool
	err       error

	fields  []field
	nfields int
	line    int
	scratch []byte
}

// NewReader creates a comma-separated Reader that consumes data from r. It
// panics if r is nil.
func NewReader(r io.Reader) *Reader {
	rd, err := NewReaderDelimiter(r, ",")
	if err != nil {
		panic(err)
	}
	return rd
}

// NewReaderDelimiter creates a Reader that splits fields on delim, which may
// be longer than one byte. It panics if r is nil and returns ErrEmptyDelimiter
// if delim is empty.
func NewReaderDelimiter(r io.Reader, delim string) (*Reader, error) {
	if r == nil {
		panic("ringcsv: reader source cannot be nil")
	}
	if delim == "" {
		return nil, ErrEmptyDelimiter
	}
	return &Reader{
		src:        r,
		delim:      delim,
		BufferSize: DefaultBufferSize,
		TrimFields: true,
		Quote:      '"',
	}, nil
}

// Delimiter returns the field delimiter.
func (r *Reader) Delimiter() string {
	return r.delim
}

// Line returns the number of lines read so far, skipped blank lines included.
// A quoted field spanning several physical lines counts once.
func (r *Reader) Line() int {
	return r.line
}

// FieldCount returns the number of fields in the current record.
func (r *Reader) FieldCount() int {
	return r.nfields
}

// Field returns the value of field i of the current record. Quotes are
// stripped and doubled quotes collapsed. ok is false if the record has no
// such field.
func (r *Reader) Field(i int) (value string, ok bool) {
	if i < 0 || i >= r.nfields {
		return "", false
	}
	f := &r.fields[i]
	if !f.cached {
		f.value = fieldValue(r.buf, f, r.quote())
		f.cached = true
	}
	return f.value, true
}

// FieldLen returns the length of field i's value without materializing it,
// or -1 if the record has no such field.
func (r *Reader) FieldLen(i int) int {
	if i < 0 || i >= r.nfields {
		return -1
	}
	return r.fields[i].valueLen()
}

// ProcessField calls fn with the value of field i as buf[start:start+length].
// When the value is stored contiguously and needs no unescaping, buf is the
// reader's internal buffer; otherwise it is a temporary copy. In both cases
// buf is only valid until fn returns. ProcessField reports whether the
// record has field i.
func (r *Reader) ProcessField(i int, fn func(buf []byte, start, length int)) bool {
	if i < 0 || i >= r.nfields {
		return false
	}
	f := &r.fields[i]
	start, n := f.content()
	if n < 0 {
		n = 0
	}
	if (!f.quoted || f.escaped == 0) && r.buf.Contiguous(start, n) {
		fn(r.buf.Bytes(), r.buf.Index(start), n)
		return true
	}
	r.scratch = appendValue(r.scratch[:0], r.buf, f, r.quote())
	fn(r.scratch, 0, len(r.scratch))
	return true
}

// Record appends the values of the current record to dst and returns the
// extended slice.
func (r *Reader) Record(dst []string) []string {
	for i := 0; i < r.nfields; i++ {
		v, _ := r.Field(i)
		dst = append(dst, v)
	}
	return dst
}

// ReadAll reads the remaining records and returns their values.
func (r *Reader) ReadAll() (records [][]string, err error) {
	for {
		ok, err := r.Read()
		if err != nil {
			return nil, err
		}
		if !ok {
			return records, nil
		}
		records = append(records, r.Record(make([]string, 0, r.nfields)))
	}
}

// Read advances to the next record. It reports false once the input is
// exhausted. Empty lines are skipped. After an error every following call
// returns the same error.
func (r *Reader) Read() (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if r.buf == nil {
		r.init()
	}
	for {
		ok, err := r.readRecord()
		if err != nil {
			r.nfields = 0
			r.err = err
			return false, err
		}
		if !ok {
			return false, nil
		}
		if r.nfields == 1 && r.fields[0].length() == 0 {
			continue
		}
		return true, nil
	}
}

func (r *Reader) init() {
	size := r.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
		r.BufferSize = size
	}
	r.threshold = min(size, maxLoadThreshold)
	r.buf = ring.New(size + r.threshold)
	r.fields = make([]field, 0, 16)
}

func (r *Reader) quote() byte {
	if r.Quote == 0 {
		return '"'
	}
	return r.Quote
}

// fill tops up the buffer and reports whether the whole input is now buffered.
// The source is not read again once it came up short.
func (r *Reader) fill() (bool, error) {
	if r.drained {
		return r.buf.Len()-r.valid >= r.threshold, nil
	}
	n, eof, err := r.buf.Fill(r.src, r.lineStart, r.valid, r.threshold)
	r.valid += n
	if eof {
		r.drained = true
	}
	return eof, err
}

// nextField opens a new field starting at linear position start.
func (r *Reader) nextField(start int) *field {
	if r.nfields == len(r.fields) {
		r.fields = append(r.fields, field{})
	}
	f := &r.fields[r.nfields]
	r.nfields++
	f.reset(start)
	return f
}

func (r *Reader) lineTooLong() error {
	return &ParseError{Line: r.line, BufferSize: r.BufferSize, Err: ErrLineTooLong}
}

// readRecord scans one line starting at lineStart and consumes it, including
// its terminator.
func (r *Reader) readRecord() (bool, error) {
	eof, err := r.fill()
	if err != nil {
		return false, err
	}
	r.nfields = 0
	if r.valid <= 0 {
		return false, nil
	}
	r.line++

	var (
		buf        = r.buf
		quote      = r.quote()
		delim      = r.delim
		delimFirst = delim[0]
		trim       = r.TrimFields
		maxPos     = r.lineStart + r.valid
		pos        = r.lineStart
		cur        = r.nextField(pos)

		ignoreQuote bool
		lineEnded   bool
	)

scan:
	for ; pos < maxPos; pos++ {
		ch := buf.At(pos)
		switch {
		case ch == quote:
			switch {
			case ignoreQuote:
				cur.end = pos
			case cur.quoted || cur.length() > 0:
				// A quote after content is plain text for the rest of the field.
				cur.end = pos
				cur.quoted = false
				ignoreQuote = true
			default:
				end, closed := r.scanQuoted(pos+1, maxPos, cur)
				if !closed && !eof {
					return false, r.lineTooLong()
				}
				cur.start = pos
				cur.quoted = true
				if closed {
					cur.end = end
					pos = end
				} else {
					// Unterminated at end of input: close after the last byte.
					cur.end = maxPos
					pos = maxPos - 1
				}
			}
		case ch == '\r':
			if pos+1 < maxPos && buf.At(pos+1) == '\n' {
				pos++
			}
			pos++
			lineEnded = true
			break scan
		case ch == '\n':
			pos++
			lineEnded = true
			break scan
		case ch == delimFirst && (len(delim) == 1 || r.matchDelimTail(pos, maxPos)):
			pos += len(delim) - 1
			cur = r.nextField(pos + 1)
			ignoreQuote = false
		case ch == ' ' && trim:
		default:
			if cur.length() == 0 {
				cur.start = pos
			}
			if cur.quoted {
				// Content after the closing quote demotes the field to plain text.
				cur.quoted = false
				ignoreQuote = true
			}
			cur.end = pos
		}
	}
	if !lineEnded && !eof {
		return false, r.lineTooLong()
	}

	r.valid -= pos - r.lineStart
	r.lineStart = buf.Index(pos)
	return true, nil
}

// scanQuoted looks for the quote closing a field whose content begins at
// start. Doubled quotes are counted as escapes on f. closed is false if maxPos
// was reached first.
func (r *Reader) scanQuoted(start, maxPos int, f *field) (end int, closed bool) {
	buf := r.buf
	quote := r.quote()
	for pos := start; pos < maxPos; pos++ {
		if buf.At(pos) != quote {
			continue
		}
		if pos+1 < maxPos && buf.At(pos+1) == quote {
			pos++
			f.escaped++
			continue
		}
		return pos, true
	}
	return maxPos, false
}

// matchDelimTail reports whether the bytes after pos complete a multi-byte delimiter.
func (r *Reader) matchDelimTail(pos, maxPos int) bool {
	for i := 1; i < len(r.delim); i++ {
		if pos+i >= maxPos || r.buf.At(pos+i) != r.delim[i] {
			return false
		}
	}
	return true
}
