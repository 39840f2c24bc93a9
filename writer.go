package ringcsv

import (
	"bufio"
	"errors"
	"io"
	"runtime"
	"strings"
)

const writerBufferSize = 1 << 12 // 4096 bytes

var (
	errNilWriter      = errors.New("ringcsv: writer is nil")
	errWriterNoTarget = errors.New("ringcsv: writer destination cannot be nil")
)

// Writer emits CSV field by field with configurable delimiter and quoting rules.
type Writer struct {
	dst   *bufio.Writer
	delim string

	// Quote is the quote string. Default is `"`.
	Quote string
	// AlwaysQuote forces quoting for all fields when enabled.
	AlwaysQuote bool
	// Trim removes leading and trailing white space from fields before writing.
	Trim bool
	// QuoteIfTrimPossible quotes fields starting or ending with a space so
	// that trimming readers keep the spaces. Default is true.
	QuoteIfTrimPossible bool
	// UseCRLF terminates records with \r\n instead of \n. Default follows the platform.
	UseCRLF bool

	fields    int
	lastEmpty bool
	err       error
}

// NewWriter creates a comma-separated Writer with internal buffering. It
// panics if w is nil.
func NewWriter(w io.Writer) *Writer {
	wr, err := NewWriterDelimiter(w, ",")
	if err != nil {
		panic(err)
	}
	return wr
}

// NewWriterDelimiter creates a Writer separating fields with delim, which may
// be longer than one byte. It panics if w is nil and returns ErrEmptyDelimiter
// if delim is empty.
func NewWriterDelimiter(w io.Writer, delim string) (*Writer, error) {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	if delim == "" {
		return nil, ErrEmptyDelimiter
	}
	return &Writer{
		dst:                 bufio.NewWriterSize(w, writerBufferSize),
		delim:               delim,
		Quote:               `"`,
		QuoteIfTrimPossible: true,
		UseCRLF:             runtime.GOOS == "windows",
	}, nil
}

// Delimiter returns the field delimiter.
func (w *Writer) Delimiter() string {
	return w.delim
}

// Reset updates the underlying writer while preserving the configuration and
// discarding any pending error and partial record.
func (w *Writer) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, writerBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	if w.delim == "" {
		w.delim = ","
	}
	w.fields = 0
	w.lastEmpty = false
	w.err = nil
}

// WriteField appends one field to the current record, preceded by the
// delimiter unless it is the first field of the record.
func (w *Writer) WriteField(field string) error {
	if err := w.check(); err != nil {
		return err
	}
	if w.Trim {
		field = strings.TrimSpace(field)
	}
	if w.fields > 0 {
		if _, err := w.dst.WriteString(w.delim); err != nil {
			w.err = err
			return err
		}
	}
	if err := w.writeField(field); err != nil {
		w.err = err
		return err
	}
	w.fields++
	w.lastEmpty = field == "" && !w.AlwaysQuote
	return nil
}

// EndRecord terminates the current record.
func (w *Writer) EndRecord() error {
	if err := w.check(); err != nil {
		return err
	}
	if w.fields == 1 && w.lastEmpty {
		// A lone empty field would read back as a blank line and be skipped.
		q := w.quote()
		if _, err := w.dst.WriteString(q + q); err != nil {
			w.err = err
			return err
		}
	}
	w.fields = 0
	w.lastEmpty = false

	var err error
	if w.UseCRLF {
		_, err = w.dst.WriteString("\r\n")
	} else {
		err = w.dst.WriteByte('\n')
	}
	if err != nil {
		w.err = err
	}
	return err
}

// Write emits a single CSV record followed by the record terminator.
func (w *Writer) Write(record []string) error {
	for _, field := range record {
		if err := w.WriteField(field); err != nil {
			return err
		}
	}
	return w.EndRecord()
}

// WriteAll writes multiple records, stopping at the first error.
func (w *Writer) WriteAll(records [][]string) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.check(); err != nil {
		return err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func (w *Writer) check() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	return w.err
}

func (w *Writer) quote() string {
	if w.Quote == "" {
		return `"`
	}
	return w.Quote
}

func (w *Writer) writeField(field string) error {
	quote := w.quote()
	if !w.AlwaysQuote && !w.fieldNeedsQuote(field, quote) {
		_, err := w.dst.WriteString(field)
		return err
	}
	if _, err := w.dst.WriteString(quote); err != nil {
		return err
	}

	start := 0
	for {
		i := strings.Index(field[start:], quote)
		if i < 0 {
			break
		}
		end := start + i + len(quote)
		// Every quote is written twice.
		if _, err := w.dst.WriteString(field[start:end]); err != nil {
			return err
		}
		if _, err := w.dst.WriteString(quote); err != nil {
			return err
		}
		start = end
	}
	if start < len(field) {
		if _, err := w.dst.WriteString(field[start:]); err != nil {
			return err
		}
	}
	_, err := w.dst.WriteString(quote)
	return err
}

func (w *Writer) fieldNeedsQuote(field, quote string) bool {
	if field == "" {
		return false
	}
	if w.QuoteIfTrimPossible && (field[0] == ' ' || field[len(field)-1] == ' ') {
		return true
	}
	if strings.Contains(field, quote) {
		return true
	}
	if len(w.delim) > 1 {
		return strings.ContainsAny(field, "\r\n") || strings.Contains(field, w.delim) || overlapsDelimiter(field, w.delim)
	}
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case w.delim[0], '\n', '\r':
			return true
		}
	}
	return false
}

// overlapsDelimiter reports whether the delimiter following field would be
// matched early, starting inside field.
func overlapsDelimiter(field, delim string) bool {
	for k := 1; k < len(delim) && k <= len(field); k++ {
		if strings.HasSuffix(field, delim[:k]) && strings.HasPrefix(delim, delim[k:]) {
			return true
		}
	}
	return false
}
