// # RingCSV: A Constant-Memory Streaming CSV Library for Go
//
// RingCSV parses arbitrarily large CSV streams with a fixed-size circular buffer and writes CSV with configurable quoting. Records are scanned in place; field values are only copied when the caller asks for them.
//
// # Features
//
// - Streaming reader over a circular buffer: memory is bounded by `Reader.BufferSize`, which is also the longest supported line.
// - Single or multi-byte delimiters (`NewReaderDelimiter`, `NewWriterDelimiter`), configurable quote character, optional trimming of unquoted fields.
// - `\n`, `\r\n` and lone `\r` line endings; empty lines are skipped.
// - Indexed access (`Reader.Field`, `Reader.FieldLen`) and zero-copy access (`Reader.ProcessField`).
// - Lenient quoting: a quote after field content is plain text and an unterminated quote at end of input closes the field.
// - Buffered writer with per-field (`Writer.WriteField`, `Writer.EndRecord`) and per-record (`Writer.Write`) APIs.
// - Structured error reporting via `ParseError`, `ErrLineTooLong` and `ErrEmptyDelimiter`.
//
// # Getting Started
//
//	r := ringcsv.NewReader(file)
//	for {
//		ok, err := r.Read()
//		if err != nil {
//			return err
//		}
//		if !ok {
//			break
//		}
//		name, _ := r.Field(0)
//		fmt.Println(name)
//	}
//
// A Reader or Writer must not be used from several goroutines at once.
package ringcsv
