package ringcsv

import (
	"bytes"
	stdcsv "encoding/csv"
	"io"
	"strings"
	"testing"
)

func benchmarkData() []byte {
	buf := []byte(strings.Repeat(`xxxxxxxxxxxxxxxx,yyyyyyyyyyyyyyyy,zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz,wwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwww,vvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvv
xxxxxxxxxxxxxxxxxxxxxxxx,yyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyy,zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz,wwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwww,vvvv
,,zzzz,wwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwww,"vvvvvvvvvvvvvvvvvvvvvvvv""vvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvv"
xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx,yyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyy,zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz,wwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwww,vvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvvv
`, 3))
	return buf
}

func BenchmarkReaderField(b *testing.B) {
	data := benchmarkData()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		cr := NewReader(bytes.NewReader(data))
		for {
			ok, err := cr.Read()
			if err != nil {
				b.Fatal(err)
			}
			if !ok {
				break
			}
			for j := 0; j < cr.FieldCount(); j++ {
				cr.Field(j)
			}
		}
	}
}

func BenchmarkReaderProcessField(b *testing.B) {
	data := benchmarkData()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var total int
	count := func(_ []byte, _, length int) {
		total += length
	}
	for i := 0; i < b.N; i++ {
		cr := NewReader(bytes.NewReader(data))
		for {
			ok, err := cr.Read()
			if err != nil {
				b.Fatal(err)
			}
			if !ok {
				break
			}
			for j := 0; j < cr.FieldCount(); j++ {
				cr.ProcessField(j, count)
			}
		}
	}
}

func BenchmarkEncodingCSV(b *testing.B) {
	data := benchmarkData()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		rdr := bytes.NewReader(data)
		cr := stdcsv.NewReader(rdr)
		cr.ReuseRecord = true

		for {
			if _, err := cr.Read(); err != nil {
				if err == io.EOF {
					break
				}
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkWriter(b *testing.B) {
	record := []string{"plain", "with,comma", "with \"quote\"", " padded ", "multi\nline"}
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := NewWriter(io.Discard)
		for j := 0; j < 1000; j++ {
			if err := w.Write(record); err != nil {
				b.Fatal(err)
			}
		}
		if err := w.Flush(); err != nil {
			b.Fatal(err)
		}
	}
}
