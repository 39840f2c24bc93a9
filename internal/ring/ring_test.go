package ring

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	b := New(8)

	assert.Equal(t, 0, b.Index(0))
	assert.Equal(t, 7, b.Index(7))
	assert.Equal(t, 0, b.Index(8))
	assert.Equal(t, 3, b.Index(11))
	assert.Equal(t, 7, b.Index(15))
}

func TestSegments(t *testing.T) {
	b := New(8)
	copy(b.Bytes(), "abcdefgh")

	tests := []struct {
		name  string
		start int
		n     int
		head  string
		tail  string
	}{
		{name: "empty", start: 3, n: 0},
		{name: "contiguous", start: 1, n: 3, head: "bcd"},
		{name: "touchesEnd", start: 5, n: 3, head: "fgh"},
		{name: "wraps", start: 6, n: 4, head: "gh", tail: "ab"},
		{name: "pastEnd", start: 9, n: 2, head: "bc"},
		{name: "whole", start: 4, n: 8, head: "efgh", tail: "abcd"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			head, tail := b.Segments(tc.start, tc.n)
			assert.Equal(t, tc.head, string(head))
			assert.Equal(t, tc.tail, string(tail))
			assert.Equal(t, tc.tail == "", b.Contiguous(tc.start, tc.n))
			assert.Equal(t, tc.head+tc.tail, string(b.AppendTo(nil, tc.start, tc.n)))
		})
	}
}

func TestFillEmpty(t *testing.T) {
	b := New(8)

	n, eof, err := b.Fill(strings.NewReader("abcdefghij"), 0, 0, 4)
	require.NoError(t, err)
	assert.False(t, eof)
	assert.Equal(t, 8, n)
	assert.Equal(t, "abcdefgh", string(b.Bytes()))
}

func TestFillShortReadIsEOF(t *testing.T) {
	b := New(8)

	n, eof, err := b.Fill(iotest.OneByteReader(strings.NewReader("abc")), 0, 0, 4)
	require.NoError(t, err)
	assert.True(t, eof)
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", string(b.Bytes()[:3]))
}

func TestFillBelowThreshold(t *testing.T) {
	b := New(8)

	n, eof, err := b.Fill(strings.NewReader("xyz"), 0, 6, 4)
	require.NoError(t, err)
	assert.False(t, eof)
	assert.Zero(t, n)
}

func TestFillWrapsInTwoRuns(t *testing.T) {
	b := New(8)
	copy(b.Bytes(), "......ab")

	// two valid bytes at 6..7, free space is 0..5
	n, eof, err := b.Fill(strings.NewReader("cdefgh"), 6, 2, 4)
	require.NoError(t, err)
	assert.False(t, eof)
	assert.Equal(t, 6, n)
	assert.Equal(t, "abcdefgh", string(b.AppendTo(nil, 6, 8)))

	copy(b.Bytes(), "........")
	copy(b.Bytes()[2:], "ab")

	// valid bytes at 2..3, free space is 4..7 then 0..1
	n, eof, err = b.Fill(strings.NewReader("cdefgh"), 2, 2, 4)
	require.NoError(t, err)
	assert.False(t, eof)
	assert.Equal(t, 6, n)
	assert.Equal(t, "abcdefgh", string(b.AppendTo(nil, 2, 8)))
}

func TestFillInnerRun(t *testing.T) {
	b := New(8)
	copy(b.Bytes(), "cd....ab")

	// valid bytes wrap (6..7, 0..1), free space is 2..5
	n, eof, err := b.Fill(strings.NewReader("efgh"), 6, 4, 2)
	require.NoError(t, err)
	assert.False(t, eof)
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcdefgh", string(b.AppendTo(nil, 6, 8)))
}

func TestFillPropagatesError(t *testing.T) {
	b := New(8)
	boom := errors.New("boom")

	_, eof, err := b.Fill(iotest.ErrReader(boom), 0, 0, 4)
	assert.False(t, eof)
	require.ErrorIs(t, err, boom)
}

func TestNewPanicsOnInvalidSize(t *testing.T) {
	assert.Panics(t, func() { New(0) })
}
