package zlib

import (
	"bytes"
	stdzlib "compress/zlib"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testInput generates reproducible data: symbols from a small alphabet,
// optionally repeating the byte one period back three times out of four.
func testInput(n, alphabet, period int, seed uint32) []byte {
	b := make([]byte, n)
	x := seed
	for i := range b {
		x = x*1664525 + 1013904223
		if period > 0 && i >= period && x>>30 != 0 {
			b[i] = b[i-period]
		} else {
			b[i] = byte((x >> 16) % uint32(alphabet))
		}
	}
	return b
}

func TestCompressReference(t *testing.T) {
	cases := []struct {
		name                string
		n, alphabet, period int
		seed                uint32
		levels              []int
	}{
		{"empty", 0, 2, 0, 1, []int{1, 6, 9}},
		{"short", 300, 4, 7, 2, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"noise", 40000, 16, 0, 3, []int{1, 6}},
		{"rows", 120000, 8, 97, 4, []int{1, 3, 4, 6, 9}},
	}
	for _, tc := range cases {
		data := testInput(tc.n, tc.alphabet, tc.period, tc.seed)
		for _, level := range tc.levels {
			name := fmt.Sprintf("%s-%d", tc.name, level)
			t.Run(name, func(t *testing.T) {
				want, err := os.ReadFile(filepath.Join("testdata", name+".zlib"))
				require.NoError(t, err)

				got, err := Compress(data, level)
				require.NoError(t, err)
				if !bytes.Equal(got, want) {
					t.Fatalf("stream differs from reference: got %d bytes, want %d", len(got), len(want))
				}
			})
		}
	}
}

func TestCompressScanlines(t *testing.T) {
	// filtered scanlines of the 3x2 gray and 2x2 RGB layer fixtures
	cases := []struct {
		raw, want string
	}{
		{"00ffcc9900663300", "789c63f87f6626439a310300105e02fe"},
		{"0096960000009600009600960000", "789c6398368d8181611a08010900181402ef"},
	}
	for _, tc := range cases {
		raw, err := hex.DecodeString(tc.raw)
		require.NoError(t, err)
		got, err := Compress(raw, DefaultCompression)
		require.NoError(t, err)
		require.Equal(t, tc.want, hex.EncodeToString(got))
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0},
		[]byte("abcabcabcabcabcabcabc"),
		bytes.Repeat([]byte{7}, 100000),
		testInput(70000, 256, 0, 9),
		testInput(150000, 3, 1000, 11),
	}
	for i, in := range inputs {
		for level := NoCompression; level <= BestCompression; level++ {
			got, err := Compress(in, level)
			require.NoError(t, err)

			r, err := stdzlib.NewReader(bytes.NewReader(got))
			require.NoError(t, err, "input %d level %d", i, level)
			out, err := io.ReadAll(r)
			require.NoError(t, err, "input %d level %d", i, level)
			require.True(t, bytes.Equal(in, out), "input %d level %d: round trip mismatch", i, level)
		}
	}
}

func TestHeader(t *testing.T) {
	for level, want := range map[int]uint16{0: 0x7801, 1: 0x7801, 2: 0x785e, 5: 0x785e, 6: 0x789c, 7: 0x78da, 9: 0x78da} {
		require.Equal(t, want, header(level), "level %d", level)
	}
}

func TestInvalidLevel(t *testing.T) {
	for _, level := range []int{-2, 10} {
		_, err := Compress([]byte("x"), level)
		require.True(t, errors.Is(err, ErrLevel))

		_, err = NewWriterLevel(io.Discard, level)
		require.True(t, errors.Is(err, ErrLevel))
	}
}

func TestWriter(t *testing.T) {
	data := testInput(5000, 4, 13, 5)

	var buf bytes.Buffer
	w, err := NewWriterLevel(&buf, DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(data[:1000])
	require.NoError(t, err)
	_, err = w.Write(data[1000:])
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte{1})
	require.Error(t, err)

	want, err := Compress(data, DefaultCompression)
	require.NoError(t, err)
	require.Equal(t, want, buf.Bytes())
}
