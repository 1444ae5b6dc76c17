// Package zlib writes zlib streams (RFC 1950) that are byte-identical to the
// output of the reference C zlib at the same compression level.
//
// The standard library's compress/zlib produces valid but different
// streams. Image payloads that are compared as strings need the exact
// bytes, so this package reproduces the reference match finder, block
// splitting and Huffman tree construction. Levels 1 through 9 match the
// reference encoder; level 0 writes plain stored blocks.
package zlib

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/adler32"
	"io"
)

const (
	NoCompression      = 0
	BestSpeed          = 1
	BestCompression    = 9
	DefaultCompression = -1
)

var ErrLevel = errors.New("zlib: invalid compression level")

// Compress returns the complete zlib stream for data.
func Compress(data []byte, level int) ([]byte, error) {
	if level == DefaultCompression {
		level = 6
	}
	if level < NoCompression || level > BestCompression {
		return nil, fmt.Errorf("%w: %d", ErrLevel, level)
	}

	out := make([]byte, 0, len(data)/2+16)
	out = binary.BigEndian.AppendUint16(out, header(level))
	out = append(out, newCompressor(level).deflate(data)...)
	return binary.BigEndian.AppendUint32(out, adler32.Checksum(data)), nil
}

func header(level int) uint16 {
	var flags uint16
	switch {
	case level < 2:
		flags = 0
	case level < 6:
		flags = 1
	case level == 6:
		flags = 2
	default:
		flags = 3
	}
	h := uint16(0x78)<<8 | flags<<6
	return h + 31 - h%31
}

// Writer buffers everything written to it and emits the compressed
// stream on Close. The match finder needs the whole input to reproduce
// the reference block boundaries.
type Writer struct {
	w      io.Writer
	level  int
	buf    bytes.Buffer
	closed bool
}

func NewWriterLevel(w io.Writer, level int) (*Writer, error) {
	if level != DefaultCompression && (level < NoCompression || level > BestCompression) {
		return nil, fmt.Errorf("%w: %d", ErrLevel, level)
	}
	return &Writer{w: w, level: level}, nil
}

func (z *Writer) Write(p []byte) (int, error) {
	if z.closed {
		return 0, errors.New("zlib: write after close")
	}
	return z.buf.Write(p)
}

func (z *Writer) Close() error {
	if z.closed {
		return nil
	}
	z.closed = true
	b, err := Compress(z.buf.Bytes(), z.level)
	if err != nil {
		return err
	}
	_, err = z.w.Write(b)
	return err
}
