// Package storage provides positioned random-access reads of the fixed and
// variable-length blocks that make up an MDF file.
//
// Every MDF block is addressed by an absolute byte offset rather than read
// in file order, so Reader is built around io.ReaderAt instead of the
// sequential io.Reader a tape or disk image would use.
package storage

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Reader performs positioned reads against an underlying io.ReaderAt.
type Reader struct {
	ra   io.ReaderAt
	size int64
}

// NewReader wraps ra for positioned block reads. size is the total length
// of the underlying data; reads that would cross it fail with Truncated.
func NewReader(ra io.ReaderAt, size int64) *Reader {
	return &Reader{ra: ra, size: size}
}

// ReadBytes reads n bytes at the given absolute offset.
func (r *Reader) ReadBytes(offset int64, n int) ([]byte, error) {
	if offset < 0 || n < 0 {
		return nil, errors.Errorf("storage: negative offset or length (offset=%d, n=%d)", offset, n)
	}
	if offset+int64(n) > r.size {
		return nil, errors.Wrapf(ErrTruncated, "offset %d + length %d exceeds file size %d", offset, n, r.size)
	}

	buf := make([]byte, n)
	if _, err := r.ra.ReadAt(buf, offset); err != nil && err != io.EOF {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	return buf, nil
}

// ReadStruct decodes the fixed-width little-endian struct v starting at offset.
func (r *Reader) ReadStruct(offset int64, v interface{}) error {
	size := binary.Size(v)
	if size < 0 {
		return errors.Errorf("storage: value of type %T has no fixed binary size", v)
	}
	buf, err := r.ReadBytes(offset, size)
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(buf), binary.LittleEndian, v)
}

// ReadStructOrder decodes v using the given byte order, for the handful of
// big-endian channel/conversion fields MDF allows.
func (r *Reader) ReadStructOrder(offset int64, order binary.ByteOrder, v interface{}) error {
	size := binary.Size(v)
	if size < 0 {
		return errors.Errorf("storage: value of type %T has no fixed binary size", v)
	}
	buf, err := r.ReadBytes(offset, size)
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(buf), order, v)
}

// ReadTag reads the 2-byte ASCII block tag at offset.
func (r *Reader) ReadTag(offset int64) (string, error) {
	buf, err := r.ReadBytes(offset, 2)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadBlockSize reads the 16-bit little-endian block size that follows the
// tag at offset (i.e. at offset+2).
func (r *Reader) ReadBlockSize(offset int64) (uint16, error) {
	buf, err := r.ReadBytes(offset+2, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ExpectTag reads the tag at offset and fails with BadTag if it doesn't
// match want.
func (r *Reader) ExpectTag(offset int64, want string) error {
	got, err := r.ReadTag(offset)
	if err != nil {
		return err
	}
	if got != want {
		return errors.Wrapf(ErrBadTag, "expected %q at offset %d, got %q", want, offset, got)
	}
	return nil
}

// ReadLatin1 reads n bytes at offset, trims trailing NUL bytes, and decodes
// the remainder as latin-1 (ISO-8859-1) with replacement for invalid bytes.
//
// MDF 3 predates UTF-8 adoption and real-world files mix encodings; a strict
// UTF-8 decode would reject otherwise-readable files, so latin-1 with
// replacement is used throughout instead.
func (r *Reader) ReadLatin1(offset int64, n int) (string, error) {
	buf, err := r.ReadBytes(offset, n)
	if err != nil {
		return "", err
	}
	return decodeLatin1(trimNUL(buf)), nil
}

// ReadVariableBlock reads a variable-length block's header (tag + size) at
// offset, then the trailing BlockSize-4 bytes of payload. Used for TX and PR
// blocks, whose length is not known in advance.
func (r *Reader) ReadVariableBlock(offset int64, wantTag string) ([]byte, error) {
	if offset == 0 {
		return nil, nil
	}
	if err := r.ExpectTag(offset, wantTag); err != nil {
		return nil, err
	}
	size, err := r.ReadBlockSize(offset)
	if err != nil {
		return nil, err
	}
	if size < 4 {
		return nil, errors.Wrapf(ErrTruncated, "block at offset %d declares size %d, smaller than the 4-byte header", offset, size)
	}
	return r.ReadBytes(offset+4, int(size)-4)
}

// Size returns the total length of the underlying data.
func (r *Reader) Size() int64 {
	return r.size
}

// DecodeLatin1 trims trailing NUL bytes from b and decodes the remainder as
// latin-1, for callers that already hold a fixed-size field's raw bytes
// (e.g. one decoded via ReadStruct) rather than an offset to read fresh.
func DecodeLatin1(b []byte) string {
	return decodeLatin1(trimNUL(b))
}

func trimNUL(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

func decodeLatin1(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// Every byte maps to a valid ISO-8859-1 code point, so the decoder
		// cannot actually fail; fall back to the equivalent 1:1 rune mapping.
		runes := make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
		return string(runes)
	}
	return string(out)
}
