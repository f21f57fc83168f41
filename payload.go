// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linkframe

import (
	"crypto/md5"
	"encoding/binary"
	"io"
	"path/filepath"
)

// DataSource encodes a stream of DATA frames from a file. Each call to Next
// reads up to MaxDataSize bytes from r and reports them plus whether this
// was the final chunk (a short read, size < MaxDataSize).
type DataSource struct {
	r io.Reader
}

// NewDataSource wraps r as a DATA payload shaper.
func NewDataSource(r io.Reader) *DataSource { return &DataSource{r: r} }

// Next reads the next chunk. done is true once a short read (or io.EOF with
// zero bytes) has been observed; the caller must still transmit the final
// chunk itself, even when it's zero length, so the receiver's short-frame
// termination rule (§4.5) can fire.
func (d *DataSource) Next() (chunk []byte, done bool, err error) {
	buf := make([]byte, MaxDataSize)
	n, rerr := io.ReadFull(d.r, buf)
	switch {
	case rerr == nil:
		return buf[:n], false, nil
	case rerr == io.ErrUnexpectedEOF || rerr == io.EOF:
		return buf[:n], true, nil
	default:
		return nil, false, rerr
	}
}

// DataSink is the receiver-side counterpart to DataSource: it appends each
// arriving DATA chunk to the underlying writer.
type DataSink struct {
	w io.Writer
}

// NewDataSink wraps w as a DATA payload consumer.
func NewDataSink(w io.Writer) *DataSink { return &DataSink{w: w} }

// Write appends chunk to the output file.
func (d *DataSink) Write(chunk []byte) error {
	_, err := d.w.Write(chunk)
	return err
}

// FilenameChunks splits name into MaxDataSize-byte frames for the
// BACKUP/RESTORE/VERIFY handshake. Per the policy fixed in SPEC_FULL.md §D.1
// (resolving the source's filename-terminator ambiguity), the final chunk is
// always shorter than MaxDataSize: when len(name) is an exact multiple of
// MaxDataSize (including an empty name), FilenameChunks appends a trailing
// empty chunk, so the receiver's "size < MaxDataSize terminates" rule still
// fires. A name whose last chunk is already short gets no extra chunk.
func FilenameChunks(name string) [][]byte {
	var chunks [][]byte
	b := []byte(name)
	for len(b) >= MaxDataSize {
		chunks = append(chunks, b[:MaxDataSize])
		b = b[MaxDataSize:]
	}
	chunks = append(chunks, b) // always at least one chunk, possibly empty
	return chunks
}

// FilenameAccumulator reassembles a filename from a sequence of chunks
// delivered by the handshake phase, bounded by a maximum buffer length.
type FilenameAccumulator struct {
	buf   []byte
	limit int
}

// NewFilenameAccumulator returns an accumulator bounded by limit bytes.
func NewFilenameAccumulator(limit int) *FilenameAccumulator {
	return &FilenameAccumulator{limit: limit}
}

// Append adds chunk to the accumulated filename. It reports ErrTooLong if
// the bound would be exceeded.
func (a *FilenameAccumulator) Append(chunk []byte) error {
	if len(a.buf)+len(chunk) > a.limit {
		return ErrTooLong
	}
	a.buf = append(a.buf, chunk...)
	return nil
}

// Name returns the accumulated filename with any path components stripped,
// so a malicious or buggy peer cannot direct writes outside the intended
// output directory.
func (a *FilenameAccumulator) Name() string {
	return filepath.Base(string(a.buf))
}

// EncodeSize packs a file size into the 8-byte little-endian SIZE payload.
func EncodeSize(size int64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(size))
	return b[:]
}

// DecodeSize unpacks an 8-byte little-endian SIZE payload.
func DecodeSize(data []byte) (int64, error) {
	if len(data) != 8 {
		return 0, ErrInvalidArgument
	}
	return int64(binary.LittleEndian.Uint64(data)), nil
}

// MD5Sum computes the 16-byte MD5 checksum of r's entire content.
func MD5Sum(r io.Reader) ([16]byte, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return [16]byte{}, err
	}
	var sum [16]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// EncodeChecksum packs a 16-byte MD5 sum into an OKCHECKSUM payload.
func EncodeChecksum(sum [16]byte) []byte {
	return sum[:]
}

// DecodeChecksum unpacks an OKCHECKSUM payload and reports whether it
// matches want.
func DecodeChecksum(data []byte, want [16]byte) (match bool, err error) {
	if len(data) != 16 {
		return false, ErrInvalidArgument
	}
	var got [16]byte
	copy(got[:], data)
	return got == want, nil
}
