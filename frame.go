// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linkframe

// Frame is a decoded on-wire frame.
//
// The on-wire layout (67 bytes total) is:
//
//	offset 0    : MI     = 0x7E                        (8 bits)
//	offset 1-2  : Header = [ size:6 | seq:5 | type:5 ]  (16 bits, little-endian)
//	offset 3-65 : Data   = 63 bytes opaque payload
//	offset 66   : Parity = XOR of bytes 1..65           (8 bits)
//
// The header packs its three subfields low-bit-first into a little-endian
// uint16: bits 0-5 hold size, bits 6-10 hold seq, bits 11-15 hold type. This
// is an explicit, portable replacement for a compiler-specific native
// bit-field layout — see Encode/Decode.
type Frame struct {
	Seq  Seq
	Type OpType
	Size uint8
	Data [MaxDataSize]byte
}

const (
	sizeMask = 0x3f // 6 bits
	seqMask  = 0x1f // 5 bits
	typeMask = 0x1f // 5 bits

	seqShift  = 6
	typeShift = 6 + 5
)

func packHeader(size uint8, seq Seq, typ OpType) uint16 {
	h := uint16(size&sizeMask) | uint16(uint8(seq)&seqMask)<<seqShift | uint16(uint8(typ)&typeMask)<<typeShift
	return h
}

func unpackHeader(h uint16) (size uint8, seq Seq, typ OpType) {
	size = uint8(h & sizeMask)
	seq = Seq(uint8(h>>seqShift) & seqMask)
	typ = OpType(uint8(h>>typeShift) & typeMask)
	return
}

// parity computes the integrity byte over the header and data region
// (bytes 1..65 of the encoded frame): a running XOR of every covered byte.
func parity(header [headerLen]byte, data [MaxDataSize]byte) byte {
	var p byte
	for _, b := range header {
		p ^= b
	}
	for _, b := range data {
		p ^= b
	}
	return p
}

// Encode builds the 67-byte wire representation of a frame carrying
// data[:size] as payload. size must be <= MaxDataSize and len(data) must be
// >= size; Encode zero-fills the remainder of the 63-byte payload region.
func Encode(seq Seq, typ OpType, size int, data []byte) ([FrameLen]byte, error) {
	var out [FrameLen]byte
	if size < 0 || size > MaxDataSize {
		return out, ErrTooLong
	}
	if len(data) < size {
		return out, ErrInvalidArgument
	}

	var hbuf [headerLen]byte
	h := packHeader(uint8(size), seq, typ)
	hbuf[0] = byte(h)
	hbuf[1] = byte(h >> 8)

	var dbuf [MaxDataSize]byte
	copy(dbuf[:], data[:size])

	out[0] = InitMarker
	out[1] = hbuf[0]
	out[2] = hbuf[1]
	copy(out[3:3+MaxDataSize], dbuf[:])
	out[FrameLen-1] = parity(hbuf, dbuf)
	return out, nil
}

// Decode parses a frame out of buf[:n]. It rejects (returns false) when n is
// too short, the sync marker is missing, the declared size exceeds
// MaxDataSize, or the parity byte does not match. Per §4.1 of the protocol,
// a rejected frame must be silently dropped by callers rather than NACKed,
// since the underlying transport is a shared raw socket that may carry
// foreign traffic.
func Decode(buf []byte, n int) (Frame, bool) {
	var f Frame
	if n < FrameLen {
		return f, false
	}
	if buf[0] != InitMarker {
		return f, false
	}

	var hbuf [headerLen]byte
	hbuf[0] = buf[1]
	hbuf[1] = buf[2]
	h := uint16(hbuf[0]) | uint16(hbuf[1])<<8

	size, seq, typ := unpackHeader(h)
	if size > MaxDataSize {
		return f, false
	}

	var dbuf [MaxDataSize]byte
	copy(dbuf[:], buf[3:3+MaxDataSize])

	if buf[FrameLen-1] != parity(hbuf, dbuf) {
		return f, false
	}

	f.Seq = seq
	f.Type = typ
	f.Size = size
	f.Data = dbuf
	return f, true
}

// Payload returns the meaningful portion of f.Data, i.e. f.Data[:f.Size].
func (f Frame) Payload() []byte {
	return f.Data[:f.Size]
}
