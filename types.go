// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package linkframe implements a small link-layer file-transfer protocol:
// a fixed-shape, bit-packed frame format plus the stop-and-wait reliable
// delivery state machine both peers run on top of a raw datagram transport.
//
// Wire format: a 67-byte frame — a 1-byte sync marker, a 2-byte bit-packed
// header (6-bit size, 5-bit sequence number, 5-bit operation type), a
// 63-byte opaque payload region, and a 1-byte parity trailer. See Encode
// and Decode for the exact byte layout.
//
// Unlike a variable-length framing layer over a stream transport, this
// protocol always moves exactly one frame at a time and waits for an
// acknowledgement before sending the next: stop-and-wait, not a sliding
// window.
package linkframe

import "time"

const (
	// InitMarker is the constant synchronization byte at frame offset 0.
	InitMarker byte = 0x7E

	// FrameLen is the total on-wire length of one frame, in bytes.
	FrameLen = 1 + headerLen + MaxDataSize + 1

	headerLen = 2

	// MaxDataSize is the maximum number of meaningful payload bytes per frame.
	MaxDataSize = 63

	// SeqModulus is the modulus of the 5-bit sequence counter.
	SeqModulus = 32

	// DefaultFilenameSize bounds the accumulated filename buffer on the receiver.
	DefaultFilenameSize = 256

	// DefaultTimeout is the receive deadline applied to each transmission
	// attempt by the sender engine.
	DefaultTimeout = 500 * time.Millisecond

	// MaxRetries is the retry budget: a frame is transmitted at most
	// 1+MaxRetries times before its phase fails.
	MaxRetries = 5
)

// OpType is the 5-bit operation code carried in every frame header.
type OpType uint8

// Operation codes. Values are arbitrary but fixed across a build; both
// peers in a session must agree on them, which in practice means running
// the same compiled binary on both ends.
const (
	OpData OpType = iota
	OpBackup
	OpRestore
	OpVerify
	OpSize
	OpOKChecksum
	OpAck
	OpNack
	OpOK
	OpError
	OpEnd
	OpErrorCantFindFile
	OpErrorInsufficientSpace
	OpErrorChecksumMismatch
)

func (t OpType) String() string {
	switch t {
	case OpData:
		return "DATA"
	case OpBackup:
		return "BACKUP"
	case OpRestore:
		return "RESTORE"
	case OpVerify:
		return "VERIFY"
	case OpSize:
		return "SIZE"
	case OpOKChecksum:
		return "OKCHECKSUM"
	case OpAck:
		return "ACK"
	case OpNack:
		return "NACK"
	case OpOK:
		return "OK"
	case OpError:
		return "ERROR"
	case OpEnd:
		return "END"
	case OpErrorCantFindFile:
		return "ERROR_CANT_FIND_FILE"
	case OpErrorInsufficientSpace:
		return "ERROR_INSUFFICIENT_SPACE"
	case OpErrorChecksumMismatch:
		return "ERROR_CHECKSUM_MISMATCH"
	default:
		return "UNKNOWN"
	}
}

// isControl reports whether t carries no payload semantics of its own
// (zero-length payload, meaning carried entirely by type+seq).
func (t OpType) isControl() bool {
	switch t {
	case OpAck, OpNack, OpOK, OpError, OpEnd:
		return true
	default:
		return false
	}
}
