// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linkframe

import "errors"

// Sentinel errors for the protocol core. These are the expected,
// errors.Is-comparable control-flow outcomes of running a phase; they are
// deliberately not wrapped with stack traces (unlike adapter-boundary
// failures — see internal/rawsock for those).
var (
	// ErrInvalidArgument reports a nil connection, handler, or unit source
	// passed to RunSender/RunReceiver, or a payload whose length does not
	// fit its field (Encode, DecodeSize, DecodeChecksum).
	ErrInvalidArgument = errors.New("linkframe: invalid argument")

	// ErrTooLong reports a payload that exceeds MaxDataSize for a single
	// frame, or a filename that exceeds the configured filename buffer.
	ErrTooLong = errors.New("linkframe: payload too long")

	// ErrRetriesExhausted reports that a frame was transmitted
	// 1+MaxRetries times without a matching response; the phase fails.
	ErrRetriesExhausted = errors.New("linkframe: retry budget exhausted")

	// ErrRemoteError reports that the peer responded with type OpError.
	ErrRemoteError = errors.New("linkframe: peer reported an error")

	// ErrChecksumMismatch reports that a VERIFY/BACKUP OKCHECKSUM exchange
	// found the two files differ.
	ErrChecksumMismatch = errors.New("linkframe: checksum mismatch")

	// ErrCantFindFile reports a local precondition failure: the file named
	// by a BACKUP or VERIFY phase could not be opened on the driver side,
	// caught before the phase starts (see session.go).
	ErrCantFindFile = errors.New("linkframe: cannot find file")

	// ErrInsufficientSpace reports that the receiver rejected a SIZE frame
	// because the declared file size would not fit in available storage.
	ErrInsufficientSpace = errors.New("linkframe: insufficient space")
)
