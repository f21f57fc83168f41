// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linkframe

import "time"

// Conn is the transport collaborator both engines drive: a single raw
// datagram socket shared by driver and follower for the lifetime of a
// session. Framing is always exactly one 67-byte datagram per Send/Recv;
// Conn implementations must preserve datagram boundaries (no stream
// reassembly), matching §6.3's raw Ethernet-layer socket.
//
// internal/rawsock provides the real AF_PACKET implementation; tests use an
// in-memory scripted pair instead of a real NIC.
type Conn interface {
	// Send transmits exactly one datagram. Sends are not expected to block
	// on the kernel buffer; a failed Send is fatal to the current phase.
	Send(frame []byte) error

	// Recv blocks until one datagram arrives or deadline elapses, and
	// reports it via n. On timeout it returns ErrTimeout.
	Recv(buf []byte, deadline time.Time) (n int, err error)
}

// ErrTimeout is returned by Conn.Recv when no datagram arrived before the
// deadline.
var ErrTimeout = errTimeout{}

type errTimeout struct{}

func (errTimeout) Error() string   { return "linkframe: receive timeout" }
func (errTimeout) Timeout() bool   { return true }
func (errTimeout) Temporary() bool { return true }
