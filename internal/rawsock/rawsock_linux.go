// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

// Package rawsock opens the raw datagram socket linkframe's protocol core
// treats as an external collaborator (§6.3): a socket bound to a named
// network interface, carrying 67-byte frames directly at the Ethernet
// layer with no IP/UDP headers involved.
package rawsock

import (
	"net"
	"time"

	"github.com/gopacket/gopacket/afpacket"
	"github.com/pkg/errors"

	"github.com/linkframe/linkframe"
)

// Handle is a linkframe.Conn backed by an AF_PACKET socket.
type Handle struct {
	tp    *afpacket.TPacket
	iface string
}

// Open binds a raw socket to the named interface (e.g. "eth0").
func Open(ifaceName string) (*Handle, error) {
	if _, err := net.InterfaceByName(ifaceName); err != nil {
		return nil, errors.Wrapf(err, "rawsock: interface %s", ifaceName)
	}
	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(ifaceName),
		afpacket.OptFrameSize(4096),
		afpacket.OptBlockSize(4096*128),
		afpacket.OptNumBlocks(8),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "rawsock: open %s", ifaceName)
	}
	return &Handle{tp: tp, iface: ifaceName}, nil
}

// Send transmits one frame as a single Ethernet-layer packet.
func (h *Handle) Send(frame []byte) error {
	return errors.Wrap(h.tp.WritePacketData(frame), "rawsock: send")
}

// Recv blocks until one packet arrives or deadline elapses. It satisfies
// linkframe.Conn: a timed-out read reports linkframe.ErrTimeout so the
// sender engine's retry logic (§4.4) can recognize it by identity.
func (h *Handle) Recv(buf []byte, deadline time.Time) (int, error) {
	if err := h.tp.SetDeadline(deadline); err != nil {
		return 0, errors.Wrap(err, "rawsock: set deadline")
	}
	data, _, err := h.tp.ZeroCopyReadPacketData()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, linkframe.ErrTimeout
		}
		return 0, errors.Wrap(err, "rawsock: recv")
	}
	n := copy(buf, data)
	return n, nil
}

// Close releases the underlying socket.
func (h *Handle) Close() error {
	h.tp.Close()
	return nil
}
