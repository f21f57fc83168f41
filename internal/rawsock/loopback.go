// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rawsock

import (
	"time"

	"github.com/linkframe/linkframe"
)

// Loopback is an in-memory linkframe.Conn, the synchronous-pipe counterpart
// to the teacher package's NewPipe: a deterministic stand-in for a raw
// socket, used by session-level tests and by local development setups that
// have no NIC to bind to.
type Loopback struct {
	out chan<- []byte
	in  <-chan []byte
}

// NewLoopbackPair returns two connected Loopback endpoints: frames sent on
// one are received on the other. Each direction is buffered so Send never
// blocks under the stop-and-wait discipline (at most one frame in flight
// per direction at a time).
func NewLoopbackPair() (a, b *Loopback) {
	ab := make(chan []byte, 4)
	ba := make(chan []byte, 4)
	a = &Loopback{out: ab, in: ba}
	b = &Loopback{out: ba, in: ab}
	return a, b
}

// Send transmits one frame. The buffer is copied so the caller may reuse
// its argument slice immediately after Send returns.
func (l *Loopback) Send(frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	l.out <- cp
	return nil
}

// Recv blocks until a frame arrives or deadline elapses. A zero deadline
// means block indefinitely, matching the follower engine's between-frame
// wait.
func (l *Loopback) Recv(buf []byte, deadline time.Time) (int, error) {
	if deadline.IsZero() {
		data := <-l.in
		return copy(buf, data), nil
	}
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case data := <-l.in:
		return copy(buf, data), nil
	case <-timer.C:
		return 0, linkframe.ErrTimeout
	}
}
