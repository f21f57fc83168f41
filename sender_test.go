// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linkframe_test

import (
	"errors"
	"testing"
	"time"

	"github.com/linkframe/linkframe"
)

// scriptedConn is a hand-rolled fake Conn: Send appends to sent, Recv pops
// the next scripted response (or reports ErrTimeout) for each call index.
type scriptedConn struct {
	sent  [][]byte
	steps []scriptStep
	calls int
}

type scriptStep struct {
	frame   [linkframe.FrameLen]byte
	timeout bool
}

func (c *scriptedConn) Send(frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	c.sent = append(c.sent, cp)
	return nil
}

func (c *scriptedConn) Recv(buf []byte, _ time.Time) (int, error) {
	if c.calls >= len(c.steps) {
		return 0, linkframe.ErrTimeout
	}
	step := c.steps[c.calls]
	c.calls++
	if step.timeout {
		return 0, linkframe.ErrTimeout
	}
	return copy(buf, step.frame[:]), nil
}

func mustEncode(t *testing.T, seq linkframe.Seq, typ linkframe.OpType) [linkframe.FrameLen]byte {
	t.Helper()
	f, err := linkframe.Encode(seq, typ, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// oneUnitSource hands out a single final unit, then errors if asked again.
type oneUnitSource struct {
	unit linkframe.Unit
	done bool
}

func (s *oneUnitSource) Next() (linkframe.Unit, error) {
	if s.done {
		return linkframe.Unit{}, errors.New("sender_test: Next called after final unit")
	}
	s.done = true
	return s.unit, nil
}

func TestRunSenderAdvancesOnACK(t *testing.T) {
	t.Parallel()

	conn := &scriptedConn{steps: []scriptStep{
		{frame: mustEncode(t, 0, linkframe.OpAck)},
	}}
	src := &oneUnitSource{unit: linkframe.Unit{Type: linkframe.OpEnd, Final: true}}

	ok, err := linkframe.RunSender(conn, src, linkframe.WithTimeout(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("RunSender reported failure on a clean ACK")
	}
	if len(conn.sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(conn.sent))
	}
}

func TestRunSenderRetransmitsOnTimeoutThenSucceeds(t *testing.T) {
	t.Parallel()

	conn := &scriptedConn{steps: []scriptStep{
		{timeout: true},
		{frame: mustEncode(t, 0, linkframe.OpOK)},
	}}
	src := &oneUnitSource{unit: linkframe.Unit{Type: linkframe.OpEnd, Final: true}}

	ok, err := linkframe.RunSender(conn, src, linkframe.WithTimeout(5*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("RunSender reported failure")
	}
	if len(conn.sent) != 2 {
		t.Fatalf("sent %d frames, want 2 (original + one retransmit)", len(conn.sent))
	}
	if string(conn.sent[0]) != string(conn.sent[1]) {
		t.Fatal("retransmitted frame differs from the original")
	}
}

func TestRunSenderRetransmitsOnNACK(t *testing.T) {
	t.Parallel()

	conn := &scriptedConn{steps: []scriptStep{
		{frame: mustEncode(t, 0, linkframe.OpNack)},
		{frame: mustEncode(t, 0, linkframe.OpAck)},
	}}
	src := &oneUnitSource{unit: linkframe.Unit{Type: linkframe.OpEnd, Final: true}}

	ok, err := linkframe.RunSender(conn, src, linkframe.WithTimeout(5*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("RunSender reported failure")
	}
	if len(conn.sent) != 2 {
		t.Fatalf("sent %d frames, want 2", len(conn.sent))
	}
}

func TestRunSenderAcceptsOneAheadDuplicateAck(t *testing.T) {
	t.Parallel()

	// The follower has already advanced to seq 1 (its own ack to seq 0 was
	// lost on the wire, but it processed the frame): seq.Next() still
	// counts as an acknowledgement per §4.4.
	conn := &scriptedConn{steps: []scriptStep{
		{frame: mustEncode(t, 1, linkframe.OpAck)},
	}}
	src := &oneUnitSource{unit: linkframe.Unit{Type: linkframe.OpEnd, Final: true}}

	ok, err := linkframe.RunSender(conn, src, linkframe.WithTimeout(5*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("RunSender reported failure on a one-ahead duplicate ack")
	}
}

func TestRunSenderFailsOnRemoteError(t *testing.T) {
	t.Parallel()

	conn := &scriptedConn{steps: []scriptStep{
		{frame: mustEncode(t, 0, linkframe.OpError)},
	}}
	src := &oneUnitSource{unit: linkframe.Unit{Type: linkframe.OpBackup, Final: true}}

	_, err := linkframe.RunSender(conn, src, linkframe.WithTimeout(5*time.Millisecond))
	if !errors.Is(err, linkframe.ErrRemoteError) {
		t.Fatalf("err = %v, want ErrRemoteError", err)
	}
}

func TestRunSenderExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	var steps []scriptStep
	for i := 0; i < 16; i++ {
		steps = append(steps, scriptStep{timeout: true})
	}
	conn := &scriptedConn{steps: steps}
	src := &oneUnitSource{unit: linkframe.Unit{Type: linkframe.OpEnd, Final: true}}

	_, err := linkframe.RunSender(conn, src,
		linkframe.WithTimeout(time.Millisecond),
		linkframe.WithMaxRetries(5),
	)
	if !errors.Is(err, linkframe.ErrRetriesExhausted) {
		t.Fatalf("err = %v, want ErrRetriesExhausted", err)
	}
	if len(conn.sent) != 6 {
		t.Fatalf("sent %d frames, want 6 (1 original + 5 retries)", len(conn.sent))
	}
}

func TestRunSenderIgnoresForeignTrafficUntilDeadline(t *testing.T) {
	t.Parallel()

	// A frame for a different (future) sequence number is neither an ack
	// nor a NACK for seq 0: the sender must keep waiting, not misclassify.
	conn := &scriptedConn{steps: []scriptStep{
		{frame: mustEncode(t, 17, linkframe.OpAck)},
		{timeout: true},
		{frame: mustEncode(t, 0, linkframe.OpAck)},
	}}
	src := &oneUnitSource{unit: linkframe.Unit{Type: linkframe.OpEnd, Final: true}}

	ok, err := linkframe.RunSender(conn, src, linkframe.WithTimeout(5*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("RunSender reported failure")
	}
}

func TestRunSenderRejectsNilArguments(t *testing.T) {
	t.Parallel()

	if _, err := linkframe.RunSender(nil, &oneUnitSource{}); err != linkframe.ErrInvalidArgument {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if _, err := linkframe.RunSender(&scriptedConn{}, nil); err != linkframe.ErrInvalidArgument {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}
