// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linkframe

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// Handler applies the side effect for one accepted frame (§4.5's handler
// table) and reports the response type to send and whether this frame
// ends the phase.
type Handler interface {
	Handle(f Frame) (respType OpType, terminal bool, err error)
}

// RunReceiver drives one follower phase: classify each arriving frame
// against expectedSeq, dispatch the expected ones to handler, re-acknowledge
// duplicates idempotently, and NACK anything out of sequence, until handler
// reports the phase terminal.
func RunReceiver(conn Conn, handler Handler, opts ...Option) error {
	return runReceiver(conn, handler, newOptions(opts...))
}

func runReceiver(conn Conn, handler Handler, o Options) error {
	if conn == nil || handler == nil {
		return ErrInvalidArgument
	}
	log := o.Logger

	expected := Seq(0)
	var lastResp [FrameLen]byte
	haveLastResp := false

	buf := make([]byte, FrameLen)
	for {
		n, err := conn.Recv(buf, time.Time{}) // follower blocks indefinitely between frames
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				continue
			}
			return err
		}

		frame, ok := Decode(buf, n)
		if !ok {
			continue // bad marker/parity/short: silently dropped, may be foreign traffic
		}

		switch Classify(expected, frame.Seq) {
		case SeqOutOfSequence:
			log.Debug("linkframe: out-of-sequence frame, NACKing",
				zap.Uint8("expected", uint8(expected)), zap.Uint8("got", uint8(frame.Seq)))
			resp, _ := Encode(expected, OpNack, 0, nil)
			if err := conn.Send(resp[:]); err != nil {
				return err
			}

		case SeqDuplicate:
			log.Debug("linkframe: duplicate frame, re-acknowledging", zap.Uint8("seq", uint8(frame.Seq)))
			if haveLastResp {
				if err := conn.Send(lastResp[:]); err != nil {
					return err
				}
			} else {
				resp, _ := Encode(frame.Seq, OpAck, 0, nil)
				if err := conn.Send(resp[:]); err != nil {
					return err
				}
			}

		case SeqExpected:
			respType, terminal, herr := handler.Handle(frame)
			if herr != nil {
				resp, _ := Encode(expected, OpError, 0, nil)
				_ = conn.Send(resp[:])
				if o.Metrics != nil {
					o.Metrics.phasesFailed.Inc()
				}
				return herr
			}
			resp, encErr := Encode(expected, respType, 0, nil)
			if encErr != nil {
				return encErr
			}
			if err := conn.Send(resp[:]); err != nil {
				return err
			}
			lastResp = resp
			haveLastResp = true
			expected = expected.Next()

			if terminal {
				if o.Metrics != nil {
					o.Metrics.phasesSucceeded.Inc()
				}
				return nil
			}
		}
	}
}
