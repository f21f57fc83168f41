// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linkframe

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// Unit is one logical payload handed to the sender engine: one frame's
// worth of data plus whether it is the last unit of the phase.
type Unit struct {
	Type  OpType
	Data  []byte
	Final bool
}

// UnitSource produces the stream of frames a driver phase transmits. Next
// is called once per frame, never re-entrantly; the sender engine retains
// and retransmits the built frame itself on timeout/NACK, so UnitSource
// implementations need not support replay.
type UnitSource interface {
	Next() (Unit, error)
}

// RunSender drives one phase as described in §4.4: build a frame from src,
// transmit it, wait for a classified response, and either advance to the
// next unit or retransmit, until src is exhausted or the retry budget is
// spent. It returns (true, nil) once the final unit has been acknowledged.
func RunSender(conn Conn, src UnitSource, opts ...Option) (bool, error) {
	return runSender(conn, src, newOptions(opts...))
}

func runSender(conn Conn, src UnitSource, o Options) (bool, error) {
	if conn == nil || src == nil {
		return false, ErrInvalidArgument
	}
	log := o.Logger

	seq := Seq(0)
	retries := 0
	var cur [FrameLen]byte
	var final bool
	built := false

	for {
		if !built {
			unit, err := src.Next()
			if err != nil {
				return false, err
			}
			frame, err := Encode(seq, unit.Type, len(unit.Data), unit.Data)
			if err != nil {
				return false, err
			}
			cur = frame
			final = unit.Final
			built = true
			retries = 0
		}

		if err := conn.Send(cur[:]); err != nil {
			log.Error("linkframe: send failed", zap.Error(err))
			return false, err
		}
		if o.Metrics != nil {
			o.Metrics.framesSent.Inc()
		}

		deadline := time.Now().Add(o.Timeout)
		advance, retransmit, err := waitResponse(conn, o, seq, deadline, &retries, log)
		if err != nil {
			return false, err
		}
		if retransmit {
			continue // resend cur unchanged
		}
		if advance {
			seq = seq.Next()
			built = false
			if final {
				if o.Metrics != nil {
					o.Metrics.phasesSucceeded.Inc()
				}
				return true, nil
			}
		}
	}
}

// waitResponse receives and classifies frames until a decision is reached
// or the deadline elapses. advance means the response acknowledged the
// in-flight frame (normally or as a one-ahead duplicate ack) and the
// driver should move to the next unit; retransmit means the same frame
// must be sent again (timeout or NACK, budget permitting).
func waitResponse(conn Conn, o Options, seq Seq, deadline time.Time, retries *int, log *zap.Logger) (advance, retransmit bool, err error) {
	buf := make([]byte, FrameLen)
	for {
		n, rerr := conn.Recv(buf, deadline)
		if rerr != nil {
			if errors.Is(rerr, ErrTimeout) {
				*retries++
				if o.Metrics != nil {
					o.Metrics.framesRetried.Inc()
				}
				if *retries > o.MaxRetries {
					log.Warn("linkframe: retry budget exhausted", zap.Uint8("seq", uint8(seq)))
					if o.Metrics != nil {
						o.Metrics.phasesFailed.Inc()
					}
					return false, false, ErrRetriesExhausted
				}
				log.Debug("linkframe: timeout, retransmitting", zap.Uint8("seq", uint8(seq)), zap.Int("retry", *retries))
				return false, true, nil
			}
			return false, false, rerr
		}

		frame, ok := Decode(buf, n)
		if !ok {
			continue // foreign traffic on a shared socket; keep waiting
		}

		switch {
		case frame.Seq == seq && (frame.Type == OpAck || frame.Type == OpOK):
			*retries = 0
			return true, false, nil
		case frame.Seq == seq && frame.Type == OpNack:
			*retries++
			if *retries > o.MaxRetries {
				if o.Metrics != nil {
					o.Metrics.phasesFailed.Inc()
				}
				return false, false, ErrRetriesExhausted
			}
			return false, true, nil
		case frame.Seq == seq && frame.Type == OpError:
			if o.Metrics != nil {
				o.Metrics.phasesFailed.Inc()
			}
			return false, false, ErrRemoteError
		case frame.Seq == seq.Next():
			// Both endpoints' sequence counters wrap independently; a
			// follower that has already advanced past seq still counts
			// as an acknowledgement of it.
			*retries = 0
			return true, false, nil
		default:
			// Any other response: ignore, keep waiting for the same deadline.
		}
	}
}
