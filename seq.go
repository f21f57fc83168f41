// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linkframe

// Seq is a cumulative sequence number, always held modulo SeqModulus (32,
// i.e. 5 bits on the wire).
type Seq uint8

// Next returns the sequence number following s, wrapping at SeqModulus.
func (s Seq) Next() Seq {
	return Seq((uint8(s) + 1) % SeqModulus)
}

// Prev returns the sequence number preceding s, wrapping at SeqModulus.
func (s Seq) Prev() Seq {
	return Seq((uint8(s) + SeqModulus - 1) % SeqModulus)
}

// SeqClass classifies an observed sequence number against an expected one.
type SeqClass uint8

const (
	// SeqExpected means the observed value equals the expected value:
	// process the frame and advance.
	SeqExpected SeqClass = iota

	// SeqDuplicate means the observed value equals expected-1 (mod
	// SeqModulus): the peer is retransmitting a frame already applied.
	// Re-acknowledge without re-applying side effects.
	SeqDuplicate

	// SeqOutOfSequence is anything else: reply NACK, do not advance.
	SeqOutOfSequence
)

// Classify compares an observed sequence number r against the receiver's
// expected value e. The three cases are mutually exclusive and exhaustive
// for every (e, r) pair in [0,32)².
func Classify(expected, observed Seq) SeqClass {
	e := Seq(uint8(expected) % SeqModulus)
	r := Seq(uint8(observed) % SeqModulus)
	switch {
	case r == e:
		return SeqExpected
	case r == e.Prev():
		return SeqDuplicate
	default:
		return SeqOutOfSequence
	}
}
