// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linkframe

import "io"

// sliceSource is a UnitSource over a fixed, pre-built list of units — used
// for every phase except the DATA transfer, whose length isn't known up
// front.
type sliceSource struct {
	units []Unit
	i     int
}

func (s *sliceSource) Next() (Unit, error) {
	if s.i >= len(s.units) {
		return Unit{}, io.EOF
	}
	u := s.units[s.i]
	s.i++
	return u, nil
}

func handshakeSource(op OpType, name string) *sliceSource {
	chunks := FilenameChunks(name)
	units := make([]Unit, len(chunks))
	for i, c := range chunks {
		units[i] = Unit{Type: op, Data: c, Final: i == len(chunks)-1}
	}
	return &sliceSource{units: units}
}

func sizeSource(size int64) *sliceSource {
	return &sliceSource{units: []Unit{{Type: OpSize, Data: EncodeSize(size), Final: true}}}
}

func checksumSource(sum [16]byte) *sliceSource {
	return &sliceSource{units: []Unit{{Type: OpOKChecksum, Data: EncodeChecksum(sum), Final: true}}}
}

func endSource() *sliceSource {
	return &sliceSource{units: []Unit{{Type: OpEnd, Final: true}}}
}

// dataUnitSource adapts a DataSource to UnitSource.
type dataUnitSource struct{ ds *DataSource }

func (d *dataUnitSource) Next() (Unit, error) {
	chunk, done, err := d.ds.Next()
	if err != nil {
		return Unit{}, err
	}
	return Unit{Type: OpData, Data: chunk, Final: done}, nil
}

// handshakeHandler accumulates a BACKUP/RESTORE/VERIFY filename carrier and
// records which operation the driver initiated (carried in every chunk's
// frame type).
type handshakeHandler struct {
	op      OpType
	started bool
	acc     *FilenameAccumulator
}

func newHandshakeHandler(filenameLimit int) *handshakeHandler {
	return &handshakeHandler{acc: NewFilenameAccumulator(filenameLimit)}
}

func (h *handshakeHandler) Handle(f Frame) (OpType, bool, error) {
	if !h.started {
		h.op = f.Type
		h.started = true
	}
	if err := h.acc.Append(f.Payload()); err != nil {
		return OpError, true, err
	}
	return OpOK, f.Size < MaxDataSize, nil
}

// sizeHandler decodes a SIZE frame and applies the configured space check.
type sizeHandler struct {
	checkSpace func(int64) bool
	size       int64
}

func (h *sizeHandler) Handle(f Frame) (OpType, bool, error) {
	sz, err := DecodeSize(f.Payload())
	if err != nil {
		return OpError, true, err
	}
	h.size = sz
	if h.checkSpace != nil && !h.checkSpace(sz) {
		return OpError, true, ErrInsufficientSpace
	}
	return OpOK, true, nil
}

// dataHandler appends each DATA frame's payload to sink and terminates the
// phase on the first short frame (§4.5's DATA termination rule).
type dataHandler struct {
	sink *DataSink
}

func (h *dataHandler) Handle(f Frame) (OpType, bool, error) {
	if f.Size > 0 {
		if err := h.sink.Write(f.Payload()); err != nil {
			return OpError, true, err
		}
	}
	return OpAck, f.Size < MaxDataSize, nil
}

// checksumHandler compares an arriving OKCHECKSUM payload against a
// locally computed MD5 sum.
type checksumHandler struct {
	want [16]byte
}

func (h *checksumHandler) Handle(f Frame) (OpType, bool, error) {
	match, err := DecodeChecksum(f.Payload(), h.want)
	if err != nil {
		return OpError, true, err
	}
	if !match {
		return OpError, true, ErrChecksumMismatch
	}
	return OpOK, true, nil
}

// endHandler marks the phase terminal on receipt of an END control frame.
type endHandler struct{}

func (endHandler) Handle(Frame) (OpType, bool, error) {
	return OpAck, true, nil
}
