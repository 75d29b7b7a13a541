// Package frame decodes the XBee API frame binary protocol: a delimiter
// byte, a big-endian length, a payload and a checksum, with a resync
// scheme that tolerates garbage on the wire. It is deliberately pure and
// I/O-free so the state machine can be driven and tested one byte chunk
// at a time without a real serial device.
package frame

import (
	"fmt"

	"github.com/xbee868/monitor/internal/constants"
)

// IODataSample is the decoded payload of an API-0x92 "I/O Data Sample
// Rx" frame.
type IODataSample struct {
	SourceAddress   uint64
	NetworkAddress  uint16
	ReceiveOptions  uint8
	SamplesNumber   uint8
	DigitalMask     uint16
	AnalogMask      uint8
	DigitalSamples  uint16
	HasDigital      bool
	AnalogSamples   map[int]uint16 // keyed by analog channel index, LSB first
}

// ErrInvalidFrame reports a malformed frame: bad delimiter, oversized
// length, checksum mismatch or a payload that doesn't fill its declared
// size. The decoder always resyncs after one, it never wedges.
type ErrInvalidFrame struct {
	Reason string
}

func (e *ErrInvalidFrame) Error() string { return "invalid frame: " + e.Reason }

type state int

const (
	stateFindHeader state = iota
	stateRecvHeader
	stateRecvBody
)

// Decoder implements the FIND_HEADER / RECV_HEADER / RECV_BODY state
// machine against an accumulating byte buffer. Feed appends newly read
// bytes and returns every frame (or error) the new data completed.
type Decoder struct {
	state      state
	buf        []byte
	frameSize  int
	skipped    int
}

// NewDecoder returns a Decoder ready to find the first frame header.
func NewDecoder() *Decoder {
	return &Decoder{state: stateFindHeader}
}

// Feed appends data to the internal buffer and drains as many complete
// frames as it can. Errors are reported alongside successfully decoded
// frames in the order encountered; decoding always continues past an
// error by resyncing on the next delimiter byte.
func (d *Decoder) Feed(data []byte) (frames []*IODataSample, errs []error) {
	d.buf = append(d.buf, data...)

	for {
		switch d.state {
		case stateFindHeader:
			if !d.findHeader() {
				return frames, errs
			}
		case stateRecvHeader:
			ok, err := d.receiveHeader()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !ok {
				return frames, errs
			}
		case stateRecvBody:
			sample, ok, err := d.receiveBody()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !ok {
				return frames, errs
			}
			if sample != nil {
				frames = append(frames, sample)
			}
		}
	}
}

// findHeader scans for the delimiter byte, discarding everything before
// it. It returns false when the buffer holds no delimiter yet.
func (d *Decoder) findHeader() bool {
	idx := indexByte(d.buf, constants.FrameDelimiter)
	if idx == -1 {
		d.skipped += len(d.buf)
		d.buf = d.buf[:0]
		return false
	}
	if idx > 0 {
		d.skipped += idx
		d.buf = d.buf[idx:]
	}
	d.state = stateRecvHeader
	return true
}

// receiveHeader consumes the 3-byte delimiter+length header once enough
// bytes are available.
func (d *Decoder) receiveHeader() (ok bool, err error) {
	if len(d.buf) < constants.FrameHeaderSize {
		return false, nil
	}

	size := int(d.buf[1])<<8 | int(d.buf[2])
	if size > constants.MaxFrameSize {
		return false, d.resync("frame size exceeds limit")
	}

	d.frameSize = size
	d.state = stateRecvBody
	return true, nil
}

// receiveBody waits for the full payload plus checksum, validates the
// checksum and, for a recognized frame type, decodes it.
func (d *Decoder) receiveBody() (sample *IODataSample, ok bool, err error) {
	total := constants.FrameHeaderSize + d.frameSize + 1
	if len(d.buf) < total {
		return nil, false, nil
	}

	payload := d.buf[constants.FrameHeaderSize : constants.FrameHeaderSize+d.frameSize]
	wantChecksum := d.buf[constants.FrameHeaderSize+d.frameSize]

	var sum byte
	for _, b := range payload {
		sum += b
	}
	gotChecksum := 0xFF - sum

	if gotChecksum != wantChecksum {
		return nil, false, d.resync("checksum mismatch")
	}

	sample, decodeErr := decodePayload(payload)
	d.consumeFrame(total)
	if decodeErr != nil {
		return nil, true, decodeErr
	}
	return sample, true, nil
}

// consumeFrame drops a fully-processed frame from the buffer and returns
// to header search, ready for the next one.
func (d *Decoder) consumeFrame(total int) {
	d.buf = append(d.buf[:0], d.buf[total:]...)
	d.state = stateFindHeader
}

// resync drops the current (invalid) frame and restarts the search for a
// delimiter starting one byte in, mirroring the original decoder's
// find(delimiter, start_pos=1) recovery.
func (d *Decoder) resync(reason string) error {
	idx := indexByteFrom(d.buf, constants.FrameDelimiter, 1)
	if idx == -1 {
		d.skipped += len(d.buf)
		d.buf = d.buf[:0]
		d.state = stateFindHeader
	} else {
		d.skipped += idx
		d.buf = d.buf[idx:]
		d.state = stateRecvHeader
	}
	return &ErrInvalidFrame{Reason: reason}
}

// SkippedBytes returns the total number of non-frame bytes discarded
// since the Decoder was created, for diagnostics and metrics.
func (d *Decoder) SkippedBytes() int { return d.skipped }

func decodePayload(payload []byte) (*IODataSample, error) {
	frameType := payload[0]
	if frameType != constants.FrameTypeIODataSample {
		return nil, nil
	}

	const headerFields = 8 + 2 + 1 + 1 + 2 + 1 // address, netaddr, opts, nsamples, digital mask, analog mask
	offset := 1
	if offset+headerFields > len(payload) {
		return nil, &ErrInvalidFrame{Reason: "frame too short for I/O sample header"}
	}

	s := &IODataSample{AnalogSamples: make(map[int]uint16)}
	s.SourceAddress = beUint64(payload[offset : offset+8])
	offset += 8
	s.NetworkAddress = beUint16(payload[offset : offset+2])
	offset += 2
	s.ReceiveOptions = payload[offset]
	offset++
	s.SamplesNumber = payload[offset]
	offset++
	s.DigitalMask = beUint16(payload[offset : offset+2])
	offset += 2
	s.AnalogMask = payload[offset]
	offset++

	if s.DigitalMask != 0 {
		if offset+2 > len(payload) {
			return nil, &ErrInvalidFrame{Reason: "digital mask set but no digital samples present"}
		}
		s.DigitalSamples = beUint16(payload[offset : offset+2])
		s.HasDigital = true
		offset += 2
	}

	mask := s.AnalogMask
	for shift := 0; mask != 0; shift++ {
		if mask&1 != 0 {
			if offset+2 > len(payload) {
				return nil, &ErrInvalidFrame{Reason: "analog mask set but no analog sample present"}
			}
			s.AnalogSamples[shift] = beUint16(payload[offset : offset+2])
			offset += 2
		}
		mask >>= 1
	}

	if offset != len(payload) {
		return nil, &ErrInvalidFrame{Reason: fmt.Sprintf("frame size is too big for its payload (%d unread bytes)", len(payload)-offset)}
	}

	return s, nil
}

func beUint16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func indexByte(buf []byte, b byte) int { return indexByteFrom(buf, b, 0) }

func indexByteFrom(buf []byte, b byte, start int) int {
	for i := start; i < len(buf); i++ {
		if buf[i] == b {
			return i
		}
	}
	return -1
}
