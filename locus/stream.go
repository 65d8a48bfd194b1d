package locus

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// StreamError is the LOCUS stream decoder's own error type.
type StreamError struct {
	Reason string
}

func (e *StreamError) Error() string { return "locus: " + e.Reason }

var (
	// ErrInvalidFieldCount is returned when a data frame's hex-chunk
	// count is not a multiple of 4.
	ErrInvalidFieldCount = &StreamError{Reason: "hex chunk count not a multiple of 4"}
	// ErrInvalidFieldLength is returned when a hex chunk is not exactly
	// 8 characters.
	ErrInvalidFieldLength = &StreamError{Reason: "hex chunk is not 8 characters"}
	// ErrHexDecode is returned when a chunk is not valid hex.
	ErrHexDecode = &StreamError{Reason: "hex chunk failed to decode"}
	// ErrUnexpectedFrameKind is returned when a PMTKLOX frame's kind
	// field (field 0) is not "0", "1", or "2".
	ErrUnexpectedFrameKind = &StreamError{Reason: "unexpected PMTKLOX frame kind"}
	// ErrIndexMismatch is returned when a data frame's index field does
	// not equal the expected loop counter.
	ErrIndexMismatch = &StreamError{Reason: "data frame index does not match loop counter"}
	// ErrMissingField is returned when a frame lacks a field its kind
	// requires (e.g. start's total-count field).
	ErrMissingField = &StreamError{Reason: "frame missing a required field"}
)

// FrameKind is the PMTKLOX envelope's field-0 discriminator.
type FrameKind int

const (
	FrameStart FrameKind = iota
	FrameData
	FrameEnd
)

// ParseFrameKind reads field 0 of a PMTKLOX frame's field list.
func ParseFrameKind(fields [][]byte) (FrameKind, error) {
	if len(fields) < 1 {
		return 0, ErrMissingField
	}
	switch string(fields[0]) {
	case "0":
		return FrameStart, nil
	case "1":
		return FrameData, nil
	case "2":
		return FrameEnd, nil
	default:
		return 0, ErrUnexpectedFrameKind
	}
}

// ParseStartFrame extracts the total data-frame count from a start frame's
// fields (field 1).
func ParseStartFrame(fields [][]byte) (total int, err error) {
	if len(fields) < 2 {
		return 0, ErrMissingField
	}
	n, err := strconv.Atoi(string(fields[1]))
	if err != nil {
		return 0, fmt.Errorf("locus: parse total frame count: %w", err)
	}
	return n, nil
}

// StreamOptions configures the stream decoder's handling of points whose
// per-point checksum fails. The source computes but does not enforce this
// checksum; this spec mandates recording the mismatch in Stats and leaves
// drop-vs-keep as an explicit policy choice.
type StreamOptions struct {
	// DropInvalidPoints, when true, omits points failing the per-point
	// XOR checksum from the decoded slice (they are still counted in
	// Stats.InvalidPackets). Default false keeps them, matching the
	// source's current behavior of counting but not dropping.
	DropInvalidPoints bool
}

const maxPointsPerDataFrame = 12

// DecodeDataFrame decodes one PMTKLOX data frame's fields into
// LoggedPoints. fields[0] must be "1", fields[1] must equal
// strconv.Itoa(expectedIndex), and fields[2:] are the hex chunks, decoded
// in groups of 4 (4 chunks x 8 hex chars = 16 bytes = one LoggedPoint).
func DecodeDataFrame(fields [][]byte, expectedIndex int, opts StreamOptions, stats *Stats) ([]LoggedPoint, error) {
	if len(fields) < 2 {
		return nil, ErrMissingField
	}
	if string(fields[0]) != "1" {
		return nil, ErrUnexpectedFrameKind
	}
	idx, err := strconv.Atoi(string(fields[1]))
	if err != nil || idx != expectedIndex {
		return nil, ErrIndexMismatch
	}

	chunks := fields[2:]
	if len(chunks)%4 != 0 {
		return nil, ErrInvalidFieldCount
	}
	if len(chunks)/4 > maxPointsPerDataFrame {
		return nil, ErrInvalidFieldCount
	}

	points := make([]LoggedPoint, 0, len(chunks)/4)
	for g := 0; g < len(chunks); g += 4 {
		var raw [16]byte
		for c := 0; c < 4; c++ {
			chunk := chunks[g+c]
			if len(chunk) != 8 {
				return nil, ErrInvalidFieldLength
			}
			var decoded [4]byte
			if _, err := hex.Decode(decoded[:], chunk); err != nil {
				return nil, ErrHexDecode
			}
			copy(raw[c*4:c*4+4], decoded[:])
		}
		point := parseLoggedPoint(raw)
		if !point.ChecksumOK {
			stats.InvalidPackets++
		}
		if point.ChecksumOK || !opts.DropInvalidPoints {
			points = append(points, point)
		}
	}
	stats.PacketsParsed += len(points)
	return points, nil
}

func parseLoggedPoint(raw [16]byte) LoggedPoint {
	var cs byte
	for _, b := range raw {
		cs ^= b
	}
	return LoggedPoint{
		Timestamp:  le32(raw[0:4]),
		FixFlag:    raw[4],
		Lat:        leF32(raw[5:9]),
		Lon:        leF32(raw[9:13]),
		Height:     int16(le16(raw[13:15])),
		ChecksumOK: cs == 0,
	}
}
