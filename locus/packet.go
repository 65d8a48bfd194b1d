// Package locus decodes MediaTek LOCUS tracklogs: the ASCII-hex stream
// format carried inside PMTKLOX frames (stream.go) and the raw flash
// image format of fixed-size sectors (flash.go).
package locus

import (
	geo "github.com/kellydunn/golang-geo"

	"github.com/edgebound/mtkgps/units"
)

// LittleEndian documents the decision (see original_source's
// utc_date_time.rs/parser.rs commentary: "we're just guessing this is
// little-endian") to treat every multi-byte LOCUS field as little-endian.
// It is not a runtime switch; nothing observed in either source or spec
// needs one, but the name records the decision for future flipping.
const LittleEndian = true

// Fix is the decoded GPS fix quality of a point.
type Fix int

const (
	// FixNo means no fix.
	FixNo Fix = iota
	// FixGps means a plain GPS fix.
	FixGps
	// FixDGps means a differential GPS fix.
	FixDGps
	// FixDeadReckoning means the position was dead-reckoned.
	FixDeadReckoning
)

func (f Fix) String() string {
	switch f {
	case FixNo:
		return "No"
	case FixGps:
		return "GpsFix"
	case FixDGps:
		return "DGpsFix"
	case FixDeadReckoning:
		return "DeadReckoning"
	default:
		return "Invalid"
	}
}

// DecodeFix applies the priority-ordered bit tests from the quality byte:
// &0x04 -> DGpsFix, &0x02 -> GpsFix, &0x40 -> DeadReckoning, ==0 -> No,
// anything else is invalid.
func DecodeFix(quality byte) (Fix, bool) {
	switch {
	case quality&0x04 != 0:
		return FixDGps, true
	case quality&0x02 != 0:
		return FixGps, true
	case quality&0x40 != 0:
		return FixDeadReckoning, true
	case quality == 0x00:
		return FixNo, true
	default:
		return 0, false
	}
}

// LoggedPoint is a basic-mode LOCUS point: the 16-byte record the stream
// decoder (PMTKLOX) produces. Unlike flash-mode Packet, every field is
// always present.
type LoggedPoint struct {
	Timestamp uint32
	FixFlag   byte
	Lat       float32
	Lon       float32
	Height    int16
	// ChecksumOK reports whether the XOR of all 16 bytes equals 0, the
	// condition for a valid point.
	ChecksumOK bool
}

// Fix decodes the point's fix-flag byte.
func (p LoggedPoint) Fix() (Fix, bool) { return DecodeFix(p.FixFlag) }

// Location returns a geo.Point built from Lat/Lon. Basic-mode points
// always carry both fields.
func (p LoggedPoint) Location() *geo.Point {
	return geo.NewPoint(float64(p.Lat), float64(p.Lon))
}

// Packet is a flash-mode LOCUS record: every field is optional, gated by
// the sector's content-flag bitmap.
type Packet struct {
	UTC     *units.UtcDateTime
	Valid   *Fix
	Lat     *float32
	Lon     *float32
	Height  *int16
	Speed   *int16
	Trk     *uint16
	Hdop    *uint16
	NumSat  *uint8
}

// Location returns a geo.Point built from Lat/Lon when both are present.
func (p Packet) Location() (*geo.Point, bool) {
	if p.Lat == nil || p.Lon == nil {
		return nil, false
	}
	return geo.NewPoint(float64(*p.Lat), float64(*p.Lon)), true
}

// ContentFlags is the u32 bitmap at header offset 4 describing which
// fields each packet in a sector contains.
type ContentFlags uint32

// Bit values for ContentFlags, grounded in
// original_source/blong/ada_gps/src/logger/parser.rs's bitflags! block.
const (
	FlagUTC     ContentFlags = 1 << 0
	FlagValid   ContentFlags = 1 << 1
	FlagLat     ContentFlags = 1 << 2
	FlagLon     ContentFlags = 1 << 3
	FlagHeight  ContentFlags = 1 << 4
	FlagSpeed   ContentFlags = 1 << 5
	FlagTrk     ContentFlags = 1 << 6
	FlagHdop    ContentFlags = 1 << 10
	FlagNumSat  ContentFlags = 1 << 12

	knownFlags = FlagUTC | FlagValid | FlagLat | FlagLon | FlagHeight |
		FlagSpeed | FlagTrk | FlagHdop | FlagNumSat
)

// Masked returns f with unknown bits cleared.
func (f ContentFlags) Masked() ContentFlags { return f & knownFlags }

// Has reports whether bit is set.
func (f ContentFlags) Has(bit ContentFlags) bool { return f&bit != 0 }

// fieldSize maps each known flag to its payload width in bytes.
var fieldSize = map[ContentFlags]int{
	FlagUTC:    4,
	FlagValid:  1,
	FlagLat:    4,
	FlagLon:    4,
	FlagHeight: 2,
	FlagSpeed:  2,
	FlagTrk:    2,
	FlagHdop:   2,
	FlagNumSat: 1,
}

// fieldOrder is the fixed decode order for flash-mode packets.
var fieldOrder = []ContentFlags{
	FlagUTC, FlagValid, FlagLat, FlagLon, FlagHeight, FlagSpeed, FlagTrk, FlagHdop, FlagNumSat,
}

// PacketSize returns the packet size implied by flags: the sum of each
// set flag's field width, plus one trailing checksum byte.
func PacketSize(flags ContentFlags) int {
	flags = flags.Masked()
	size := 1 // trailing checksum byte
	for _, bit := range fieldOrder {
		if flags.Has(bit) {
			size += fieldSize[bit]
		}
	}
	return size
}

// Stats accumulates counters across a flash decode pass.
type Stats struct {
	SectorCount    int
	InvalidSectors int
	EmptySectors   int
	InvalidPackets int
	PacketsParsed  int
	InvalidFields  int
}
