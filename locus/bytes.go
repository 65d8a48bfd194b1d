package locus

import (
	"encoding/binary"
	"math"
)

// le16, le32, and leF32 read little-endian values the way
// original_source/blong/ada_gps/src/logger/parser.rs's read_u16_at /
// read_u32_at / read_f32_at do, per the LittleEndian decision documented
// in packet.go. Signed 16-bit fields are read with le16 and converted.

func le16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

func le32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func leF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
