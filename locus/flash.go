package locus

import "github.com/edgebound/mtkgps/units"

// Flash-image layout constants, grounded in
// original_source/blong/ada_gps/src/logger/parser.rs. Header2Size departs
// from the original's HEADER2_SIZE=44 (scanning header[16..60]): spec.md
// §3/§4.F/§8 explicitly and repeatedly states header-2 spans 48 bytes
// (header[16..64]) and requires exhaustive 48x256 test coverage, so the
// explicit spec value wins over the original source's narrower scan (see
// DESIGN.md).
const (
	SectorSize       = 4096
	HeaderSize       = 64
	Header1CsBufSize = 14
	Header2Size      = 48
	MaxHeader2BitNum  = 7
)

// SectorHeader is the parsed 64-byte header of one LOCUS flash sector.
type SectorHeader struct {
	ContentFlags ContentFlags
	PacketSize   int
	PacketCount  int
}

// u16XorOfLEPairs XORs together the little-endian u16 words of buf, the
// way header-1's checksum is computed.
func u16XorOfLEPairs(buf []byte) uint16 {
	var cs uint16
	for i := 0; i+1 < len(buf); i += 2 {
		cs ^= le16(buf[i : i+2])
	}
	return cs
}

// bitmapScanPacketCount implements the bitmap-scan packet-count rule
// (spec.md §4.F): walk h2 from last to first, find the first byte that is
// not 0xFF, and derive the count from how many of its high bits are
// cleared.
func bitmapScanPacketCount(h2 []byte) int {
	for i := len(h2) - 1; i >= 0; i-- {
		b := h2[i]
		if b == 0xFF {
			continue
		}
		j := 0
		for ; j <= MaxHeader2BitNum; j++ {
			if b>>uint(j) == 0 {
				break
			}
		}
		if j == 0 {
			return (i + 1) * 8
		}
		return i*8 + (MaxHeader2BitNum + 1 - j)
	}
	return 0
}

// parseSectorHeader parses the first HeaderSize bytes of a sector,
// returning ok=false if the header-1 checksum does not match (an invalid
// sector).
func parseSectorHeader(header []byte) (SectorHeader, bool) {
	expected := le16(header[Header1CsBufSize : Header1CsBufSize+2])
	computed := u16XorOfLEPairs(header[:Header1CsBufSize])
	if computed != expected {
		return SectorHeader{}, false
	}

	flags := ContentFlags(le32(header[4:8])).Masked()
	size := PacketSize(flags)
	count := bitmapScanPacketCount(header[16 : 16+Header2Size])

	return SectorHeader{ContentFlags: flags, PacketSize: size, PacketCount: count}, true
}

// Sink receives each successfully decoded Packet.
type Sink func(Packet)

// FlashDecoder decodes a buffer of whole 4096-byte LOCUS flash sectors.
type FlashDecoder struct {
	Stats Stats
}

// Parse decodes every complete sector in data, invoking sink for each
// successfully checksummed packet, and returns the accumulated Stats.
// Trailing bytes that do not form a whole sector are ignored.
func (d *FlashDecoder) Parse(data []byte, sink Sink) Stats {
	sectorCount := len(data) / SectorSize
	d.Stats.SectorCount += sectorCount

	for s := 0; s < sectorCount; s++ {
		sector := data[s*SectorSize : (s+1)*SectorSize]
		d.parseSector(sector, sink)
	}
	return d.Stats
}

func (d *FlashDecoder) parseSector(sector []byte, sink Sink) {
	header, ok := parseSectorHeader(sector[:HeaderSize])
	if !ok {
		d.Stats.InvalidSectors++
		return
	}
	if header.PacketCount == 0 {
		d.Stats.EmptySectors++
		return
	}

	payload := sector[HeaderSize:]
	for i := 0; i < header.PacketCount; i++ {
		start := i * header.PacketSize
		end := start + header.PacketSize
		if end > len(payload) {
			d.Stats.InvalidPackets++
			continue
		}
		d.parsePacket(payload[start:end], header.ContentFlags, sink)
	}
}

func (d *FlashDecoder) parsePacket(raw []byte, flags ContentFlags, sink Sink) {
	body := raw[:len(raw)-1]
	checksum := raw[len(raw)-1]

	var cs byte
	for _, b := range body {
		cs ^= b
	}
	if cs != checksum {
		d.Stats.InvalidPackets++
		return
	}

	var pkt Packet
	addr := 0
	invalid := 0

	if flags.Has(FlagUTC) {
		v := le32(body[addr : addr+4])
		addr += 4
		if ts, ok := units.NewUtcDateTimeFromUnix(int64(v)); ok {
			pkt.UTC = &ts
		} else {
			invalid++
		}
	}
	if flags.Has(FlagValid) {
		v := body[addr]
		addr++
		if fix, ok := DecodeFix(v); ok {
			pkt.Valid = &fix
		} else {
			invalid++
		}
	}
	if flags.Has(FlagLat) {
		v := leF32(body[addr : addr+4])
		addr += 4
		if v >= -90 && v <= 90 {
			pkt.Lat = &v
		} else {
			invalid++
		}
	}
	if flags.Has(FlagLon) {
		v := leF32(body[addr : addr+4])
		addr += 4
		if v >= -180 && v <= 180 {
			pkt.Lon = &v
		} else {
			invalid++
		}
	}
	if flags.Has(FlagHeight) {
		v := int16(le16(body[addr : addr+2]))
		addr += 2
		pkt.Height = &v
	}
	if flags.Has(FlagSpeed) {
		v := int16(le16(body[addr : addr+2]))
		addr += 2
		pkt.Speed = &v
	}
	if flags.Has(FlagTrk) {
		v := le16(body[addr : addr+2])
		addr += 2
		pkt.Trk = &v
	}
	if flags.Has(FlagHdop) {
		v := le16(body[addr : addr+2])
		addr += 2
		pkt.Hdop = &v
	}
	if flags.Has(FlagNumSat) {
		v := body[addr]
		addr++
		pkt.NumSat = &v
	}

	d.Stats.InvalidFields += invalid
	d.Stats.PacketsParsed++
	sink(pkt)
}
