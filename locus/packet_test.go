package locus_test

import (
	"testing"

	"go.viam.com/test"

	"github.com/edgebound/mtkgps/locus"
)

func TestDecodeFix(t *testing.T) {
	for _, tc := range []struct {
		quality byte
		want    locus.Fix
		ok      bool
	}{
		{0x04, locus.FixDGps, true},
		{0x02, locus.FixGps, true},
		{0x40, locus.FixDeadReckoning, true},
		{0x00, locus.FixNo, true},
		{0x06, locus.FixDGps, true}, // 0x04 bit wins priority over 0x02
		{0x08, 0, false},
	} {
		got, ok := locus.DecodeFix(tc.quality)
		test.That(t, ok, test.ShouldEqual, tc.ok)
		if tc.ok {
			test.That(t, got, test.ShouldEqual, tc.want)
		}
	}
}

func TestPacketSize(t *testing.T) {
	all := locus.FlagUTC | locus.FlagValid | locus.FlagLat | locus.FlagLon |
		locus.FlagHeight | locus.FlagSpeed | locus.FlagTrk | locus.FlagHdop | locus.FlagNumSat
	// 4+1+4+4+2+2+2+2+1 = 22 field bytes + 1 checksum byte = 23.
	test.That(t, locus.PacketSize(all), test.ShouldEqual, 23)
}

func TestPacketLocationRequiresBothFields(t *testing.T) {
	var p locus.Packet
	_, ok := p.Location()
	test.That(t, ok, test.ShouldEqual, false)

	lat, lon := float32(37.0), float32(-122.0)
	p.Lat, p.Lon = &lat, &lon
	pt, ok := p.Location()
	test.That(t, ok, test.ShouldEqual, true)
	test.That(t, pt, test.ShouldNotBeNil)
	test.That(t, pt.Lat(), test.ShouldEqual, float64(37.0))
}
