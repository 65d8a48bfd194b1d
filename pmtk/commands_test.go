package pmtk_test

import (
	"testing"

	"go.viam.com/test"

	"github.com/edgebound/mtkgps/config"
	"github.com/edgebound/mtkgps/frame"
	"github.com/edgebound/mtkgps/internal/mocktransport"
	"github.com/edgebound/mtkgps/locus"
	"github.com/edgebound/mtkgps/mtklog"
	"github.com/edgebound/mtkgps/pmtk"
)

func newDriver(t *testing.T, reply string) (*pmtk.Driver, *mocktransport.Sink) {
	src := mocktransport.NewSource([]byte(reply))
	sink := mocktransport.NewSink()
	d := pmtk.NewDriver(src, sink, &mocktransport.NoopDelay{}, config.Default(), mtklog.NewTestLogger(t), true)
	return d, sink
}

// TestStopLogging covers spec.md §8 scenario 1 exactly.
func TestStopLogging(t *testing.T) {
	d, sink := newDriver(t, "$PMTK001,185,3*3C\r\n")

	err := d.StopLogging()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(sink.Written), test.ShouldEqual, "$PMTK185,1*23\r\n")
}

func TestStartLogging(t *testing.T) {
	d, sink := newDriver(t, "$PMTK001,185,3*3C\r\n")

	// PMTK185,0's ack echoes the same command number as PMTK185,1's;
	// readAck only checks the command number, not the sent field, so the
	// same canned ack frame works for both.
	err := d.StartLogging()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(sink.Written), test.ShouldEqual, "$PMTK185,0*22\r\n")
}

func TestEraseLogs(t *testing.T) {
	d, sink := newDriver(t, "$PMTK001,184,3*3D\r\n")

	err := d.EraseLogs()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(sink.Written), test.ShouldEqual, "$PMTK184,1*22\r\n")
}

func TestConfigureLoggerInterval(t *testing.T) {
	d, sink := newDriver(t, "$PMTK001,187,3*3E\r\n")

	err := d.ConfigureLoggerInterval(5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(sink.Written), test.ShouldEqual, "$PMTK187,1,5*38\r\n")
}

// TestLoggerStatus covers spec.md §8 scenario 2 exactly.
func TestLoggerStatus(t *testing.T) {
	d, sink := newDriver(t, "$PMTKLOG,456,0,11,31,2,0,0,0,3769,46*48\r\n")

	status, err := d.LoggerStatus()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(sink.Written), test.ShouldEqual, "$PMTK183*38\r\n")
	test.That(t, status.IntervalSeconds, test.ShouldEqual, uint32(2))
	test.That(t, status.IsOn, test.ShouldBeTrue)
	test.That(t, status.RecordCount, test.ShouldEqual, uint32(3769))
	test.That(t, status.PercentFull.Equal(46), test.ShouldBeTrue)
}

// TestLoggerStatusIsOnFalse exercises the inverted polarity's other branch:
// field 7 == "1" means logging is NOT running.
func TestLoggerStatusIsOnFalse(t *testing.T) {
	d, _ := newDriver(t, "$PMTKLOG,456,0,11,31,2,0,0,1,3769,46*49\r\n")

	status, err := d.LoggerStatus()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status.IsOn, test.ShouldBeFalse)
}

// TestReadLogs decodes a single-point PMTKLOX stream end to end: a start
// frame announcing one data frame, a data frame with one 16-byte point
// whose checksum is valid, and an end frame.
func TestReadLogs(t *testing.T) {
	point := [16]byte{
		0x00, 0x00, 0x00, 0x00, // timestamp
		0x00,       // fix flag
		0, 0, 0, 0, // lat
		0, 0, 0, 0, // lon
		0, 0, // height
		0, // checksum filler, fixed below
	}
	var cs byte
	for _, b := range point[:15] {
		cs ^= b
	}
	point[15] = cs
	chunks := make([]string, 4)
	for g := 0; g < 16; g += 4 {
		chunks[g/4] = hexEncode(point[g : g+4])
	}

	start := frameLine("PMTKLOX", "0", "1")
	data := frameLine("PMTKLOX", append([]string{"1", "0"}, chunks...)...)
	end := frameLine("PMTKLOX", "2")

	d, _ := newDriver(t, start+data+end)

	var got []locus.LoggedPoint
	stats, err := d.ReadLogs(func(p locus.LoggedPoint) { got = append(got, p) }, locus.StreamOptions{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(got), test.ShouldEqual, 1)
	test.That(t, got[0].ChecksumOK, test.ShouldBeTrue)
	test.That(t, stats.PacketsParsed, test.ShouldEqual, 1)
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0xF]
	}
	return string(out)
}

// frameLine is a small convenience over frame.Encode for building
// string-field test frames.
func frameLine(name string, fields ...string) string {
	byteFields := make([][]byte, len(fields))
	for i, f := range fields {
		byteFields[i] = []byte(f)
	}
	return string(frame.Encode([]byte(name), byteFields))
}
