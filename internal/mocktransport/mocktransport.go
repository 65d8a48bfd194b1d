// Package mocktransport provides in-memory ByteSource, ByteWriter, and
// Delayer implementations for tests, grounded in the MockSerial/MockTrans/
// NoopDelay test doubles of original_source/blong/ada_gps/src/lib.rs's
// #[cfg(test)] module.
package mocktransport

import "github.com/edgebound/mtkgps/pipeline"

// Source is an in-memory pipeline.ByteSource backed by a byte slice that
// the test preloads. Grant hands back everything not yet committed.
type Source struct {
	buf       []byte
	pos       int
	granted   int
	blockOnce bool
}

// NewSource returns a Source that will yield data, in order, to Grant.
func NewSource(data []byte) *Source {
	return &Source{buf: data}
}

// Feed appends more bytes as if the device produced them, e.g. mid-test
// to interleave unsolicited traffic with expected replies.
func (s *Source) Feed(data []byte) { s.buf = append(s.buf, data...) }

func (s *Source) Grant() ([]byte, error) {
	s.granted = len(s.buf) - s.pos
	return s.buf[s.pos:], nil
}

func (s *Source) Commit(n int) { s.pos += n }

var _ pipeline.ByteSource = (*Source)(nil)

// Sink is an in-memory pipeline.ByteWriter capturing every written byte.
type Sink struct {
	Written []byte
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

func (s *Sink) WriteByte(b byte) error {
	s.Written = append(s.Written, b)
	return nil
}

var _ pipeline.ByteWriter = (*Sink)(nil)

// NoopDelay is a Delayer that does not actually sleep, matching the
// source's NoopDelay test double so unit tests run instantly.
type NoopDelay struct {
	TotalMicros uint64
}

func (d *NoopDelay) DelayMicros(us uint32) { d.TotalMicros += uint64(us) }

var _ pipeline.Delayer = (*NoopDelay)(nil)
