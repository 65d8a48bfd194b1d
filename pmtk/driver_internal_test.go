package pmtk

import (
	"errors"
	"testing"

	"go.viam.com/test"

	"github.com/edgebound/mtkgps/config"
	"github.com/edgebound/mtkgps/internal/mocktransport"
	"github.com/edgebound/mtkgps/mtkerrors"
	"github.com/edgebound/mtkgps/mtklog"
)

func newTestDriver(t *testing.T, src *mocktransport.Source, sink *mocktransport.Sink, disabled bool) *Driver {
	return NewDriver(src, sink, &mocktransport.NoopDelay{}, config.Default(), mtklog.NewTestLogger(t), disabled)
}

// TestReadAckStatusMapping covers spec.md §8 scenario 5: each ack status
// character maps to its documented error kind (or nil for '3'). The
// mismatched echoed command number case is TestReadAckWrongEchoedNumber.
func TestReadAckStatusMapping(t *testing.T) {
	for _, tc := range []struct {
		name     string
		frame    string
		expect   string
		wantKind mtkerrors.Kind
		wantOK   bool
	}{
		{"invalid command", "$PMTK001,600,0*35\r\n", "600", mtkerrors.GpsSaysInvalidCommand, false},
		{"unsupported command", "$PMTK001,600,1*34\r\n", "600", mtkerrors.GpsSaysUnsupportedCommand, false},
		{"action failed", "$PMTK001,600,2*37\r\n", "600", mtkerrors.GpsSaysActionFailed, false},
		{"ok", "$PMTK001,604,3*32\r\n", "604", 0, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			src := mocktransport.NewSource([]byte(tc.frame))
			d := newTestDriver(t, src, mocktransport.NewSink(), true)

			err := d.readAck(tc.expect)
			if tc.wantOK {
				test.That(t, err, test.ShouldBeNil)
				return
			}
			kind, ok := mtkerrors.KindOf(err)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, kind, test.ShouldEqual, tc.wantKind)
		})
	}
}

// TestReadAckWrongEchoedNumber reads a well-formed ack for 604 while
// expecting 605: a correctly-formed ack for a different command number is
// Protocol.
func TestReadAckWrongEchoedNumber(t *testing.T) {
	src := mocktransport.NewSource([]byte("$PMTK001,604,3*32\r\n"))
	d := newTestDriver(t, src, mocktransport.NewSink(), true)

	err := d.readAck("605")
	kind, ok := mtkerrors.KindOf(err)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, kind, test.ShouldEqual, mtkerrors.Protocol)
}

// TestSendMtkRetriesOnGarbageReply covers spec.md §8 scenario 4: a first
// reply that fails to parse as a frame at all must be retried exactly once
// before the retry loop's second attempt succeeds against the real ack.
func TestSendMtkRetriesOnGarbageReply(t *testing.T) {
	src := mocktransport.NewSource([]byte("foo\r\n$PMTK001,187,3*3E\r\n"))
	sink := mocktransport.NewSink()
	d := newTestDriver(t, src, sink, true)

	err := d.sendMtk("187", "10", "5")
	test.That(t, err, test.ShouldBeNil)

	// Two write attempts: the frame was written twice (no retry on the
	// write, but the whole write+ack pair retries).
	written := string(sink.Written)
	test.That(t, written, test.ShouldEqual, "$PMTK187,10,5*08\r\n$PMTK187,10,5*08\r\n")
}

// TestRetryBound is the property from spec.md §8: a mock failing N-1 times
// then succeeding must return success from withRetries when N <=
// MAX_CMD_TRIES+1 (one first attempt plus MAX_CMD_TRIES retries), and fail
// after exactly MAX_CMD_TRIES+1 attempts otherwise.
func TestRetryBound(t *testing.T) {
	const maxTries = 5

	for n := 1; n <= maxTries+2; n++ {
		n := n
		t.Run("", func(t *testing.T) {
			attempts := 0
			op := func() (struct{}, error) {
				attempts++
				if attempts >= n {
					return struct{}{}, nil
				}
				return struct{}{}, mtkerrors.New(mtkerrors.Protocol, "not yet")
			}

			d := newTestDriver(t, mocktransport.NewSource(nil), mocktransport.NewSink(), true)
			_, err := withRetries(d, maxTries, op)

			if n <= maxTries+1 {
				test.That(t, err, test.ShouldBeNil)
				test.That(t, attempts, test.ShouldEqual, n)
			} else {
				test.That(t, err, test.ShouldNotBeNil)
				test.That(t, attempts, test.ShouldEqual, maxTries+1)
			}
		})
	}
}

// TestRetryDoesNotRetryLogicalFailures covers the retry contract in spec.md
// §4.C/§7: device-reported logical failures short-circuit the retry loop
// instead of being retried.
func TestRetryDoesNotRetryLogicalFailures(t *testing.T) {
	attempts := 0
	op := func() (struct{}, error) {
		attempts++
		return struct{}{}, mtkerrors.New(mtkerrors.GpsSaysActionFailed, "nope")
	}

	d := newTestDriver(t, mocktransport.NewSource(nil), mocktransport.NewSink(), true)
	_, err := withRetries(d, 5, op)

	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, attempts, test.ShouldEqual, 1)
	kind, ok := mtkerrors.KindOf(err)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, kind, test.ShouldEqual, mtkerrors.GpsSaysActionFailed)
}

// TestRetryDoesNotRetryRawTransportErrors confirms a bare (non-*Error)
// transport error surfaces immediately rather than retrying, matching
// IsRetryable's "not an *Error" case.
func TestRetryDoesNotRetryRawTransportErrors(t *testing.T) {
	attempts := 0
	sentinel := errors.New("cable unplugged")
	op := func() (struct{}, error) {
		attempts++
		return struct{}{}, sentinel
	}

	d := newTestDriver(t, mocktransport.NewSource(nil), mocktransport.NewSink(), true)
	_, err := withRetries(d, 5, op)

	test.That(t, err, test.ShouldEqual, sentinel)
	test.That(t, attempts, test.ShouldEqual, 1)
}
