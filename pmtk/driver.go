// Package pmtk implements the PMTK command transactor (component C) and
// the session manager built on top of it (component D): writing and
// reading framed commands, decoding acknowledgements, the boot handshake,
// "disable unsolicited output" bootstrap, and the reboot family.
package pmtk

import (
	"fmt"

	"github.com/edgebound/mtkgps/config"
	"github.com/edgebound/mtkgps/frame"
	"github.com/edgebound/mtkgps/mtkerrors"
	"github.com/edgebound/mtkgps/mtklog"
	"github.com/edgebound/mtkgps/pipeline"
)

// Driver is the single stateful owner of the serial halves, the delay
// source, and the "has unsolicited NMEA output been disabled" session
// flag. It is single-owner and polls; see pipeline for the byte-level
// state machines it builds on.
type Driver struct {
	src    pipeline.ByteSource
	reader *pipeline.Reader
	writer pipeline.ByteWriter
	delay  pipeline.Delayer
	tun    config.Tunables
	log    mtklog.Logger

	disabledNmeaOutput bool
}

// NewDriver builds a Driver. initialDisabledNmeaOutput asserts the
// caller's knowledge of the device's current state (spec.md §3: "session
// state ... supplied at construction").
func NewDriver(src pipeline.ByteSource, writer pipeline.ByteWriter, delay pipeline.Delayer, tun config.Tunables, log mtklog.Logger, initialDisabledNmeaOutput bool) *Driver {
	return &Driver{
		src:                src,
		reader:             pipeline.NewReader(src, delay, tun.MaxReadCmdMicros),
		writer:             writer,
		delay:              delay,
		tun:                tun,
		log:                log,
		disabledNmeaOutput: initialDisabledNmeaOutput,
	}
}

// DisabledNmeaOutput reports the driver's current belief about whether
// unsolicited NMEA output has been disabled.
func (d *Driver) DisabledNmeaOutput() bool { return d.disabledNmeaOutput }

func pmtkName(num string) []byte { return []byte("PMTK" + num) }

// writeCmd serializes name/fields via the frame codec and writes them,
// translating the pipeline's write-timeout into the driver's own error
// kind and any other transport error into Transmit.
func (d *Driver) writeCmd(name []byte, fields [][]byte) error {
	encoded := frame.Encode(name, fields)
	err := pipeline.WriteAll(d.writer, d.delay, d.tun.MaxWriteCmdMicros, encoded)
	if err == nil {
		return nil
	}
	if err == pipeline.ErrWriteTimeout {
		return mtkerrors.New(mtkerrors.WriteTimeout, "writing "+string(name))
	}
	return mtkerrors.Wrap(mtkerrors.Transmit, err, "writing "+string(name))
}

func strFields(fields ...string) [][]byte {
	out := make([][]byte, len(fields))
	for i, f := range fields {
		out[i] = []byte(f)
	}
	return out
}

// readFrame reads one raw frame and decodes it, translating the
// pipeline's read-timeout and the frame codec's decode errors into the
// driver's own error kinds.
func (d *Driver) readFrame() (name []byte, fields [][]byte, err error) {
	raw, err := d.reader.ReadFrame()
	if err != nil {
		if err == pipeline.ErrReadTimeout {
			return nil, nil, mtkerrors.New(mtkerrors.ReadTimeout, "reading frame")
		}
		return nil, nil, mtkerrors.Wrap(mtkerrors.Transmit, err, "reading frame")
	}
	name, fields, decErr := frame.Decode(raw)
	if decErr != nil {
		return nil, nil, mtkerrors.Wrap(mtkerrors.Parse, decErr, "decoding frame")
	}
	return name, fields, nil
}

// readReply reads one frame and requires it to be named expectedName with
// at least minFields fields. A name mismatch is the common case (a
// request and its reply crossing unsolicited traffic) and is logged at
// debug; too few fields is unexpected and logged at error. Both map to
// Protocol, which the transactor retries.
func (d *Driver) readReply(expectedName string, minFields int) ([][]byte, error) {
	name, fields, err := d.readFrame()
	if err != nil {
		return nil, err
	}
	if string(name) != expectedName {
		d.log.Debugw("unexpected reply name", "expected", expectedName, "got", string(name))
		return nil, mtkerrors.New(mtkerrors.Protocol, "unexpected reply name "+string(name))
	}
	if len(fields) < minFields {
		d.log.Errorw("reply has too few fields", "name", expectedName, "got", len(fields), "want", minFields)
		return nil, mtkerrors.New(mtkerrors.Protocol, "reply has too few fields")
	}
	return fields, nil
}

// readAck reads a PMTK001 frame acknowledging expectedNum, mapping its
// status character to the corresponding error kind (or nil for '3', Ok).
func (d *Driver) readAck(expectedNum string) error {
	fields, err := d.readReply("PMTK001", 2)
	if err != nil {
		return err
	}
	if string(fields[0]) != expectedNum {
		return mtkerrors.New(mtkerrors.Protocol, "ack echoed wrong command number")
	}
	status := fields[1]
	if len(status) != 1 {
		return mtkerrors.New(mtkerrors.Protocol, "ack status is not one character")
	}
	switch status[0] {
	case '0':
		return mtkerrors.New(mtkerrors.GpsSaysInvalidCommand, "command "+expectedNum)
	case '1':
		return mtkerrors.New(mtkerrors.GpsSaysUnsupportedCommand, "command "+expectedNum)
	case '2':
		return mtkerrors.New(mtkerrors.GpsSaysActionFailed, "command "+expectedNum)
	case '3':
		return nil
	default:
		return mtkerrors.New(mtkerrors.Protocol, fmt.Sprintf("ack status %q not recognized", status))
	}
}

// withRetriesUnconditional retries op on ANY error, up to maxTries
// additional attempts (maxTries+1 total), sleeping
// DelayBeforeRetryMicros between attempts. This is the policy
// original_source/blong/ada_gps/src/lib.rs's generic with_retries uses
// for the reboot sequence and check_ready. Unlike the command transactor's
// filtered policy below, it does not consult mtkerrors.IsRetryable.
func withRetriesUnconditional[T any](d *Driver, maxTries int, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= maxTries; attempt++ {
		v, err := op()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt < maxTries {
			d.delay.DelayMicros(d.tun.DelayBeforeRetryMicros)
		}
	}
	return zero, lastErr
}

// withRetries retries op only on errors the spec.md §7 policy marks
// retryable (Protocol, ReadTimeout, WriteTimeout, Parse); device-reported
// logical failures and transport errors short-circuit immediately.
func withRetries[T any](d *Driver, maxTries int, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= maxTries; attempt++ {
		v, err := op()
		if err == nil {
			return v, nil
		}
		if !mtkerrors.IsRetryable(err) {
			return zero, err
		}
		lastErr = err
		if attempt < maxTries {
			d.delay.DelayMicros(d.tun.DelayBeforeRetryMicros)
		}
	}
	return zero, lastErr
}

// sendMtkWithoutDisablingNmea writes "PMTK"+num with fields and reads its
// ack, retrying up to maxTries times under the filtered retry policy.
func (d *Driver) sendMtkWithoutDisablingNmea(num string, fields [][]byte, maxTries int) error {
	_, err := withRetries(d, maxTries, func() (struct{}, error) {
		if err := d.writeCmd(pmtkName(num), fields); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, d.readAck(num)
	})
	return err
}

// ensureNmeaOutputDisabled sends PMTK314 with 19 zero fields (disabling
// all periodic NMEA output) unless the driver already believes output is
// disabled. Uses the elevated MaxCmdTriesWithoutNmeaDisabled retry budget
// because unsolicited sentences repeatedly collide with the attempt.
func (d *Driver) ensureNmeaOutputDisabled() error {
	if d.disabledNmeaOutput {
		return nil
	}
	fields := make([][]byte, 19)
	for i := range fields {
		fields[i] = []byte("0")
	}
	if err := d.sendMtkWithoutDisablingNmea("314", fields, d.tun.MaxCmdTriesWithoutNmeaDisabled); err != nil {
		return err
	}
	d.disabledNmeaOutput = true
	return nil
}

// sendMtk is the standard one-shot command with retry: disable NMEA
// output, then write+ack, retrying up to MaxCmdTries times (MaxCmdTries+1
// attempts in all).
func (d *Driver) sendMtk(num string, fields ...string) error {
	if err := d.ensureNmeaOutputDisabled(); err != nil {
		return err
	}
	return d.sendMtkWithoutDisablingNmea(num, strFields(fields...), d.tun.MaxCmdTries)
}

// sendMtkForReply disables NMEA output, then writes num/fields and reads
// a typed reply (rather than an ack), retrying the whole write+read pair
// up to MaxCmdTries times.
func (d *Driver) sendMtkForReply(num string, fields []string, replyNum string, minFields int) ([][]byte, error) {
	if err := d.ensureNmeaOutputDisabled(); err != nil {
		return nil, err
	}
	return withRetries(d, d.tun.MaxCmdTries, func() ([][]byte, error) {
		if err := d.writeCmd(pmtkName(num), strFields(fields...)); err != nil {
			return nil, err
		}
		return d.readReply(string(pmtkName(replyNum)), minFields)
	})
}
