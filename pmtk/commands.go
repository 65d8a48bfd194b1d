package pmtk

import (
	"strconv"

	"github.com/edgebound/mtkgps/locus"
	"github.com/edgebound/mtkgps/mtkerrors"
	"github.com/edgebound/mtkgps/units"
)

// LoggerStatus mirrors spec.md §3's LoggerStatus, decoded from a PMTKLOG
// reply. IsOn's polarity is inverted relative to naming intuition: the
// device's field is '0' for "logging is on", preserved exactly per
// spec.md §9's open-question resolution.
type LoggerStatus struct {
	IntervalSeconds uint32
	IsOn            bool
	RecordCount     uint32
	PercentFull     units.IntegerPercent
}

// ConfigureLoggerInterval sends PMTK187,1,<secs>.
func (d *Driver) ConfigureLoggerInterval(secs uint32) error {
	return d.sendMtk("187", "1", strconv.FormatUint(uint64(secs), 10))
}

// EraseLogs sends PMTK184,1.
func (d *Driver) EraseLogs() error {
	return d.sendMtk("184", "1")
}

// StartLogging sends PMTK185,0.
func (d *Driver) StartLogging() error {
	return d.sendMtk("185", "0")
}

// StopLogging sends PMTK185,1.
func (d *Driver) StopLogging() error {
	return d.sendMtk("185", "1")
}

// LoggerStatus sends PMTK183 and decodes the PMTKLOG reply's fields 4, 7,
// 8, 9 into a LoggerStatus.
func (d *Driver) LoggerStatus() (LoggerStatus, error) {
	fields, err := d.sendMtkForReply("183", nil, "LOG", 10)
	if err != nil {
		return LoggerStatus{}, err
	}

	interval, err := strconv.ParseUint(string(fields[4]), 10, 32)
	if err != nil {
		return LoggerStatus{}, mtkerrors.Wrap(mtkerrors.Protocol, err, "parsing logger status interval")
	}
	if len(fields[7]) != 1 {
		return LoggerStatus{}, mtkerrors.New(mtkerrors.Protocol, "logger status is_on field malformed")
	}
	isOn := fields[7][0] == '0'
	recordCount, err := strconv.ParseUint(string(fields[8]), 10, 32)
	if err != nil {
		return LoggerStatus{}, mtkerrors.Wrap(mtkerrors.Protocol, err, "parsing logger status record count")
	}
	percentRaw, err := strconv.ParseUint(string(fields[9]), 10, 8)
	if err != nil || percentRaw > 100 {
		return LoggerStatus{}, mtkerrors.New(mtkerrors.Protocol, "logger status percent_full out of range")
	}

	return LoggerStatus{
		IntervalSeconds: uint32(interval),
		IsOn:            isOn,
		RecordCount:     uint32(recordCount),
		PercentFull:     units.NewIntegerPercent(uint8(percentRaw)),
	}, nil
}

// ReadLogs disables NMEA output, sends PMTK622,0, and decodes the
// resulting sequence of PMTKLOX frames (start/data/end) into LoggedPoints
// delivered to onPoint as they're decoded. Unlike every other command,
// this is NOT retried: a failure partway through has already consumed
// part of the device's log stream.
func (d *Driver) ReadLogs(onPoint func(locus.LoggedPoint), opts locus.StreamOptions) (locus.Stats, error) {
	var stats locus.Stats

	if err := d.ensureNmeaOutputDisabled(); err != nil {
		return stats, err
	}
	if err := d.writeCmd(pmtkName("622"), [][]byte{[]byte("0")}); err != nil {
		return stats, err
	}

	n := 0
	for {
		name, fields, err := d.readFrame()
		if err != nil {
			return stats, err
		}
		if string(name) != "PMTKLOX" {
			continue
		}

		kind, err := locus.ParseFrameKind(fields)
		if err != nil {
			return stats, mtkerrors.Wrap(mtkerrors.ParseLoggedPoint, err, "decoding PMTKLOX frame kind")
		}

		switch kind {
		case locus.FrameStart:
			if _, err := locus.ParseStartFrame(fields); err != nil {
				return stats, mtkerrors.Wrap(mtkerrors.ParseLoggedPoint, err, "decoding PMTKLOX start frame")
			}
			n = 0
		case locus.FrameData:
			points, err := locus.DecodeDataFrame(fields, n, opts, &stats)
			if err != nil {
				return stats, mtkerrors.Wrap(mtkerrors.ParseLoggedPoint, err, "decoding PMTKLOX data frame")
			}
			for _, p := range points {
				onPoint(p)
			}
			n++
		case locus.FrameEnd:
			return stats, nil
		}
	}
}
