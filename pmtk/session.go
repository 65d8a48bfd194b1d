package pmtk

import "github.com/edgebound/mtkgps/mtkerrors"

// RebootKind selects which of the four reboot commands to send.
type RebootKind int

const (
	// HotRestart keeps ephemeral and backup data (PMTK101).
	HotRestart RebootKind = iota
	// WarmRestart discards ephemeral data, keeps backup data (PMTK102).
	WarmRestart
	// ColdRestart discards ephemeral, system, and backup data (PMTK103).
	ColdRestart
	// FactoryReset discards everything including user configuration
	// (PMTK104).
	FactoryReset
)

func (k RebootKind) pmtkNum() string {
	switch k {
	case HotRestart:
		return "101"
	case WarmRestart:
		return "102"
	case ColdRestart:
		return "103"
	case FactoryReset:
		return "104"
	default:
		return "101"
	}
}

// Reboot runs the full reboot procedure for kind: mark NMEA output as
// re-enabled (the device will resume emitting it), send the reboot
// command (no ack expected), wait for the boot handshake, then
// re-disable NMEA output. The whole sequence is wrapped in an outer
// unconditional retry of MaxCmdTries, matching
// original_source/blong/ada_gps/src/lib.rs's send_reboot_cmd.
func (d *Driver) Reboot(kind RebootKind) error {
	_, err := withRetriesUnconditional(d, d.tun.MaxCmdTries, func() (struct{}, error) {
		d.disabledNmeaOutput = false
		if err := d.writeCmd(pmtkName(kind.pmtkNum()), nil); err != nil {
			return struct{}{}, err
		}
		if err := d.waitForBoot(); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, d.ensureNmeaOutputDisabled()
	})
	return err
}

// waitForBoot reads frames until both documented boot indicators
// (PMTK010,001 and PMTK011,MTKGPS) have been observed, in any order,
// ignoring but counting any other frame. Exceeding either the read-error
// or spurious-frame budget fails BootFailed. On success it sleeps
// WaitBeforeCheckingBootReadyUsec, flushes the inbound ring, and runs
// check_ready.
func (d *Driver) waitForBoot() error {
	var sawBootSys, sawMtkGps bool
	var readErrors, spurious int

	for !(sawBootSys && sawMtkGps) {
		name, fields, err := d.readFrame()
		if err != nil {
			readErrors++
			if readErrors > d.tun.MaxReadErrorsOnBoot {
				return mtkerrors.New(mtkerrors.BootFailed, "too many read errors waiting for boot")
			}
			continue
		}

		switch {
		case string(name) == "PMTK010" && len(fields) == 1 && string(fields[0]) == "001":
			sawBootSys = true
		case string(name) == "PMTK011" && len(fields) == 1 && string(fields[0]) == "MTKGPS":
			sawMtkGps = true
		default:
			spurious++
			if spurious > d.tun.MaxReadSpuriousBeforeBoot {
				return mtkerrors.New(mtkerrors.BootFailed, "too many spurious frames waiting for boot")
			}
		}
	}

	d.delay.DelayMicros(d.tun.WaitBeforeCheckingBootReadyUsec)
	d.flushRxQueue()
	return d.checkReady(d.tun.MaxReadSpuriousAfterBootReady)
}

// flushRxQueue discards whatever is currently available in the inbound
// ring buffer with a single grant-then-commit, not a drain loop,
// matching original_source's flush_rx_queue.
func (d *Driver) flushRxQueue() {
	granted, err := d.src.Grant()
	if err != nil {
		return
	}
	d.src.Commit(len(granted))
}

// checkReady sends PMTK605 and expects PMTK705 with at least two fields
// (release, build), retrying unconditionally up to maxTries times to
// absorb post-boot noise.
func (d *Driver) checkReady(maxTries int) error {
	_, err := withRetriesUnconditional(d, maxTries, func() ([][]byte, error) {
		if err := d.writeCmd(pmtkName("605"), nil); err != nil {
			return nil, err
		}
		return d.readReply(string(pmtkName("705")), 2)
	})
	return err
}
