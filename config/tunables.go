// Package config holds the driver's tunable constants (spec.md §6) as a
// struct embedders can override, validated in the style of the teacher's
// component config types.
package config

import "go.viam.com/utils"

// Tunables holds every tunable constant named in spec.md §6. Zero-value
// Tunables is not valid; use Default() and override individual fields.
type Tunables struct {
	RxBufSize                       int
	MaxCmdTries                     int
	MaxCmdTriesWithoutNmeaDisabled  int
	MaxReadCmdMicros                uint32
	MaxWriteCmdMicros               uint32
	DelayBeforeRetryMicros          uint32
	MaxReadErrorsOnBoot             int
	MaxReadSpuriousBeforeBoot       int
	WaitBeforeCheckingBootReadyUsec uint32
	MaxReadSpuriousAfterBootReady   int
	// MaxPointsPerLocusDataPacket is validated but not read by the
	// decoder: locus.DecodeDataFrame applies its own fixed limit of 12.
	MaxPointsPerLocusDataPacket     int
}

// Default returns the constants from spec.md §6 / original_source's
// ada_gps/src/lib.rs constants block.
func Default() Tunables {
	return Tunables{
		RxBufSize:                       1024,
		MaxCmdTries:                     5,
		MaxCmdTriesWithoutNmeaDisabled:  20,
		MaxReadCmdMicros:                500_000,
		MaxWriteCmdMicros:               50_000,
		DelayBeforeRetryMicros:          80_000,
		MaxReadErrorsOnBoot:             50,
		MaxReadSpuriousBeforeBoot:       1_000,
		WaitBeforeCheckingBootReadyUsec: 50_000,
		MaxReadSpuriousAfterBootReady:   20,
		MaxPointsPerLocusDataPacket:     12,
	}
}

// Validate checks that every tunable except the two delays
// (DelayBeforeRetryMicros, WaitBeforeCheckingBootReadyUsec) is positive,
// reporting the first violation the way the teacher's component
// Validate(path) methods do. The delays may be zero.
func (t Tunables) Validate(path string) error {
	if t.RxBufSize <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "rx_buf_size")
	}
	if t.MaxCmdTries <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_cmd_tries")
	}
	if t.MaxCmdTriesWithoutNmeaDisabled <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_cmd_tries_without_nmea_disabled")
	}
	if t.MaxReadCmdMicros == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_read_cmd_us")
	}
	if t.MaxWriteCmdMicros == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_write_cmd_us")
	}
	if t.MaxReadErrorsOnBoot <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_read_errors_on_boot")
	}
	if t.MaxReadSpuriousBeforeBoot <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_read_spurious_before_boot")
	}
	if t.MaxReadSpuriousAfterBootReady <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_read_spurious_after_boot_ready")
	}
	if t.MaxPointsPerLocusDataPacket <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "max_points_per_locus_data_packet")
	}
	return nil
}
