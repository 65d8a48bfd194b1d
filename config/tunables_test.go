package config_test

import (
	"testing"

	"go.viam.com/test"
	"go.viam.com/utils"

	"github.com/edgebound/mtkgps/config"
)

func TestDefaultValidates(t *testing.T) {
	test.That(t, config.Default().Validate("path"), test.ShouldBeNil)
}

func TestValidateRejectsZeroMaxCmdTries(t *testing.T) {
	tun := config.Default()
	tun.MaxCmdTries = 0
	err := tun.Validate("path")
	test.That(t, err, test.ShouldBeError, utils.NewConfigValidationFieldRequiredError("path", "max_cmd_tries"))
}

func TestValidateRejectsZeroRxBufSize(t *testing.T) {
	tun := config.Default()
	tun.RxBufSize = 0
	err := tun.Validate("path")
	test.That(t, err, test.ShouldBeError, utils.NewConfigValidationFieldRequiredError("path", "rx_buf_size"))
}
