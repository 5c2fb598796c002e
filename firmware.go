package idm

import (
	"fmt"

	"github.com/blang/semver"
)

// FirmwareVersion folds the LED-info query's mcu_major/mcu_minor
// bytes (§3 NotifyEvent.LedInfo, §4.5) into a semver.Version so CLI
// diagnostics can report and compare firmware the same way kr's
// version.go compares the daemon's semver against CURRENT_VERSION.
//
// The device protocol itself has no patch component; it is always 0.
func FirmwareVersion(mcuMajor, mcuMinor byte) semver.Version {
	return semver.Version{
		Major: uint64(mcuMajor),
		Minor: uint64(mcuMinor),
		Patch: 0,
	}
}

func FirmwareVersionString(mcuMajor, mcuMinor byte) string {
	return fmt.Sprintf("%d.%d.0", mcuMajor, mcuMinor)
}
