package idm

import "time"

// Short command ids/namespaces (§4.4 "Short control frame",
// §8 scenarios 2-4). cmd_ns 0x80 is the device-control namespace;
// 0x02 is the fullscreen-colour namespace used by scenario 4.
//
// cmdSyncTime and cmdLedInfoReq are deliberately both 0x01 on
// nsControl: the two frames only differ by payload (sync-time carries
// the 7-byte clock payload, led-info query carries none), and nothing
// in spec.md pins a distinct cmd_id for the led-info query, so this
// collision is intentional rather than a typo.
const (
	cmdSyncTime    = 0x01
	cmdColour      = 0x02
	cmdBrightness  = 0x04
	cmdPower       = 0x05
	cmdJointMode   = 0x0C
	cmdScreenLight = 0x0F
	cmdLedInfoReq  = 0x01

	nsControl = 0x80
	nsColour  = 0x02
)

// EncodeBrightness implements scenario 3 (§8): brightness is a
// 0-100 percentage; 101 and above are rejected before encoding.
func EncodeBrightness(percent int) ([]byte, error) {
	if percent < 0 || percent > 100 {
		return nil, &CodecError{Kind: "InvalidField", Family: FamilyShort, Field: "brightness out of range 0..100"}
	}
	return EncodeShortFrame(cmdBrightness, nsControl, []byte{byte(percent)})
}

// EncodePower implements `idm control power <off|on>` (§6 "CLI
// surface").
func EncodePower(on bool) ([]byte, error) {
	var v byte
	if on {
		v = 1
	}
	return EncodeShortFrame(cmdPower, nsControl, []byte{v})
}

// EncodeSyncTime implements scenario 2 (§8): payload is
// [year-2000, month, day, day_of_week, hour, minute, second].
// day_of_week follows ISO-8601 numbering, Monday=1.
func EncodeSyncTime(t time.Time) ([]byte, error) {
	if t.Year() < 2000 || t.Year() > 2255 {
		return nil, &CodecError{Kind: "InvalidField", Family: FamilyShort, Field: "year out of representable range"}
	}
	dow := int(t.Weekday())
	if dow == 0 {
		dow = 7 // time.Sunday == 0; the wire format is Monday=1..Sunday=7
	}
	payload := []byte{
		byte(t.Year() - 2000),
		byte(t.Month()),
		byte(t.Day()),
		byte(dow),
		byte(t.Hour()),
		byte(t.Minute()),
		byte(t.Second()),
	}
	return EncodeShortFrame(cmdSyncTime, nsControl, payload)
}

// EncodeColour implements scenario 4 (§8): a fullscreen colour command
// with the §4.7 colour clamp applied.
func EncodeColour(r, g, b byte) ([]byte, error) {
	r, g, b = clampColour(r, g, b)
	return EncodeShortFrame(cmdColour, nsColour, []byte{r, g, b})
}

// EncodeJointMode emits the `05 00 0C 80 {mode}` frame for a resolved
// DeviceRoutingProfile's joint mode (§4.3 "Derived maps").
func EncodeJointMode(mode int) ([]byte, error) {
	return EncodeShortFrame(cmdJointMode, nsControl, []byte{byte(mode)})
}

// EncodeScreenLightSet sets the screen's ambient-light timeout value;
// EncodeScreenLightQuery requests the current one (§4.5 "Screen-light
// read response").
func EncodeScreenLightSet(seconds byte) ([]byte, error) {
	return EncodeShortFrame(cmdScreenLight, nsControl, []byte{0x01, seconds})
}

func EncodeScreenLightQuery() ([]byte, error) {
	return EncodeShortFrame(cmdScreenLight, nsControl, []byte{0x00})
}

// EncodeLedInfoQuery requests the LED-info response decoded by
// decodeLedInfo (§4.5 "LedInfo").
func EncodeLedInfoQuery() ([]byte, error) {
	return EncodeShortFrame(cmdLedInfoReq, nsControl, nil)
}

// DIY mode-switch and schedule setup/master-switch handshake frames
// (§4.6 "DIY specifics", "Timer/Schedule specifics"). These precede
// their family's chunked transfer rather than being chunk headers
// themselves, so they're plain short frames like any control command.
const (
	cmdDiyModeSwitch        = 0x04
	nsDiyModeSwitch         = 0x01
	cmdScheduleSetup        = 0x05
	cmdScheduleMasterSwitch = 0x07
)

// EncodeDIYModeSwitch puts the panel into DIY raw-frame mode before a
// DIY transfer begins: 05 00 04 01 01.
func EncodeDIYModeSwitch() ([]byte, error) {
	return EncodeShortFrame(cmdDiyModeSwitch, nsDiyModeSwitch, []byte{0x01})
}

// EncodeScheduleSetup arms a schedule slot before its resource upload,
// acknowledged by a ScheduleSetup NotifyEvent.
func EncodeScheduleSetup(slot byte) ([]byte, error) {
	return EncodeShortFrame(cmdScheduleSetup, nsControl, []byte{slot})
}

// EncodeScheduleMasterSwitch toggles the schedule subsystem, acknowledged
// by a ScheduleMasterSwitch NotifyEvent.
func EncodeScheduleMasterSwitch(on bool) ([]byte, error) {
	var v byte
	if on {
		v = 1
	}
	return EncodeShortFrame(cmdScheduleMasterSwitch, nsControl, []byte{v})
}

// Clock/countdown/chronograph/scoreboard diagnostics handlers
// (SPEC_FULL.md supplemented features). Each is a fixed short command
// whose payload layout mirrors sync_time's field ordering.

const (
	cmdClock       = 0x06
	cmdCountdown   = 0x07
	cmdChronograph = 0x08
	cmdScoreboard  = 0x09
)

// ClockStyle selects one of the device's built-in clock faces.
type ClockStyle byte

// EncodeClock switches the panel into a clock face.
func EncodeClock(style ClockStyle, hour24 bool) ([]byte, error) {
	var mode byte
	if hour24 {
		mode = 1
	}
	return EncodeShortFrame(cmdClock, nsControl, []byte{byte(style), mode})
}

// EncodeCountdown starts a countdown from the given duration.
func EncodeCountdown(d time.Duration, running bool) ([]byte, error) {
	total := int(d / time.Second)
	if total < 0 || total > 0xFFFF {
		return nil, &CodecError{Kind: "InvalidField", Family: FamilyShort, Field: "countdown duration out of range"}
	}
	var state byte
	if running {
		state = 1
	}
	return EncodeShortFrame(cmdCountdown, nsControl, []byte{byte(total), byte(total >> 8), state})
}

// EncodeChronograph starts, pauses or resets the panel's stopwatch.
type ChronographState byte

const (
	ChronographStop  ChronographState = 0
	ChronographStart ChronographState = 1
	ChronographReset ChronographState = 2
)

func EncodeChronograph(state ChronographState) ([]byte, error) {
	return EncodeShortFrame(cmdChronograph, nsControl, []byte{byte(state)})
}

// EncodeScoreboard sets the two-team scoreboard display.
func EncodeScoreboard(left, right byte) ([]byte, error) {
	return EncodeShortFrame(cmdScoreboard, nsControl, []byte{left, right})
}
