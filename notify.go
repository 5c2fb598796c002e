package idm

// NotifyEvent is the tagged union the notification decoder produces
// from a raw notify/indicate payload (§3 "NotifyEvent", §4.5).
type NotifyEvent struct {
	Kind string // "NextPackage" | "Finished" | "TransferError" | "ScheduleSetup" | "ScheduleMasterSwitch" | "LedInfo" | "ScreenLightTimeout" | "OtaSetupAck" | "Unknown"

	Family Family

	// TransferError.
	ErrorCode byte

	// ScheduleSetup / ScheduleMasterSwitch.
	ScheduleSlot int
	MasterOn     bool

	// LedInfo.
	LedInfo LedInfoResponse

	// ScreenLightTimeout.
	ScreenLightSeconds byte

	// OtaSetupAck.
	OtaAccepted bool

	Raw []byte
}

// DecodeNotification implements §4.5's dispatch-by-triple table. A
// payload that matches no known shape decodes to Kind "Unknown" rather
// than an error: unrecognised notifications are expected from devices
// with firmware newer than this library.
func DecodeNotification(payload []byte) NotifyEvent {
	ev := NotifyEvent{Kind: "Unknown", Raw: payload}

	if len(payload) >= 9 && payload[2] == 0x01 && payload[3] == 0x80 {
		return decodeLedInfo(payload)
	}

	if sched, ok := decodeScheduleNotification(payload); ok {
		return sched
	}

	if len(payload) == 5 && payload[0] == 0x05 && payload[1] == 0x00 && payload[2] == 0x0F && payload[3] == 0x80 {
		ev.Kind = "ScreenLightTimeout"
		ev.ScreenLightSeconds = payload[4]
		return ev
	}

	if ota, ok := decodeOtaAck(payload); ok {
		return ota
	}

	if len(payload) < 5 {
		return ev
	}

	switch {
	case payload[1] == 0x00 && payload[2] == 0x03 && payload[3] == 0x00:
		return decodeTextLikeStatus(FamilyText, payload)
	case payload[1] == 0x00 && payload[2] == 0x01 && payload[3] == 0x00:
		return decodeGifStatus(payload)
	case payload[1] == 0x00 && payload[2] == 0x02 && payload[3] == 0x00:
		return decodeTextLikeStatus(FamilyImage, payload)
	case payload[1] == 0x00 && payload[2] == 0x00 && payload[3] == 0x00:
		return decodeDiyStatus(payload)
	case payload[1] == 0x00 && payload[2] == 0x00 && payload[3] == 0x80:
		return decodeTimerStatus(payload)
	case payload[1] == 0x00 && payload[2] == 0x01 && payload[3] == 0xC0:
		return decodeOtaTransferStatus(payload)
	}
	return ev
}

// decodeTextLikeStatus covers text and image, whose status byte at [4]
// means 01=next, 02=error, 03=finish (§4.5 dispatch table).
func decodeTextLikeStatus(family Family, payload []byte) NotifyEvent {
	ev := NotifyEvent{Family: family, Raw: payload}
	switch payload[4] {
	case 0x01:
		ev.Kind = "NextPackage"
	case 0x03:
		ev.Kind = "Finished"
	case 0x02:
		ev.Kind = "TransferError"
		ev.ErrorCode = payload[4]
	default:
		ev.Kind = "Unknown"
	}
	return ev
}

// decodeGifStatus: GIF adds an explicit 00=invalid status alongside
// 01=next, 02=error, 03=finish.
func decodeGifStatus(payload []byte) NotifyEvent {
	ev := NotifyEvent{Family: FamilyGif, Raw: payload}
	switch payload[4] {
	case 0x01:
		ev.Kind = "NextPackage"
	case 0x03:
		ev.Kind = "Finished"
	case 0x00, 0x02:
		ev.Kind = "TransferError"
		ev.ErrorCode = payload[4]
	default:
		ev.Kind = "Unknown"
	}
	return ev
}

// decodeDiyStatus implements DIY's inverted status numbering: 0x02 is
// the "next package" signal, while 0x00/0x01 both mean finished — the
// opposite of every other media family (§4.5 "DIY inversion").
func decodeDiyStatus(payload []byte) NotifyEvent {
	ev := NotifyEvent{Family: FamilyDIY, Raw: payload}
	switch payload[4] {
	case 0x02:
		ev.Kind = "NextPackage"
	case 0x00, 0x01:
		ev.Kind = "Finished"
	default:
		ev.Kind = "Unknown"
	}
	return ev
}

// decodeTimerStatus implements the Timer overload: 0x01 means either
// "next package" or "finished" depending on where the coordinator is
// in the transfer, so it is surfaced uniformly as NextPackage — the
// transfer coordinator already treats NextPackage and Finished as
// equivalent "proceed" signals at the final chunk (§4.5 "Timer
// overload", §4.6 step 7).
func decodeTimerStatus(payload []byte) NotifyEvent {
	ev := NotifyEvent{Family: FamilyTimer, Raw: payload}
	switch payload[4] {
	case 0x01:
		ev.Kind = "NextPackage"
	case 0x03:
		ev.Kind = "Finished"
	case 0x00:
		ev.Kind = "TransferError"
		ev.ErrorCode = payload[4]
	default:
		ev.Kind = "Unknown"
	}
	return ev
}

func decodeOtaTransferStatus(payload []byte) NotifyEvent {
	ev := NotifyEvent{Family: FamilyOTA, Raw: payload}
	switch payload[4] {
	case 0x01:
		ev.Kind = "NextPackage"
	case 0x03:
		ev.Kind = "Finished"
	case 0x00:
		ev.Kind = "TransferError"
		ev.ErrorCode = payload[4]
	default:
		ev.Kind = "Unknown"
	}
	return ev
}

// decodeScheduleNotification handles schedule's different dispatch
// shape: [0]=0x05 and [2] in {0x05 (per-slot setup ack), 0x07 (master
// switch ack)} (§4.5 "Schedule notifications").
func decodeScheduleNotification(payload []byte) (NotifyEvent, bool) {
	if len(payload) < 5 || payload[0] != 0x05 {
		return NotifyEvent{}, false
	}
	switch payload[2] {
	case 0x05:
		return NotifyEvent{
			Kind:         "ScheduleSetup",
			Family:       FamilySchedule,
			ScheduleSlot: int(payload[4]),
			Raw:          payload,
		}, true
	case 0x07:
		return NotifyEvent{
			Kind:     "ScheduleMasterSwitch",
			Family:   FamilySchedule,
			MasterOn: payload[4] != 0x00,
			Raw:      payload,
		}, true
	}
	return NotifyEvent{}, false
}

// decodeOtaAck handles the OTA step-1 setup acknowledgement, which the
// device reports with either status byte (§4.6 "OTA specifics").
func decodeOtaAck(payload []byte) (NotifyEvent, bool) {
	if len(payload) != 5 || payload[0] != 0x05 || payload[1] != 0x00 || payload[3] != 0xC0 {
		return NotifyEvent{}, false
	}
	if payload[2] != 0x00 && payload[2] != 0x02 {
		return NotifyEvent{}, false
	}
	return NotifyEvent{
		Kind:        "OtaSetupAck",
		Family:      FamilyOTA,
		OtaAccepted: payload[4] == 0x01,
		Raw:         payload,
	}, true
}

// decodeLedInfo parses the LED-info query response (§4.5 "LedInfo"):
// len>=9, [2]=0x01, [3]=0x80, followed by MCU version, status, screen
// type and password flag bytes.
func decodeLedInfo(payload []byte) NotifyEvent {
	return NotifyEvent{
		Kind:   "LedInfo",
		Family: FamilyShort,
		LedInfo: LedInfoResponse{
			MCUMajor:     payload[4],
			MCUMinor:     payload[5],
			Status:       payload[6],
			ScreenType:   payload[7],
			PasswordFlag: payload[8],
		},
		Raw: payload,
	}
}
