package idm

import (
	"time"
)

// FamilyTiming is the per-family pacing interval and ACK timeout the
// transfer coordinator uses (§4.6 step 6-7, §5 "Timeouts"). Grounded
// on kr's TimeoutPhases/Timeouts shape, generalized from
// alert/fail phases to pacing/ack-timeout phases per upload family.
type FamilyTiming struct {
	Pacing     time.Duration
	AckTimeout time.Duration
}

type Timeouts struct {
	Text     FamilyTiming
	Gif      FamilyTiming
	Image    FamilyTiming
	DIY      FamilyTiming
	Timer    FamilyTiming
	Schedule FamilyTiming
	OTA      FamilyTiming
}

// DefaultTimeouts matches spec.md §4.6/§5: text paces at 50ms,
// GIF/image/DIY/OTA at 20ms, every family defaults to a 5s ACK
// timeout per logical chunk unless overridden.
func DefaultTimeouts() Timeouts {
	const defaultAck = 5 * time.Second
	return Timeouts{
		Text:     FamilyTiming{Pacing: 50 * time.Millisecond, AckTimeout: defaultAck},
		Gif:      FamilyTiming{Pacing: 20 * time.Millisecond, AckTimeout: defaultAck},
		Image:    FamilyTiming{Pacing: 20 * time.Millisecond, AckTimeout: defaultAck},
		DIY:      FamilyTiming{Pacing: 20 * time.Millisecond, AckTimeout: defaultAck},
		Timer:    FamilyTiming{Pacing: 20 * time.Millisecond, AckTimeout: defaultAck},
		Schedule: FamilyTiming{Pacing: 20 * time.Millisecond, AckTimeout: defaultAck},
		OTA:      FamilyTiming{Pacing: 20 * time.Millisecond, AckTimeout: defaultAck},
	}
}

func (t Timeouts) forFamily(f Family) FamilyTiming {
	switch f {
	case FamilyText:
		return t.Text
	case FamilyGif:
		return t.Gif
	case FamilyImage:
		return t.Image
	case FamilyDIY:
		return t.DIY
	case FamilyTimer:
		return t.Timer
	case FamilySchedule:
		return t.Schedule
	case FamilyOTA:
		return t.OTA
	default:
		return FamilyTiming{Pacing: 20 * time.Millisecond, AckTimeout: 5 * time.Second}
	}
}
