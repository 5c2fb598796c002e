package idm

// Family identifies one of the frame families the codec, transfer
// coordinator and notification decoder all branch on (Glossary
// "Family"). Family dispatch is a tagged variant everywhere in this
// package, never a single lookup table (§4.5, §4.9 design notes).
type Family int

const (
	FamilyShort Family = iota
	FamilyText
	FamilyGif
	FamilyImage
	FamilyDIY
	FamilyTimer
	FamilySchedule
	FamilyOTA
)

func (f Family) String() string {
	switch f {
	case FamilyShort:
		return "short"
	case FamilyText:
		return "text"
	case FamilyGif:
		return "gif"
	case FamilyImage:
		return "image"
	case FamilyDIY:
		return "diy"
	case FamilyTimer:
		return "timer"
	case FamilySchedule:
		return "schedule"
	case FamilyOTA:
		return "ota"
	default:
		return "unknown"
	}
}
