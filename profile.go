package idm

// LedType enumerates the panel geometries this library knows how to
// drive (§3 "LedType").
type LedType int

const (
	LedTypeUnresolved LedType = 0
	LedType16x16      LedType = 1
	LedType8x32       LedType = 2
	LedType32x32      LedType = 3
	LedType64x64      LedType = 4
	LedType24x48      LedType = 6
	LedType16x32      LedType = 7
	LedType16x64      LedType = 11
)

func (lt LedType) String() string {
	switch lt {
	case LedType16x16:
		return "16x16"
	case LedType8x32:
		return "8x32"
	case LedType32x32:
		return "32x32"
	case LedType64x64:
		return "64x64"
	case LedType24x48:
		return "24x48"
	case LedType16x32:
		return "16x32"
	case LedType16x64:
		return "16x64"
	default:
		return "unresolved"
	}
}

// Ambiguous shape byte values (§3 "AmbiguousShape").
const (
	AmbiguousShape81 int8 = -127 // 0x81
	AmbiguousShape82 int8 = -126 // 0x82
	AmbiguousShape83 int8 = -125 // 0x83
)

func isAmbiguousShape(shape int8) bool {
	return shape == AmbiguousShape81 || shape == AmbiguousShape82 || shape == AmbiguousShape83
}

func isKnownShape(shape int8) bool {
	switch LedType(shape) {
	case LedType16x16, LedType8x32, LedType32x32, LedType64x64, LedType24x48, LedType16x32, LedType16x64:
		return true
	}
	return false
}

// TextPath is the routed encoder branch for text uploads (Glossary
// "Text path").
type TextPath int

const (
	PathUnresolved TextPath = iota
	Path1616
	Path832
	Path3232
	Path6464
	Path1664
)

// PanelSize is the panel's pixel geometry.
type PanelSize struct {
	Width, Height int
}

// DeviceRoutingProfile is produced at connect time and, once LedType
// is resolved, is immutable for the rest of the session (§3
// "DeviceRoutingProfile").
type DeviceRoutingProfile struct {
	LedType   LedType
	Panel     PanelSize
	TextPath  TextPath
	JointMode int // 0 means "no joint-mode frame required"
	CID       byte
	PID       byte
	Reverse   bool
	Endpoints Endpoints
}

// LedInfoResponse is the parsed LED-info query notification (§3
// NotifyEvent.LedInfo, §4.5), consumed by the resolver to override a
// provisional led_type (§4.3 step 3).
type LedInfoResponse struct {
	MCUMajor     byte
	MCUMinor     byte
	Status       byte
	ScreenType   byte
	PasswordFlag byte
}

// ShapeOverride is the caller-supplied resolution for an ambiguous
// shape byte, persisted per-device by an OverrideStore (§4.3 step 2).
type ShapeOverride struct {
	LedType LedType
}

// Override82As8x64 is the vendor-app-compatible choice for a 0x82
// override: storing led_type=2 (panel 8x32), not a genuine 8x64
// geometry (§4.3 "Shape 0x82 note", Open Question (a)).
const Override82As8x64 LedType = LedType8x32

// ResolveDeviceRoutingProfile implements §4.3's resolution order.
func ResolveDeviceRoutingProfile(id ScanIdentity, override *ShapeOverride, ledInfo *LedInfoResponse) (profile DeviceRoutingProfile, err error) {
	var led LedType

	switch {
	case isKnownShape(id.Shape):
		led = LedType(id.Shape)
	case isAmbiguousShape(id.Shape):
		if override == nil {
			err = AmbiguousShapeError(id.Shape)
			return
		}
		led = override.LedType
	default:
		err = UnknownShapeError(id.Shape)
		return
	}

	if ledInfo != nil && isKnownShape(int8(ledInfo.ScreenType)) {
		led = LedType(ledInfo.ScreenType)
	}

	panel, textPath, jointMode, derr := deriveFromLedType(led)
	if derr != nil {
		err = derr
		return
	}

	profile = DeviceRoutingProfile{
		LedType:   led,
		Panel:     panel,
		TextPath:  textPath,
		JointMode: jointMode,
		CID:       id.CID,
		PID:       id.PID,
		Reverse:   id.Reverse,
	}
	return
}

// deriveFromLedType implements the table in §4.3: once led_type is
// resolved, panel size, text path and joint mode are deterministic
// functions of it. The canonical joint-mode mapping (1/2/5/6) is used
// even though the vendor app has a bug that emits raw led_type.
func deriveFromLedType(led LedType) (panel PanelSize, path TextPath, jointMode int, err error) {
	switch led {
	case LedType16x16:
		return PanelSize{16, 16}, Path1616, 1, nil
	case LedType8x32:
		return PanelSize{8, 32}, Path832, 2, nil
	case LedType32x32:
		return PanelSize{32, 32}, Path3232, 5, nil
	case LedType64x64:
		return PanelSize{64, 64}, Path6464, 0, nil
	case LedType24x48:
		return PanelSize{24, 48}, Path1616, 0, nil
	case LedType16x32:
		return PanelSize{16, 32}, Path1616, 0, nil
	case LedType16x64:
		return PanelSize{16, 64}, Path1664, 6, nil
	default:
		err = &ResolutionError{Kind: "UnresolvedTextPath", Shape: int8(led)}
		return
	}
}
