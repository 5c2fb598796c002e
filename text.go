package idm

import (
	"encoding/binary"
	"unicode"
)

// Rasterizer rasterises a single rune into a bitmap of the requested
// square grid size, row-major, 8 pixels per byte, first pixel at LSB
// (§9 "Rasterisation injected"). The text builder never rasterises
// itself; it only embeds the vendor hardcoded 8x8 font as data.
type Rasterizer interface {
	Rasterize(c rune, gridSize int) ([]byte, error)
}

// resolutionFlags implements §4.7's `[byte2, byte3]` table, keyed on
// the resolved TextPath.
func resolutionFlags(path TextPath) (byte, byte) {
	switch path {
	case Path832:
		return 0x00, 0x01
	case Path1664:
		return 0x00, 0x01
	case Path1616, Path3232, Path6464:
		return 0x01, 0x01
	default:
		return 0x00, 0x00
	}
}

// clampColour implements §4.7's colour guard: if R==0 and G==0, B is
// clamped to at least 1 so a fully-black request is still visible as a
// faint blue rather than invisible (§8 "Colour (0,0,0) is encoded as
// (0,0,1)").
func clampColour(r, g, b byte) (byte, byte, byte) {
	if r == 0 && g == 0 && b < 1 {
		b = 1
	}
	return r, g, b
}

// TextBuildOptions configures one text payload build.
type TextBuildOptions struct {
	Mode       byte
	R, G, B    byte
	IsSchedule bool // schedule-text skips the mode+1 quirk (§4.7)
}

// BuildTextMetadata builds the 14-byte metadata header shared by every
// text-family upload (text, timer-text, schedule-text): resolution
// flags at [2:4], mode (with the 8x32 mode+1 quirk applied where it
// applies) at [4], clamped colour at [5:8], and the glyph count at
// [8:10].
func BuildTextMetadata(profile DeviceRoutingProfile, glyphCount int, opts TextBuildOptions) []byte {
	meta := make([]byte, 14)
	flag0, flag1 := resolutionFlags(profile.TextPath)
	meta[2], meta[3] = flag0, flag1

	mode := opts.Mode
	if profile.LedType == LedType8x32 && !opts.IsSchedule {
		mode++
	}
	meta[4] = mode

	r, g, b := clampColour(opts.R, opts.G, opts.B)
	meta[5], meta[6], meta[7] = r, g, b

	binary.LittleEndian.PutUint16(meta[8:10], uint16(glyphCount))
	return meta
}

// glyphPadding implements §4.7's per-path pad-byte table.
func glyphPadding(path TextPath, typeTag byte) [3]byte {
	if path == Path832 {
		if typeTag == 0x04 {
			return [3]byte{0xFF, 0xFF, 0xFF}
		}
		return [3]byte{0x00, 0x00, 0x00}
	}
	return [3]byte{0xFF, 0xFF, 0xFF}
}

// glyphTypeTag and glyphBitmap implement §4.7's per-path type-tag and
// bitmap-size table: 8x32 prefers the hardcoded 8x8 font (tag 0x04),
// then a compact 12x12 raster (0x00), then a 12x16 grid (0x01); the
// 16x16-class paths use 0x02 (8x16) for narrow glyphs and 0x03 (16x16)
// for CJK/JP/KR; 32x32 and 64x64 add their own wider tags at larger
// font sizes.
func glyphTypeTag(path TextPath, c rune) (tag byte, bitmapLen int) {
	wide := isCJKWidth(c)
	switch path {
	case Path832:
		if _, ok := glyph8x8(c); ok {
			return 0x04, 8
		}
		if wide {
			return 0x01, 24
		}
		return 0x00, 8
	case Path3232:
		if wide {
			return 0x06, 128
		}
		return 0x05, 64
	case Path6464:
		if wide {
			return 0x08, 512
		}
		return 0x07, 256
	default: // Path1616, Path1664 and the 24x48/16x32 panels routed through Path1616
		if wide {
			return 0x03, 32
		}
		return 0x02, 16
	}
}

// isCJKWidth implements §4.7's CJK/Japanese/Korean classification: a
// rune needing the wide glyph box. The spec documents the vendor app's
// Chinese-only schedule-text check as a likely bug and directs
// implementations to use the broader CJK/JP/KR check everywhere,
// including for schedule text (§9 Open Question (c)).
func isCJKWidth(c rune) bool {
	return unicode.In(c,
		unicode.Han,
		unicode.Hiragana,
		unicode.Katakana,
		unicode.Hangul,
	)
}

// BuildGlyphStream encodes one character at a time as
// [type, pad, pad, pad, …bitmap] (§4.7 "Glyph stream"). On the 8x32
// path, characters covered by the embedded hardcoded font never reach
// the rasteriser; every other character, and every character on the
// other paths, is rasterised to the grid size the path's type tag
// implies.
func BuildGlyphStream(profile DeviceRoutingProfile, text string, rasterizer Rasterizer) ([]byte, int, error) {
	var out []byte
	count := 0
	for _, c := range text {
		tag, bitmapLen := glyphTypeTag(profile.TextPath, c)
		pad := glyphPadding(profile.TextPath, tag)

		var bitmap []byte
		if tag == 0x04 {
			b, _ := glyph8x8(c)
			bitmap = b[:]
		} else {
			grid := gridSizeForTag(tag)
			rastered, err := rasterizer.Rasterize(c, grid)
			if err != nil {
				return nil, 0, err
			}
			bitmap = make([]byte, bitmapLen)
			copy(bitmap, rastered)
		}

		out = append(out, tag)
		out = append(out, pad[:]...)
		out = append(out, bitmap...)
		count++
	}
	return out, count, nil
}

func gridSizeForTag(tag byte) int {
	switch tag {
	case 0x00:
		return 12
	case 0x01:
		return 12
	case 0x02, 0x03:
		return 16
	case 0x05, 0x06:
		return 32
	case 0x07, 0x08:
		return 64
	default:
		return 8
	}
}

// BuildTextPayload assembles the full text-family LogicalPayload:
// metadata followed by the glyph stream, CRC32'd as one unit per
// §3 "LogicalPayload".
func BuildTextPayload(family Family, profile DeviceRoutingProfile, text string, opts TextBuildOptions, rasterizer Rasterizer) (LogicalPayload, error) {
	glyphs, count, err := BuildGlyphStream(profile, text, rasterizer)
	if err != nil {
		return LogicalPayload{}, err
	}
	meta := BuildTextMetadata(profile, count, opts)
	bytes := append(meta, glyphs...)
	return NewLogicalPayload(family, bytes), nil
}
