package idm

import (
	"errors"
	"testing"
)

type fakeRasterizer struct {
	fail bool
}

func (r fakeRasterizer) Rasterize(c rune, gridSize int) ([]byte, error) {
	if r.fail {
		return nil, errors.New("rasterize failed")
	}
	return make([]byte, gridSize*gridSize/8), nil
}

func TestBuildTextMetadataLayout(t *testing.T) {
	profile := DeviceRoutingProfile{LedType: LedType16x16, TextPath: Path1616}
	meta := BuildTextMetadata(profile, 5, TextBuildOptions{Mode: 2, R: 10, G: 20, B: 30})
	if len(meta) != 14 {
		t.Fatalf("metadata length = %d, want 14", len(meta))
	}
	if meta[2] != 0x01 || meta[3] != 0x01 {
		t.Fatalf("resolution flags = %#x %#x, want 0x01 0x01 for Path1616", meta[2], meta[3])
	}
	if meta[4] != 2 {
		t.Fatalf("mode = %d, want 2 (no +1 quirk outside 8x32)", meta[4])
	}
	if meta[5] != 10 || meta[6] != 20 || meta[7] != 30 {
		t.Fatalf("colour = %d,%d,%d, want 10,20,30", meta[5], meta[6], meta[7])
	}
	if int(meta[8])|int(meta[9])<<8 != 5 {
		t.Fatalf("glyph count = %d, want 5", int(meta[8])|int(meta[9])<<8)
	}
}

func TestBuildTextMetadata8x32ModeQuirk(t *testing.T) {
	profile := DeviceRoutingProfile{LedType: LedType8x32, TextPath: Path832}
	meta := BuildTextMetadata(profile, 0, TextBuildOptions{Mode: 2})
	if meta[4] != 3 {
		t.Fatalf("mode = %d, want 3 (8x32 quirk adds 1)", meta[4])
	}

	scheduleMeta := BuildTextMetadata(profile, 0, TextBuildOptions{Mode: 2, IsSchedule: true})
	if scheduleMeta[4] != 2 {
		t.Fatalf("schedule mode = %d, want 2 (schedule text skips the +1 quirk)", scheduleMeta[4])
	}
}

func TestClampColourBlackBecomesFaintBlue(t *testing.T) {
	r, g, b := clampColour(0, 0, 0)
	if r != 0 || g != 0 || b != 1 {
		t.Fatalf("clampColour(0,0,0) = %d,%d,%d, want 0,0,1", r, g, b)
	}
	r, g, b = clampColour(5, 0, 0)
	if r != 5 || g != 0 || b != 0 {
		t.Fatalf("clampColour(5,0,0) = %d,%d,%d, want unchanged", r, g, b)
	}
}

func TestBuildGlyphStreamUsesHardcodedFontFor8x32ASCII(t *testing.T) {
	profile := DeviceRoutingProfile{TextPath: Path832}
	stream, count, err := BuildGlyphStream(profile, "A", fakeRasterizer{})
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if stream[0] != 0x04 {
		t.Fatalf("type tag = %#x, want 0x04 (hardcoded font)", stream[0])
	}
	if len(stream) != 1+3+8 {
		t.Fatalf("stream length = %d, want %d", len(stream), 1+3+8)
	}
}

func TestBuildGlyphStreamRoutesCJKToRasterizer(t *testing.T) {
	profile := DeviceRoutingProfile{TextPath: Path1616}
	stream, count, err := BuildGlyphStream(profile, "日", fakeRasterizer{})
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if stream[0] != 0x03 {
		t.Fatalf("type tag = %#x, want 0x03 (wide CJK glyph)", stream[0])
	}
}

func TestBuildGlyphStreamPropagatesRasterizerError(t *testing.T) {
	profile := DeviceRoutingProfile{TextPath: Path1616}
	if _, _, err := BuildGlyphStream(profile, "日", fakeRasterizer{fail: true}); err == nil {
		t.Fatal("expected the rasterizer's error to propagate")
	}
}

func TestIsCJKWidthCoversHanHiraganaKatakanaHangul(t *testing.T) {
	cases := []rune{'日', 'ひ', 'ハ', '한'}
	for _, c := range cases {
		if !isCJKWidth(c) {
			t.Fatalf("isCJKWidth(%q) = false, want true", c)
		}
	}
	if isCJKWidth('A') {
		t.Fatal("isCJKWidth('A') = true, want false")
	}
}

func TestBuildTextPayloadCombinesMetadataAndGlyphs(t *testing.T) {
	profile := DeviceRoutingProfile{LedType: LedType16x16, TextPath: Path1616}
	payload, err := BuildTextPayload(FamilyText, profile, "Hi", TextBuildOptions{}, fakeRasterizer{})
	if err != nil {
		t.Fatal(err)
	}
	if payload.Family != FamilyText {
		t.Fatalf("family = %v, want %v", payload.Family, FamilyText)
	}
	if len(payload.Bytes) < 14 {
		t.Fatalf("payload too short to contain the metadata header: %d bytes", len(payload.Bytes))
	}
	if payload.CRC32 != CRC32(payload.Bytes) {
		t.Fatal("CRC32 does not match the assembled bytes")
	}
	if payload.Total != uint32(len(payload.Bytes)) {
		t.Fatalf("total = %d, want %d", payload.Total, len(payload.Bytes))
	}
}
