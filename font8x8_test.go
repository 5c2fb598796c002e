package idm

import "testing"

func TestGlyph8x8CoversUppercaseAndLowercase(t *testing.T) {
	upper, ok := glyph8x8('A')
	if !ok {
		t.Fatal("expected 'A' to be covered by the hardcoded font")
	}
	lower, ok := glyph8x8('a')
	if !ok {
		t.Fatal("expected 'a' to be covered by the hardcoded font")
	}
	if upper != lower {
		t.Fatal("lowercase letters should mirror their uppercase bitmap")
	}
}

func TestGlyph8x8MissesUnsupportedRunes(t *testing.T) {
	if _, ok := glyph8x8('日'); ok {
		t.Fatal("CJK runes are not part of the hardcoded font")
	}
}

func TestGlyph8x8CoversDigitsAndPunctuation(t *testing.T) {
	for _, c := range []rune{'0', '9', '.', ',', '!', '?', '-', ':', ' '} {
		if _, ok := glyph8x8(c); !ok {
			t.Fatalf("expected %q to be covered by the hardcoded font", c)
		}
	}
}
