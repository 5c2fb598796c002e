package idm

import (
	"context"
	"testing"
	"time"
)

func TestParseAdvertisementRoundTrip(t *testing.T) {
	lamp := uint16(300)
	original := ScanIdentity{
		Signature: signatureP,
		Shape:     int8(LedType32x32),
		GroupID:   1,
		DeviceID:  5,
		Reverse:   true,
		CID:       7,
		PID:       3,
		LampCount: &lamp,
	}
	record := EncodeAdvertisement(original)

	// Prepend an unrelated flags record, as a real advertisement would
	// carry one ahead of the manufacturer-data record.
	adv := append([]byte{0x02, 0x01, 0x06}, record...)

	parsed, err := ParseAdvertisement(adv)
	if err != nil {
		t.Fatal(err)
	}
	if parsed == nil {
		t.Fatal("expected a parsed identity, got nil")
	}
	if parsed.Shape != original.Shape || parsed.CID != original.CID || parsed.PID != original.PID {
		t.Fatalf("got %+v, want shape/cid/pid matching %+v", parsed, original)
	}
	if parsed.GroupID != original.GroupID || parsed.DeviceID != original.DeviceID || parsed.Reverse != original.Reverse {
		t.Fatalf("got %+v, want group/device/reverse matching %+v", parsed, original)
	}
	if parsed.LampCount == nil || *parsed.LampCount != lamp {
		t.Fatalf("lamp count = %v, want %d", parsed.LampCount, lamp)
	}
}

func TestParseAdvertisementIgnoresNonMatchingDevices(t *testing.T) {
	adv := []byte{0x02, 0x01, 0x06, 0x03, 0xFF, 0x4C, 0x00} // unrelated manufacturer data
	parsed, err := ParseAdvertisement(adv)
	if err != nil {
		t.Fatal(err)
	}
	if parsed != nil {
		t.Fatalf("got %+v, want nil for a non-matching advertisement", parsed)
	}
}

func TestParseAdvertisementRejectsOversizedRecord(t *testing.T) {
	adv := []byte{0x20} // length byte 32, exceeds the 31-byte AD-TLV guard
	if _, err := ParseAdvertisement(adv); err != ErrAdTlvGuardViolation {
		t.Fatalf("got %v, want ErrAdTlvGuardViolation", err)
	}
}

func TestParseAdvertisementRejectsTruncatedSignature(t *testing.T) {
	record := []byte{0x04, 0xFF, 'T', 'R', 0x00} // declares 4 bytes of body, too short to hold the full 4-byte signature
	parsed, err := ParseAdvertisement(record)
	if err != nil {
		t.Fatal(err)
	}
	if parsed != nil {
		t.Fatal("expected nil: a record too short to hold the signature must not match")
	}
}

func TestScanLoopDedupsFiltersAndParsesAdvertisements(t *testing.T) {
	matching := EncodeAdvertisement(ScanIdentity{Signature: signatureP, Shape: int8(LedType16x16), CID: 1, PID: 2})
	blocklisted := EncodeAdvertisement(ScanIdentity{Signature: signatureP, Shape: int8(LedType16x16), CID: 9, PID: 9})
	nonMatching := []byte{0x03, 0xFF, 0x4C, 0x00}

	transport := NewFakeTransport()
	transport.Advertisements = []ScanResult{
		{PeripheralID: "dev1", Advertisement: matching},
		{PeripheralID: "dev1", Advertisement: matching}, // duplicate, suppressed by ScanCache
		{PeripheralID: "dev2", Advertisement: blocklisted},
		{PeripheralID: "dev3", Advertisement: nonMatching},
	}

	out := make(chan ScanResultEvent, 8)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := ScanLoop(ctx, transport, []string{"000909"}, out); err != nil {
		t.Fatal(err)
	}
	close(out)

	var events []ScanResultEvent
	for ev := range out {
		events = append(events, ev)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (dedup + blocklist + non-matching all suppressed): %+v", len(events), events)
	}
	if events[0].Result.PeripheralID != "dev1" {
		t.Fatalf("event = %+v, want dev1", events[0])
	}
	if events[0].Identity.CID != 1 || events[0].Identity.PID != 2 {
		t.Fatalf("identity = %+v, want cid=1 pid=2", events[0].Identity)
	}
}

func TestScanIdentityStringIncludesKeyFields(t *testing.T) {
	id := &ScanIdentity{Shape: 1, CID: 2, PID: 3}
	s := id.String()
	if s == "" {
		t.Fatal("String() returned empty")
	}
}
