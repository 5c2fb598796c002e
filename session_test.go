package idm

import (
	"context"
	"testing"
	"time"
)

func faCharacteristics() []DiscoveredCharacteristic {
	return []DiscoveredCharacteristic{
		{Service: faServiceUUID, Characteristic: faWriteUUID, Write: true},
		{Service: faServiceUUID, Characteristic: notifyPreferred9602, Notify: true},
	}
}

func TestOpenResolvesProfileAndSubscribes(t *testing.T) {
	transport := NewFakeTransport()
	transport.Characteristics["dev1"] = faCharacteristics()
	transport.NegotiatedMTU = 185

	identity := ScanIdentity{Shape: int8(LedType16x16), CID: 1, PID: 2}
	session, err := Open(context.Background(), transport, "dev1", identity, nil, 185, DefaultTimeouts())
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	if session.Profile.LedType != LedType16x16 {
		t.Fatalf("led type = %v, want %v", session.Profile.LedType, LedType16x16)
	}
	if session.Profile.Endpoints.Write != faWriteUUID {
		t.Fatalf("write endpoint = %v, want %v", session.Profile.Endpoints.Write, faWriteUUID)
	}
}

func TestOpenFailsOnAmbiguousShapeWithoutOverride(t *testing.T) {
	transport := NewFakeTransport()
	transport.Characteristics["dev1"] = faCharacteristics()

	identity := ScanIdentity{Shape: AmbiguousShape81}
	if _, err := Open(context.Background(), transport, "dev1", identity, nil, 185, DefaultTimeouts()); err == nil {
		t.Fatal("expected an error resolving an ambiguous shape with no override")
	}
}

func TestOpenCarriesNegotiatedMTUIntoSession(t *testing.T) {
	transport := NewFakeTransport()
	transport.Characteristics["dev1"] = faCharacteristics()
	transport.NegotiatedMTU = 250

	identity := ScanIdentity{Shape: int8(LedType16x16)}
	session, err := Open(context.Background(), transport, "dev1", identity, nil, 185, DefaultTimeouts())
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()
	if session.negotiatedMTU != 250 {
		t.Fatalf("negotiatedMTU = %d, want the fake transport's reported value of 250", session.negotiatedMTU)
	}
}

func TestSessionSendWritesToControlEndpoint(t *testing.T) {
	transport := NewFakeTransport()
	transport.Characteristics["dev1"] = faCharacteristics()

	identity := ScanIdentity{Shape: int8(LedType16x16)}
	session, err := Open(context.Background(), transport, "dev1", identity, nil, 185, DefaultTimeouts())
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	writesBeforeSend := len(transport.Writes) // Open already wrote the led-info query

	frame, err := EncodePower(true)
	if err != nil {
		t.Fatal(err)
	}
	if err := session.Send(context.Background(), frame); err != nil {
		t.Fatal(err)
	}
	if len(transport.Writes) != writesBeforeSend+1 {
		t.Fatalf("writes = %+v, want exactly one additional write", transport.Writes)
	}
	last := transport.Writes[len(transport.Writes)-1]
	if last.Characteristic != faWriteUUID {
		t.Fatalf("write = %+v, want a write to %v", last, faWriteUUID)
	}
}

func TestSessionFanOutRoutesLedInfoToEvents(t *testing.T) {
	transport := NewFakeTransport()
	transport.Characteristics["dev1"] = faCharacteristics()

	identity := ScanIdentity{Shape: int8(LedType16x16)}
	session, err := Open(context.Background(), transport, "dev1", identity, nil, 185, DefaultTimeouts())
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	ledInfoPayload := []byte{0x09, 0x00, 0x01, 0x80, 0x02, 0x01, 0x00, byte(LedType16x16), 0x00}
	transport.DeliverNotification("dev1", ledInfoPayload)

	select {
	case ev := <-session.Events:
		if ev.Kind != "LedInfo" {
			t.Fatalf("got %+v, want LedInfo routed to Events", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a LedInfo event to be available on Events")
	}
}

func TestOpenReResolvesProfileFromLedInfoReply(t *testing.T) {
	transport := NewFakeTransport()
	transport.Characteristics["dev1"] = faCharacteristics()

	// AmbiguousShape81 needs an override to resolve on its own; the
	// LED-info reply's screen_type carries the real shape instead.
	identity := ScanIdentity{Shape: AmbiguousShape81}
	override := &ShapeOverride{LedType: LedType16x16}

	go func() {
		time.Sleep(20 * time.Millisecond)
		transport.DeliverNotification("dev1", []byte{0x09, 0x00, 0x01, 0x80, 0x02, 0x01, 0x00, byte(LedType32x32), 0x00})
	}()

	session, err := Open(context.Background(), transport, "dev1", identity, override, 185, DefaultTimeouts())
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	if session.Profile.LedType != LedType32x32 {
		t.Fatalf("led type = %v, want %v (re-resolved from the led-info reply)", session.Profile.LedType, LedType32x32)
	}
}

func TestSessionFanOutRoutesTransferEventsToCoordinatorChannel(t *testing.T) {
	transport := NewFakeTransport()
	transport.Characteristics["dev1"] = faCharacteristics()

	identity := ScanIdentity{Shape: int8(LedType16x16)}
	session, err := Open(context.Background(), transport, "dev1", identity, nil, 185, DefaultTimeouts())
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	transport.DeliverNotification("dev1", []byte{0x05, 0x00, 0x03, 0x00, 0x03}) // text "Finished"

	select {
	case ev := <-session.transferEvents:
		if ev.Kind != "Finished" || ev.Family != FamilyText {
			t.Fatalf("got %+v, want a Finished text event on transferEvents", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a transfer event to be available on transferEvents")
	}

	select {
	case ev := <-session.Events:
		t.Fatalf("transfer-family event leaked onto Events: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
