package idm

import "testing"

func TestNegotiateEndpointsPrefersFAProfile(t *testing.T) {
	chars := []DiscoveredCharacteristic{
		{Service: faServiceUUID, Characteristic: faWriteUUID, Write: true},
		{Service: faServiceUUID, Characteristic: notifyPreferred9602, Notify: true},
		{Service: fee9ServiceUUID, Characteristic: fee9WriteUUID, Write: true},
	}
	ep, err := NegotiateEndpoints(chars)
	if err != nil {
		t.Fatal(err)
	}
	if ep.Profile != ProfileFA {
		t.Fatalf("profile = %v, want ProfileFA", ep.Profile)
	}
	if ep.Notify != notifyPreferred9602 {
		t.Fatalf("notify = %v, want the preferred 9602 characteristic", ep.Notify)
	}
	if ep.HasOTA {
		t.Fatal("no OTA characteristics were discovered, HasOTA should be false")
	}
}

func TestNegotiateEndpointsFallsBackToFEE9(t *testing.T) {
	chars := []DiscoveredCharacteristic{
		{Service: fee9ServiceUUID, Characteristic: fee9WriteUUID, Write: true},
		{Service: fee9ServiceUUID, Characteristic: notifyFallback9601, Notify: true},
	}
	ep, err := NegotiateEndpoints(chars)
	if err != nil {
		t.Fatal(err)
	}
	if ep.Profile != ProfileFEE9 {
		t.Fatalf("profile = %v, want ProfileFEE9", ep.Profile)
	}
	if ep.Notify != notifyFallback9601 {
		t.Fatalf("notify = %v, want the fallback 9601 characteristic", ep.Notify)
	}
}

func TestNegotiateEndpointsFailsWithoutAKnownProfile(t *testing.T) {
	if _, err := NegotiateEndpoints(nil); err == nil {
		t.Fatal("expected an error when no known control profile is present")
	}
}

func TestNegotiateEndpointsDiscoversOTA(t *testing.T) {
	chars := []DiscoveredCharacteristic{
		{Service: faServiceUUID, Characteristic: faWriteUUID, Write: true},
		{Service: otaServiceUUID, Characteristic: otaDataUUID, Write: true},
		{Service: otaServiceUUID, Characteristic: otaAckUUID, Notify: true},
	}
	ep, err := NegotiateEndpoints(chars)
	if err != nil {
		t.Fatal(err)
	}
	if !ep.HasOTA {
		t.Fatal("expected HasOTA to be true")
	}
	if ep.OTAData != otaDataUUID || ep.OTAAck != otaAckUUID {
		t.Fatalf("OTA endpoints = %v/%v, want %v/%v", ep.OTAData, ep.OTAAck, otaDataUUID, otaAckUUID)
	}
}

func TestChooseNotifyCharacteristicPrefersPreferredOverFallback(t *testing.T) {
	chars := []DiscoveredCharacteristic{
		{Service: faServiceUUID, Characteristic: notifyFallback9601, Notify: true},
		{Service: faServiceUUID, Characteristic: notifyPreferred9602, Notify: true},
	}
	got := chooseNotifyCharacteristic(chars, faServiceUUID)
	if got != notifyPreferred9602 {
		t.Fatalf("got %v, want the preferred 9602 characteristic", got)
	}
}
