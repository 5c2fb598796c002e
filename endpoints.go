package idm

import (
	uuid "github.com/satori/go.uuid"
)

// Endpoints is the negotiated set of GATT characteristics a Session
// writes to and subscribes on (§3 "Endpoints", §6 "GATT endpoints").
// UUIDs are parsed with satori/go.uuid rather than compared as raw
// strings so endpoint matching is immune to case/format differences
// in what the transport reports.
type Endpoints struct {
	Profile EndpointProfile
	Service uuid.UUID
	Write   uuid.UUID
	Notify  uuid.UUID

	HasOTA  bool
	OTAData uuid.UUID
	OTAAck  uuid.UUID
}

type EndpointProfile int

const (
	ProfileUnknown EndpointProfile = iota
	ProfileFA
	ProfileFEE9
)

func mustUUID(s string) uuid.UUID {
	u, err := uuid.FromString(s)
	if err != nil {
		panic(err)
	}
	return u
}

var (
	faServiceUUID = mustUUID("0000fa00-0000-1000-8000-00805f9b34fb")
	faWriteUUID   = mustUUID("0000fa02-0000-1000-8000-00805f9b34fb")

	fee9ServiceUUID = mustUUID("0000fee9-0000-1000-8000-00805f9b34fb")
	fee9WriteUUID   = mustUUID("d44bc439-abfd-45a2-b575-925416129600")

	// The notify pair shares fee9WriteUUID's base UUID with only the last
	// two hex digits varying (…9600 write, …9601/…9602 notify), not
	// faWriteUUID's base — a distinct write and notify characteristic is
	// required by §6's endpoint model.
	notifyPreferred9602 = mustUUID("d44bc439-abfd-45a2-b575-925416129602")
	notifyFallback9601  = mustUUID("d44bc439-abfd-45a2-b575-925416129601")

	// OTA triple (§3 "Endpoints", §6): ae00 is the service UUID,
	// ae01 the data-write characteristic, ae02 the ack/notify one.
	otaServiceUUID = mustUUID("0000ae00-0000-1000-8000-00805f9b34fb")
	otaDataUUID    = mustUUID("0000ae01-0000-1000-8000-00805f9b34fb")
	otaAckUUID     = mustUUID("0000ae02-0000-1000-8000-00805f9b34fb")
)

// DiscoveredCharacteristic is the minimal shape a Transport reports
// for each GATT characteristic found during service discovery.
type DiscoveredCharacteristic struct {
	Service        uuid.UUID
	Characteristic uuid.UUID
	Notify         bool
	Indicate       bool
	Write          bool
}

// NegotiateEndpoints implements §6 "GATT endpoints (negotiated)":
// prefer the FA profile, fall back to FEE9; the notify characteristic
// is whichever one on the matched service carries NOTIFY/INDICATE,
// preferring …9602 then …9601; OTA endpoints are optional.
func NegotiateEndpoints(chars []DiscoveredCharacteristic) (ep Endpoints, err error) {
	if found, ok := negotiateControlProfile(chars, faServiceUUID, faWriteUUID, ProfileFA); ok {
		ep = found
	} else if found, ok := negotiateControlProfile(chars, fee9ServiceUUID, fee9WriteUUID, ProfileFEE9); ok {
		ep = found
	} else {
		err = ErrConnectFailed
		return
	}

	ep.Notify = chooseNotifyCharacteristic(chars, ep.Service)

	if data, ack, ok := negotiateOTA(chars); ok {
		ep.HasOTA = true
		ep.OTAData, ep.OTAAck = data, ack
	}
	return
}

func negotiateControlProfile(chars []DiscoveredCharacteristic, service, write uuid.UUID, profile EndpointProfile) (Endpoints, bool) {
	sawService, sawWrite := false, false
	for _, c := range chars {
		if c.Service == service {
			sawService = true
			if c.Characteristic == write && c.Write {
				sawWrite = true
			}
		}
	}
	if sawService && sawWrite {
		return Endpoints{Profile: profile, Service: service, Write: write}, true
	}
	return Endpoints{}, false
}

func chooseNotifyCharacteristic(chars []DiscoveredCharacteristic, service uuid.UUID) uuid.UUID {
	var fallback uuid.UUID
	haveFallback := false
	for _, c := range chars {
		if c.Service != service || !(c.Notify || c.Indicate) {
			continue
		}
		if c.Characteristic == notifyPreferred9602 {
			return c.Characteristic
		}
		if c.Characteristic == notifyFallback9601 {
			fallback = c.Characteristic
			haveFallback = true
		}
		if !haveFallback {
			fallback = c.Characteristic
			haveFallback = true
		}
	}
	return fallback
}

func negotiateOTA(chars []DiscoveredCharacteristic) (data, ack uuid.UUID, ok bool) {
	haveData, haveAck := false, false
	for _, c := range chars {
		if c.Service != otaServiceUUID {
			continue
		}
		switch c.Characteristic {
		case otaDataUUID:
			data, haveData = c.Characteristic, true
		case otaAckUUID:
			ack, haveAck = c.Characteristic, true
		}
	}
	ok = haveData && haveAck
	return
}
