package idm

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/satori/go.uuid"
)

// ledInfoQueryTimeout bounds how long Open waits for a LedInfo reply
// to its query before falling back to the profile resolved from the
// advertisement alone (§4.3 step 3: "profile may be mutated once by
// the LED-info query response" — mutation is best-effort, not required
// for Open to succeed).
const ledInfoQueryTimeout = 300 * time.Millisecond

// Session glues a Transport connection to a negotiated DeviceRoutingProfile
// and TransferCoordinator, splitting the notify stream so the coordinator
// only sees transfer-family events and everything else (LED info,
// screen-light reads, unknown payloads) reaches Events (§5 "Shared
// resources").
type Session struct {
	PeripheralID string
	Profile      DeviceRoutingProfile
	Timeouts     Timeouts

	transport     Transport
	coordinator   *TransferCoordinator
	negotiatedMTU int

	transferEvents chan NotifyEvent
	Events         chan NotifyEvent
}

// Open connects, discovers characteristics, negotiates endpoints and
// MTU, and resolves the device's routing profile. override may be nil;
// the LED-info reply, when one arrives, is passed to
// ResolveDeviceRoutingProfile, which documents the precedence.
func Open(ctx context.Context, transport Transport, peripheralID string, identity ScanIdentity, override *ShapeOverride, preferredMTU int, timeouts Timeouts) (*Session, error) {
	log.Debug(fmt.Sprintf("session: connecting to %s", peripheralID))
	if err := transport.Connect(ctx, peripheralID); err != nil {
		log.Error(fmt.Sprintf("session: connect to %s failed: %v", peripheralID, err))
		return nil, ErrConnectFailed
	}

	chars, err := transport.DiscoverCharacteristics(ctx, peripheralID)
	if err != nil {
		return nil, err
	}
	endpoints, err := NegotiateEndpoints(chars)
	if err != nil {
		transport.Disconnect(peripheralID)
		return nil, err
	}

	profile, err := ResolveDeviceRoutingProfile(identity, override, nil)
	if err != nil {
		transport.Disconnect(peripheralID)
		return nil, err
	}
	profile.Endpoints = endpoints

	mtu, err := transport.NegotiateMTU(ctx, peripheralID, preferredMTU)
	if err != nil {
		// MTU negotiation failure degrades to 18-byte fragments rather
		// than aborting the connection (§7 "Transport errors").
		mtu = 0
	}

	s := &Session{
		PeripheralID:   peripheralID,
		Profile:        profile,
		Timeouts:       timeouts,
		transport:      transport,
		coordinator:    NewTransferCoordinator(transport, timeouts),
		negotiatedMTU:  mtu,
		transferEvents: make(chan NotifyEvent, 4),
		Events:         make(chan NotifyEvent, 16),
	}

	notifications := make(chan []byte, 16)
	if err := transport.Subscribe(ctx, peripheralID, endpoints.Notify, notifications); err != nil {
		transport.Disconnect(peripheralID)
		return nil, err
	}
	go s.fanOutNotifications(notifications)

	if ledInfo, err := s.queryLedInfo(ctx, endpoints.Write); err != nil {
		log.Debug(fmt.Sprintf("session: led-info query to %s not answered: %v", peripheralID, err))
	} else if ledInfo != nil {
		log.Debug(fmt.Sprintf("session: led-info reply from %s: screen_type=%d fw=%s", peripheralID, ledInfo.ScreenType, FirmwareVersionString(ledInfo.MCUMajor, ledInfo.MCUMinor)))
		if reresolved, rerr := ResolveDeviceRoutingProfile(identity, override, ledInfo); rerr == nil {
			reresolved.Endpoints = endpoints
			s.Profile = reresolved
		}
	}

	log.Notice(fmt.Sprintf("session: opened %s (led_type=%v)", peripheralID, s.Profile.LedType))

	return s, nil
}

// queryLedInfo sends the LED-info query and waits up to
// ledInfoQueryTimeout for the reply, forwarding any other event it
// reads meanwhile back onto Events so Open doesn't drop notifications
// that arrive during the wait. A nil, nil return means no reply
// arrived in time; Open then keeps the profile resolved from the
// advertisement alone.
func (s *Session) queryLedInfo(ctx context.Context, writeChar uuid.UUID) (*LedInfoResponse, error) {
	frame, err := EncodeLedInfoQuery()
	if err != nil {
		return nil, err
	}
	if err := s.transport.Write(ctx, s.PeripheralID, writeChar, frame, false); err != nil {
		return nil, ErrWriteFailed
	}

	deadline := time.NewTimer(ledInfoQueryTimeout)
	defer deadline.Stop()

	var buffered []NotifyEvent
	defer func() {
		for _, ev := range buffered {
			select {
			case s.Events <- ev:
			default:
			}
		}
	}()

	for {
		select {
		case ev := <-s.Events:
			if ev.Kind == "LedInfo" {
				info := ev.LedInfo
				return &info, nil
			}
			buffered = append(buffered, ev)
		case <-deadline.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// fanOutNotifications decodes every raw notification and routes
// transfer-family events to the coordinator's channel, everything else
// to Events (§5 "Shared resources").
func (s *Session) fanOutNotifications(raw <-chan []byte) {
	for payload := range raw {
		ev := DecodeNotification(payload)
		switch ev.Family {
		case FamilyText, FamilyGif, FamilyImage, FamilyDIY, FamilyTimer, FamilySchedule, FamilyOTA:
			select {
			case s.transferEvents <- ev:
			default:
			}
		default:
			select {
			case s.Events <- ev:
			default:
			}
		}
	}
}

// Upload drives one logical payload through the transfer coordinator
// on this session's negotiated write endpoint.
func (s *Session) Upload(ctx context.Context, payload LogicalPayload, extraHeader []byte) error {
	return s.coordinator.Send(ctx, s.PeripheralID, s.writeCharacteristic(payload.Family), s.transferEvents, payload, s.negotiatedMTU, extraHeader)
}

func (s *Session) writeCharacteristic(family Family) uuid.UUID {
	if family == FamilyOTA && s.Profile.Endpoints.HasOTA {
		return s.Profile.Endpoints.OTAData
	}
	return s.Profile.Endpoints.Write
}

// Send writes a short control frame (brightness, colour, power, …)
// directly, bypassing the transfer coordinator.
func (s *Session) Send(ctx context.Context, frame []byte) error {
	if err := s.transport.Write(ctx, s.PeripheralID, s.Profile.Endpoints.Write, frame, false); err != nil {
		return ErrWriteFailed
	}
	return nil
}

// Close disconnects the underlying transport.
func (s *Session) Close() error {
	return s.transport.Disconnect(s.PeripheralID)
}
