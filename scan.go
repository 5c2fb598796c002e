package idm

import (
	"context"
	"fmt"
)

// ScanIdentity is extracted from the manufacturer-specific AD record of
// a device advertisement (§3 "ScanIdentity", §4.1).
type ScanIdentity struct {
	Signature     [4]byte
	Shape         int8
	GroupID       byte
	DeviceID      byte
	Reverse       bool
	CID           byte
	PID           byte
	VersionMarker byte
	LampCount     *uint16
	LampNum       *uint16

	// RawManufacturerPayload is the matched AD-type-0xFF record body
	// (type byte included), kept for diagnostics regardless of parse
	// outcome.
	RawManufacturerPayload []byte
}

var signatureP = [4]byte{'T', 'R', 0x00, 'p'}
var signatureQ = [4]byte{'T', 'R', 0x00, 'q'}

const adTypeManufacturerData = 0xFF

// Wire offsets within the matched manufacturer-data record body
// (offset 0 is the AD type byte itself, per §4.1). The prose pins
// shape@5, cid@9, pid@10 and the two lamp fields at 11..12/13..14;
// group_id, device_id (with the reverse flag folded into its high
// bit) and version_marker fill the unpinned gap at offsets 6..8.
const (
	offsetSignature     = 1
	offsetShape         = 5
	offsetGroupID       = 6
	offsetDeviceID      = 7
	offsetVersionMarker = 8
	offsetCID           = 9
	offsetPID           = 10
	offsetLampCount     = 11
	offsetLampNum       = 13
)

const deviceIDReverseBit = 0x80

// ParseAdvertisement walks an AD-TLV stream looking for a
// manufacturer-specific record carrying the TR\0p/TR\0q signature
// (§4.1). A nil result with a nil error means "no matching device was
// advertising" — not finding a signature is not a failure, the
// scanner simply ignores non-matching devices.
func ParseAdvertisement(adv []byte) (identity *ScanIdentity, err error) {
	i := 0
	for i < len(adv) {
		length := int(adv[i])
		if length > 31 {
			return nil, ErrAdTlvGuardViolation
		}
		if length == 0 {
			i++
			continue
		}
		if i+1+length > len(adv) {
			// Malformed TLV: declared length runs past the buffer.
			return nil, nil
		}
		record := adv[i+1 : i+1+length]
		if len(record) > 0 && record[0] == adTypeManufacturerData {
			if parsed := tryParseManufacturerRecord(record); parsed != nil {
				return parsed, nil
			}
		}
		i += 1 + length
	}
	return nil, nil
}

func tryParseManufacturerRecord(record []byte) *ScanIdentity {
	if len(record) < offsetSignature+4 {
		return nil
	}
	var sig [4]byte
	copy(sig[:], record[offsetSignature:offsetSignature+4])
	if sig != signatureP && sig != signatureQ {
		return nil
	}

	id := &ScanIdentity{Signature: sig, RawManufacturerPayload: append([]byte(nil), record...)}

	if len(record) <= offsetShape {
		return nil // shape MUST be readable
	}
	id.Shape = int8(record[offsetShape])

	if len(record) > offsetGroupID {
		id.GroupID = record[offsetGroupID]
	}
	if len(record) > offsetDeviceID {
		raw := record[offsetDeviceID]
		id.Reverse = raw&deviceIDReverseBit != 0
		id.DeviceID = raw &^ deviceIDReverseBit
	}
	if len(record) > offsetVersionMarker {
		id.VersionMarker = record[offsetVersionMarker]
	}

	if len(record) <= offsetCID || len(record) <= offsetPID {
		return nil // cid/pid MUST be readable
	}
	id.CID = record[offsetCID]
	id.PID = record[offsetPID]

	if len(record) >= offsetLampCount+2 {
		v := uint16(record[offsetLampCount]) | uint16(record[offsetLampCount+1])<<8
		id.LampCount = &v
	}
	if len(record) >= offsetLampNum+2 {
		v := uint16(record[offsetLampNum]) | uint16(record[offsetLampNum+1])<<8
		id.LampNum = &v
	}
	return id
}

// EncodeAdvertisement rebuilds the manufacturer AD record for a
// ScanIdentity (type-length-value wrapper included), used by the
// round-trip test in §8's first testable property: re-encoding a
// valid ScanIdentity and re-parsing it must yield the same identity.
func EncodeAdvertisement(id ScanIdentity) []byte {
	body := make([]byte, 0, 15)
	body = append(body, adTypeManufacturerData)
	body = append(body, id.Signature[:]...)
	body = append(body, byte(id.Shape))
	body = append(body, id.GroupID)
	deviceByte := id.DeviceID &^ deviceIDReverseBit
	if id.Reverse {
		deviceByte |= deviceIDReverseBit
	}
	body = append(body, deviceByte)
	body = append(body, id.VersionMarker)
	body = append(body, id.CID, id.PID)
	if id.LampCount != nil {
		body = append(body, byte(*id.LampCount), byte(*id.LampCount>>8))
	}
	if id.LampNum != nil {
		body = append(body, byte(*id.LampNum), byte(*id.LampNum>>8))
	}
	record := append([]byte{byte(len(body))}, body...)
	return record
}

func (id *ScanIdentity) String() string {
	return fmt.Sprintf("ScanIdentity{shape=%d cid=%d pid=%d group=%d device=%d reverse=%v}",
		id.Shape, id.CID, id.PID, id.GroupID, id.DeviceID, id.Reverse)
}

// ScanResultEvent is one deduplicated, non-blocklisted advertisement
// surfaced by ScanLoop.
type ScanResultEvent struct {
	Result   ScanResult
	Identity ScanIdentity
}

// ScanLoop drives a Transport's scan, parses every advertisement,
// drops non-matching and blocklisted devices, and uses a ScanCache to
// suppress repeat emissions of an unchanged identity from the same
// peripheral (§4.2 "Scan loop"). It returns when the transport's scan
// ends or ctx is cancelled.
func ScanLoop(ctx context.Context, transport Transport, blocklist []string, out chan<- ScanResultEvent) error {
	cache, err := NewScanCache()
	if err != nil {
		return err
	}

	results := make(chan ScanResult, 16)
	scanErr := make(chan error, 1)
	go func() {
		scanErr <- transport.Scan(ctx, results)
		close(results)
	}()

	for {
		select {
		case r, ok := <-results:
			if !ok {
				return <-scanErr
			}
			identity, err := ParseAdvertisement(r.Advertisement)
			if err != nil {
				log.Debug(fmt.Sprintf("scan: malformed advertisement from %s: %v", r.PeripheralID, err))
				continue
			}
			if identity == nil {
				continue
			}
			if Blocklisted(*identity, blocklist) {
				log.Debug(fmt.Sprintf("scan: %s blocklisted, skipping", identity))
				continue
			}
			if cache.Seen(r.PeripheralID, identity) {
				continue
			}
			log.Debug(fmt.Sprintf("scan: new device %s: %s", r.PeripheralID, identity))
			select {
			case out <- ScanResultEvent{Result: r, Identity: *identity}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
