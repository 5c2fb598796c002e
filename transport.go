package idm

import (
	"context"

	uuid "github.com/satori/go.uuid"
)

// ScanResult is one advertisement observed by a Transport's scan, bundling
// the raw bytes a caller can feed to ParseAdvertisement with the radio
// metadata needed to pick a device out of a crowd (§6 "Transport
// capability (consumed)").
type ScanResult struct {
	PeripheralID string
	RSSI         int
	Advertisement []byte
}

// Transport is the BLE capability this library consumes; it never owns
// a concrete GATT stack itself (§6). A production binary wires a real
// implementation (for example one backed by paypal/gatt on Linux);
// tests wire transport_fake.go's in-memory double.
type Transport interface {
	Scan(ctx context.Context, results chan<- ScanResult) error
	Connect(ctx context.Context, peripheralID string) error
	Disconnect(peripheralID string) error
	DiscoverCharacteristics(ctx context.Context, peripheralID string) ([]DiscoveredCharacteristic, error)
	Subscribe(ctx context.Context, peripheralID string, characteristic uuid.UUID, notifications chan<- []byte) error
	Write(ctx context.Context, peripheralID string, characteristic uuid.UUID, data []byte, withResponse bool) error
	NegotiateMTU(ctx context.Context, peripheralID string, preferred int) (negotiated int, err error)
}
