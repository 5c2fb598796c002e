// +build linux

// Package bletransport implements idm.Transport against a real BLE
// radio, grounded on paypal/gatt's callback-based central role
// (examples/explorer.go, examples/discoverer.go). It bridges gatt's
// stateChanged/PeripheralDiscovered/PeripheralConnected callbacks into
// the context-and-channel shape idm.Transport expects.
package bletransport

import (
	"context"
	"fmt"
	"sync"

	"github.com/paypal/gatt"
	"github.com/paypal/gatt/examples/option"
	uuid "github.com/satori/go.uuid"

	"github.com/underwhelmingperformance/idm"
)

// GattTransport is the Linux idm.Transport backing implementation.
type GattTransport struct {
	mu   sync.Mutex
	dev  gatt.Device
	ready chan struct{}

	peripherals map[string]gatt.Peripheral
	chars       map[string]map[uuid.UUID]*gatt.Characteristic

	connected   map[string]chan error
	notifyChans map[string]chan<- []byte

	currentScanChan chan<- idm.ScanResult
}

// NewGattTransport opens the local Bluetooth adapter as a GATT central.
func NewGattTransport() (*GattTransport, error) {
	t := &GattTransport{
		ready:       make(chan struct{}),
		peripherals: map[string]gatt.Peripheral{},
		chars:       map[string]map[uuid.UUID]*gatt.Characteristic{},
		connected:   map[string]chan error{},
		notifyChans: map[string]chan<- []byte{},
	}
	dev, err := gatt.NewDevice(option.DefaultClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("opening local BLE adapter: %w", err)
	}
	t.dev = dev
	dev.Handle(
		gatt.PeripheralDiscovered(t.onDiscovered),
		gatt.PeripheralConnected(t.onConnected),
		gatt.PeripheralDisconnected(t.onDisconnected),
	)
	dev.Init(t.onStateChanged)
	return t, nil
}

func (t *GattTransport) onStateChanged(d gatt.Device, s gatt.State) {
	if s == gatt.StatePoweredOn {
		close(t.ready)
	}
}

var _ idm.Transport = (*GattTransport)(nil)

func (t *GattTransport) onDiscovered(p gatt.Peripheral, a *gatt.Advertisement, rssi int) {
	t.mu.Lock()
	t.peripherals[p.ID()] = p
	ch := t.currentScanChan
	t.mu.Unlock()
	if ch == nil {
		return
	}
	// gatt strips the AD length and type bytes from ManufacturerData;
	// restore them so the result is an AD-TLV record ParseAdvertisement
	// can walk.
	adv := append([]byte{byte(len(a.ManufacturerData) + 1), 0xFF}, a.ManufacturerData...)
	ch <- idm.ScanResult{
		PeripheralID:  p.ID(),
		RSSI:          rssi,
		Advertisement: adv,
	}
}

func (t *GattTransport) onConnected(p gatt.Peripheral, err error) {
	t.mu.Lock()
	ch, ok := t.connected[p.ID()]
	t.mu.Unlock()
	if ok {
		ch <- err
	}
}

func (t *GattTransport) onDisconnected(p gatt.Peripheral, err error) {
	t.mu.Lock()
	delete(t.peripherals, p.ID())
	delete(t.chars, p.ID())
	t.mu.Unlock()
}

func (t *GattTransport) Scan(ctx context.Context, results chan<- idm.ScanResult) error {
	select {
	case <-t.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	t.mu.Lock()
	t.currentScanChan = results
	t.mu.Unlock()
	t.dev.Scan(nil, false)
	defer t.dev.StopScanning()

	<-ctx.Done()
	return ctx.Err()
}

func (t *GattTransport) Connect(ctx context.Context, peripheralID string) error {
	t.mu.Lock()
	p, ok := t.peripherals[peripheralID]
	if ok {
		t.connected[peripheralID] = make(chan error, 1)
	}
	t.mu.Unlock()
	if !ok {
		return idm.ErrConnectFailed
	}

	t.dev.Connect(p)
	select {
	case err := <-t.connected[peripheralID]:
		if err != nil {
			return idm.ErrConnectFailed
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *GattTransport) Disconnect(peripheralID string) error {
	t.mu.Lock()
	p, ok := t.peripherals[peripheralID]
	t.mu.Unlock()
	if !ok {
		return nil
	}
	t.dev.CancelConnection(p)
	return nil
}

func (t *GattTransport) DiscoverCharacteristics(ctx context.Context, peripheralID string) ([]idm.DiscoveredCharacteristic, error) {
	t.mu.Lock()
	p, ok := t.peripherals[peripheralID]
	t.mu.Unlock()
	if !ok {
		return nil, idm.ErrConnectFailed
	}

	services, err := p.DiscoverServices(nil)
	if err != nil {
		return nil, idm.ErrConnectFailed
	}

	byUUID := map[uuid.UUID]*gatt.Characteristic{}
	var out []idm.DiscoveredCharacteristic
	for _, svc := range services {
		svcUUID, uerr := uuid.FromString(svc.UUID().String())
		if uerr != nil {
			continue
		}
		chars, err := p.DiscoverCharacteristics(nil, svc)
		if err != nil {
			continue
		}
		for _, c := range chars {
			cUUID, uerr := uuid.FromString(c.UUID().String())
			if uerr != nil {
				continue
			}
			byUUID[cUUID] = c
			props := c.Properties()
			out = append(out, idm.DiscoveredCharacteristic{
				Service:        svcUUID,
				Characteristic: cUUID,
				Notify:         props&gatt.CharNotify != 0,
				Indicate:       props&gatt.CharIndicate != 0,
				Write:          props&(gatt.CharWrite|gatt.CharWriteNR) != 0,
			})
		}
	}
	t.mu.Lock()
	t.chars[peripheralID] = byUUID
	t.mu.Unlock()
	return out, nil
}

func (t *GattTransport) Subscribe(ctx context.Context, peripheralID string, characteristic uuid.UUID, notifications chan<- []byte) error {
	t.mu.Lock()
	p, pok := t.peripherals[peripheralID]
	c, cok := t.chars[peripheralID][characteristic]
	t.notifyChans[peripheralID] = notifications
	t.mu.Unlock()
	if !pok || !cok {
		return idm.ErrConnectFailed
	}
	return p.SetNotifyValue(c, func(_ *gatt.Characteristic, b []byte, err error) {
		if err != nil {
			return
		}
		notifications <- b
	})
}

func (t *GattTransport) Write(ctx context.Context, peripheralID string, characteristic uuid.UUID, data []byte, withResponse bool) error {
	t.mu.Lock()
	p, pok := t.peripherals[peripheralID]
	c, cok := t.chars[peripheralID][characteristic]
	t.mu.Unlock()
	if !pok || !cok {
		return idm.ErrWriteFailed
	}
	if err := p.WriteCharacteristic(c, data, !withResponse); err != nil {
		return idm.ErrWriteFailed
	}
	return nil
}

// NegotiateMTU: paypal/gatt's Linux central role does not expose
// explicit MTU exchange to the caller, so this reports the preferred
// value unchanged and never returns an error. The session's 18-byte
// fragment fallback is therefore not triggered by this transport; a
// write the device rejects fails the transfer with idm.ErrWriteFailed.
func (t *GattTransport) NegotiateMTU(ctx context.Context, peripheralID string, preferred int) (int, error) {
	return preferred, nil
}
