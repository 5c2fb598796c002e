package idm

import (
	"context"
	"sync"

	uuid "github.com/satori/go.uuid"
)

// FakeTransport is an in-memory Transport double for exercising the
// session and transfer coordinator without a real radio, in the same
// spirit as the teacher's mock transports that implement the production
// interface against canned behaviour instead of a live backend.
type FakeTransport struct {
	sync.Mutex

	Advertisements []ScanResult
	Characteristics map[string][]DiscoveredCharacteristic
	NegotiatedMTU   int

	// Writes records every Write call for assertions.
	Writes []FakeWrite

	// FailWrite, when set, is returned from every Write call instead of
	// recording it.
	FailWrite error

	notifyChans map[string]chan<- []byte
}

// FakeWrite is one recorded call to Write.
type FakeWrite struct {
	PeripheralID   string
	Characteristic uuid.UUID
	Data           []byte
	WithResponse   bool
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		Characteristics: map[string][]DiscoveredCharacteristic{},
		notifyChans:     map[string]chan<- []byte{},
	}
}

func (t *FakeTransport) Scan(ctx context.Context, results chan<- ScanResult) error {
	for _, r := range t.Advertisements {
		select {
		case results <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (t *FakeTransport) Connect(ctx context.Context, peripheralID string) error {
	return nil
}

func (t *FakeTransport) Disconnect(peripheralID string) error {
	t.Lock()
	defer t.Unlock()
	delete(t.notifyChans, peripheralID)
	return nil
}

func (t *FakeTransport) DiscoverCharacteristics(ctx context.Context, peripheralID string) ([]DiscoveredCharacteristic, error) {
	return t.Characteristics[peripheralID], nil
}

func (t *FakeTransport) Subscribe(ctx context.Context, peripheralID string, characteristic uuid.UUID, notifications chan<- []byte) error {
	t.Lock()
	defer t.Unlock()
	t.notifyChans[peripheralID] = notifications
	return nil
}

func (t *FakeTransport) Write(ctx context.Context, peripheralID string, characteristic uuid.UUID, data []byte, withResponse bool) error {
	t.Lock()
	defer t.Unlock()
	if t.FailWrite != nil {
		return t.FailWrite
	}
	t.Writes = append(t.Writes, FakeWrite{peripheralID, characteristic, append([]byte(nil), data...), withResponse})
	return nil
}

func (t *FakeTransport) NegotiateMTU(ctx context.Context, peripheralID string, preferred int) (int, error) {
	if t.NegotiatedMTU == 0 {
		return preferred, nil
	}
	return t.NegotiatedMTU, nil
}

// DeliverNotification pushes a notification to whatever Subscribe
// registered for peripheralID, for tests driving the decoder through a
// session.
func (t *FakeTransport) DeliverNotification(peripheralID string, payload []byte) {
	t.Lock()
	ch := t.notifyChans[peripheralID]
	t.Unlock()
	if ch != nil {
		ch <- payload
	}
}
