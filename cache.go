package idm

import (
	"bytes"

	lru "github.com/hashicorp/golang-lru"
)

// defaultScanCacheSize bounds how many recently-seen peripherals a
// scanner keeps deduplicated identities for; advertisement intervals
// are sub-second so without a cap a long scan would otherwise re-parse
// and re-emit the same device hundreds of times a minute.
const defaultScanCacheSize = 256

// ScanCache deduplicates repeat advertisements from the same
// peripheral during a scan, keyed by peripheral ID, so callers see one
// ScanIdentity per device per cache window rather than once per
// advertisement interval.
type ScanCache struct {
	cache *lru.Cache
}

func NewScanCache() (*ScanCache, error) {
	c, err := lru.New(defaultScanCacheSize)
	if err != nil {
		return nil, err
	}
	return &ScanCache{cache: c}, nil
}

// Seen reports whether peripheralID's current identity equals the
// last one cached for it, caching the new identity either way. Callers
// use this to suppress duplicate scan-result emission.
func (c *ScanCache) Seen(peripheralID string, identity *ScanIdentity) bool {
	prev, ok := c.cache.Get(peripheralID)
	c.cache.Add(peripheralID, identity)
	if !ok {
		return false
	}
	prevIdentity, ok := prev.(*ScanIdentity)
	if !ok || prevIdentity == nil || identity == nil {
		return false
	}
	return identitiesEqual(prevIdentity, identity)
}

func identitiesEqual(a, b *ScanIdentity) bool {
	if a.Signature != b.Signature || a.Shape != b.Shape || a.GroupID != b.GroupID ||
		a.DeviceID != b.DeviceID || a.Reverse != b.Reverse || a.CID != b.CID || a.PID != b.PID ||
		a.VersionMarker != b.VersionMarker {
		return false
	}
	if !uint16PtrEqual(a.LampCount, b.LampCount) || !uint16PtrEqual(a.LampNum, b.LampNum) {
		return false
	}
	return bytes.Equal(a.RawManufacturerPayload, b.RawManufacturerPayload)
}

func uint16PtrEqual(a, b *uint16) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (c *ScanCache) Purge() {
	c.cache.Purge()
}
