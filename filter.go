package idm

import "fmt"

// Blocklisted reports whether a scan result should be rejected per a
// user-supplied blocklist of "000{cid}0{pid}" strings (§4.2).
func Blocklisted(id ScanIdentity, blocklist []string) bool {
	key := fmt.Sprintf("000%d0%d", id.CID, id.PID)
	for _, entry := range blocklist {
		if entry == key {
			return true
		}
	}
	return false
}
