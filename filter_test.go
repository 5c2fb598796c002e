package idm

import "testing"

func TestBlocklistedMatchesCIDPID(t *testing.T) {
	id := ScanIdentity{CID: 4, PID: 7}
	blocklist := []string{"000300", "000407"}
	if !Blocklisted(id, blocklist) {
		t.Fatal("expected the cid=4/pid=7 entry to match the blocklist")
	}
}

func TestBlocklistedNoMatch(t *testing.T) {
	id := ScanIdentity{CID: 4, PID: 7}
	blocklist := []string{"000100", "000902"}
	if Blocklisted(id, blocklist) {
		t.Fatal("did not expect a match against an unrelated blocklist")
	}
}

func TestBlocklistedEmptyList(t *testing.T) {
	id := ScanIdentity{CID: 1, PID: 1}
	if Blocklisted(id, nil) {
		t.Fatal("an empty blocklist should never match")
	}
}
