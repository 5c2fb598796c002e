package idm

import "testing"

func TestFileOverrideStoreSaveLoadDelete(t *testing.T) {
	t.Setenv("IDM_HOME", t.TempDir())
	store := FileOverrideStore{}

	if _, ok, err := store.LoadOverride("AA:BB:CC:DD:EE:FF"); err != nil || ok {
		t.Fatalf("ok=%v err=%v, want a miss with no error for an unsaved MAC", ok, err)
	}

	if err := store.SaveOverride("AA:BB:CC:DD:EE:FF", LedType64x64); err != nil {
		t.Fatal(err)
	}

	led, ok, err := store.LoadOverride("AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || led != LedType64x64 {
		t.Fatalf("got led=%v ok=%v, want %v/true", led, ok, LedType64x64)
	}

	if err := store.DeleteOverride("AA:BB:CC:DD:EE:FF"); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := store.LoadOverride("AA:BB:CC:DD:EE:FF"); err != nil || ok {
		t.Fatalf("ok=%v err=%v, want a miss after delete", ok, err)
	}
}

func TestFileOverrideStoreDeleteMissingIsNotAnError(t *testing.T) {
	t.Setenv("IDM_HOME", t.TempDir())
	store := FileOverrideStore{}
	if err := store.DeleteOverride("never-saved"); err != nil {
		t.Fatalf("deleting a never-saved override should not error, got %v", err)
	}
}

func TestNoOverrideStoreAlwaysMisses(t *testing.T) {
	store := NoOverrideStore{}
	if _, ok, err := store.LoadOverride("anything"); err != nil || ok {
		t.Fatalf("ok=%v err=%v, want always-miss", ok, err)
	}
	if err := store.SaveOverride("anything", LedType16x16); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteOverride("anything"); err != nil {
		t.Fatal(err)
	}
}
