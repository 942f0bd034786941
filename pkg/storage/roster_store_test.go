package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kb9vty/catmux/pkg/catproto"
)

func TestNewRosterStore(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("Valid Store Creation", func(t *testing.T) {
		dbPath := filepath.Join(tempDir, "test.db")
		store, err := NewRosterStore(dbPath)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		defer store.Close()

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("expected database file to be created")
		}
	})

	t.Run("Store Creation with Nested Directory", func(t *testing.T) {
		dbPath := filepath.Join(tempDir, "nested", "dir", "test.db")
		store, err := NewRosterStore(dbPath)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		defer store.Close()

		if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
			t.Error("expected nested directory to be created")
		}
	})
}

func newTestRosterStore(t *testing.T) *RosterStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "roster.db")
	store, err := NewRosterStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create roster store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndListRadios(t *testing.T) {
	store := newTestRosterStore(t)

	civ := uint8(0x94)
	id, err := store.SaveRadio(catproto.RadioChannelMeta{
		DisplayName: "Main IC-7300",
		PortName:    "/dev/ttyUSB0",
		Protocol:    catproto.IcomCIV,
		CivAddress:  &civ,
	})
	if err != nil {
		t.Fatalf("SaveRadio failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero storage ID")
	}

	_, err = store.SaveRadio(catproto.RadioChannelMeta{
		DisplayName: "Backup TS-2000",
		Protocol:    catproto.Kenwood,
	})
	if err != nil {
		t.Fatalf("SaveRadio failed: %v", err)
	}

	radios, err := store.ListRadios()
	if err != nil {
		t.Fatalf("ListRadios failed: %v", err)
	}
	if len(radios) != 2 {
		t.Fatalf("expected 2 radios, got %d", len(radios))
	}
	if radios[0].Meta.DisplayName != "Main IC-7300" {
		t.Errorf("expected first radio to be Main IC-7300, got %s", radios[0].Meta.DisplayName)
	}
	if radios[0].Meta.CivAddress == nil || *radios[0].Meta.CivAddress != 0x94 {
		t.Error("expected CI-V address to round-trip")
	}
	if radios[1].Meta.Protocol != catproto.Kenwood {
		t.Errorf("expected second radio's protocol to be Kenwood, got %v", radios[1].Meta.Protocol)
	}
}

func TestDeleteRadio(t *testing.T) {
	store := newTestRosterStore(t)

	id, err := store.SaveRadio(catproto.RadioChannelMeta{DisplayName: "Temp", Protocol: catproto.Kenwood})
	if err != nil {
		t.Fatalf("SaveRadio failed: %v", err)
	}

	if err := store.DeleteRadio(id); err != nil {
		t.Fatalf("DeleteRadio failed: %v", err)
	}

	radios, err := store.ListRadios()
	if err != nil {
		t.Fatalf("ListRadios failed: %v", err)
	}
	if len(radios) != 0 {
		t.Fatalf("expected no radios after delete, got %d", len(radios))
	}
}

func TestAmplifierRoundTrip(t *testing.T) {
	store := newTestRosterStore(t)

	if _, ok, err := store.LoadAmplifier(); err != nil || ok {
		t.Fatalf("expected no amplifier configured yet, ok=%v err=%v", ok, err)
	}

	civ := uint8(0x58)
	err := store.SaveAmplifier(catproto.AmplifierChannelMeta{
		Protocol:   catproto.IcomCIV,
		BaudRate:   19200,
		CivAddress: &civ,
	})
	if err != nil {
		t.Fatalf("SaveAmplifier failed: %v", err)
	}

	meta, ok, err := store.LoadAmplifier()
	if err != nil {
		t.Fatalf("LoadAmplifier failed: %v", err)
	}
	if !ok {
		t.Fatal("expected amplifier to be found")
	}
	if meta.Protocol != catproto.IcomCIV || meta.BaudRate != 19200 {
		t.Errorf("unexpected amplifier meta: %+v", meta)
	}
	if meta.CivAddress == nil || *meta.CivAddress != 0x58 {
		t.Error("expected CI-V address to round-trip")
	}

	// Saving again should update, not duplicate, the single row.
	err = store.SaveAmplifier(catproto.AmplifierChannelMeta{Protocol: catproto.Yaesu, BaudRate: 4800})
	if err != nil {
		t.Fatalf("SaveAmplifier (update) failed: %v", err)
	}
	meta, ok, err = store.LoadAmplifier()
	if err != nil || !ok {
		t.Fatalf("LoadAmplifier after update failed: ok=%v err=%v", ok, err)
	}
	if meta.Protocol != catproto.Yaesu || meta.BaudRate != 4800 {
		t.Errorf("expected updated amplifier meta, got %+v", meta)
	}

	if err := store.DeleteAmplifier(); err != nil {
		t.Fatalf("DeleteAmplifier failed: %v", err)
	}
	if _, ok, err := store.LoadAmplifier(); err != nil || ok {
		t.Fatalf("expected no amplifier after delete, ok=%v err=%v", ok, err)
	}
}
