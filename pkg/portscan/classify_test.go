package portscan

import "testing"

func TestClassifyKnownRadio(t *testing.T) {
	cls, hint := classify(0x0C26, 0x0036, true)
	if cls != KnownRadio {
		t.Fatalf("expected KnownRadio, got %v", cls)
	}
	if hint == "" {
		t.Fatal("expected a non-empty classification hint")
	}
}

func TestClassifyKnownAdapter(t *testing.T) {
	cls, _ := classify(0x0403, 0x6001, true)
	if cls != KnownAdapter {
		t.Fatalf("expected KnownAdapter, got %v", cls)
	}
	if cls.IsSafeToProbe() {
		t.Fatal("a generic USB adapter must not be auto-probed")
	}
}

func TestClassifyUnknownWithoutUSB(t *testing.T) {
	cls, _ := classify(0, 0, false)
	if cls != Unknown {
		t.Fatalf("expected Unknown, got %v", cls)
	}
}

func TestKnownRadioIsSafeToProbe(t *testing.T) {
	if !KnownRadio.IsSafeToProbe() {
		t.Fatal("a known radio VID/PID should be considered safe to auto-probe")
	}
}
