package transport

import (
	"testing"
	"time"
)

func TestDuplexPipeRoundTrip(t *testing.T) {
	a, b := NewDuplexPipe()
	defer a.Close()
	defer b.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 16)
		n, err := b.Read(buf)
		if err != nil {
			t.Errorf("unexpected read error: %v", err)
			return
		}
		if string(buf[:n]) != "FA00014250000;" {
			t.Errorf("got %q", buf[:n])
		}
	}()

	if _, err := a.Write([]byte("FA00014250000;")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for read")
	}
}

func TestDuplexPipeIsBidirectional(t *testing.T) {
	a, b := NewDuplexPipe()
	defer a.Close()
	defer b.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 8)
		n, err := a.Read(buf)
		if err != nil {
			t.Errorf("unexpected read error: %v", err)
			return
		}
		if string(buf[:n]) != "ID022;" {
			t.Errorf("got %q", buf[:n])
		}
	}()

	if _, err := b.Write([]byte("ID022;")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for read")
	}
}
