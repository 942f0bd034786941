// Package ioendpoint runs the per-endpoint I/O tasks that bridge a byte
// stream (real serial port or virtual duplex pipe) to the mux actor. A
// RadioTask owns one registered radio's stream; an AmpTask owns the single
// amplifier's stream. Neither parses protocol bytes itself — that stays
// the mux's job, per its ownership of the codec.
package ioendpoint

import (
	"context"
	"time"

	"github.com/kb9vty/catmux/pkg/catproto"
	"github.com/kb9vty/catmux/pkg/logging"
	"github.com/kb9vty/catmux/pkg/mux"
	"github.com/kb9vty/catmux/pkg/transport"
)

const readBufferSize = 256

// controlKind distinguishes the two things an owner can ask a running
// task to do: write bytes out, or stop.
type controlKind int

const (
	controlSendRaw controlKind = iota
	controlShutdown
)

type control struct {
	kind  controlKind
	bytes []byte
}

// RadioTask drives one registered radio's byte stream: reads are forwarded
// to the mux as CmdRadioRawData, and writes requested through SendRaw go
// out over the stream.
type RadioTask struct {
	handle catproto.RadioHandle
	stream transport.Stream
	actor  *mux.Actor
	ctrlCh chan control
	doneCh chan struct{}
}

// NewRadioTask builds a task for an already-registered radio handle.
// Registration (allocating the handle) happens before the task starts,
// since the mux needs the handle to exist before bytes can reference it.
func NewRadioTask(handle catproto.RadioHandle, stream transport.Stream, actor *mux.Actor) *RadioTask {
	return &RadioTask{
		handle: handle,
		stream: stream,
		actor:  actor,
		ctrlCh: make(chan control, 32),
		doneCh: make(chan struct{}),
	}
}

// SendRaw asks the task to write bytes to the radio and report them to the
// mux as outbound traffic. Non-blocking; drops (with a log) if the control
// queue is saturated, since a slow consumer should not stall the caller.
func (t *RadioTask) SendRaw(data []byte) {
	select {
	case t.ctrlCh <- control{kind: controlSendRaw, bytes: data}:
	default:
		logging.Warnf("ioendpoint", "radio %d control queue full, dropping outbound write", t.handle)
	}
}

// Shutdown asks the task to stop. It does not block; use Done to wait.
func (t *RadioTask) Shutdown() {
	select {
	case t.ctrlCh <- control{kind: controlShutdown}:
	default:
	}
}

// Done reports when the task's run loop has exited.
func (t *RadioTask) Done() <-chan struct{} { return t.doneCh }

// Run performs the initialization sequence, then loops forwarding stream
// reads to the mux and applying control requests until the stream closes,
// a read error occurs, or ctx is cancelled.
func (t *RadioTask) Run(ctx context.Context, init InitSequence) {
	defer close(t.doneCh)

	if init.enabled() {
		t.runInitSequence(ctx, init)
	}

	rawCh := make(chan []byte, 16)
	errCh := make(chan error, 1)
	go t.readLoop(ctx, rawCh, errCh)

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-rawCh:
			if err := t.actor.FeedRadioBytes(ctx, t.handle, data); err != nil {
				return
			}
		case err := <-errCh:
			if err != nil {
				logging.Warnf("ioendpoint", "radio %d stream ended: %v", t.handle, err)
			}
			t.actor.UnregisterRadio(ctx, t.handle)
			return
		case c := <-t.ctrlCh:
			switch c.kind {
			case controlSendRaw:
				if _, err := t.stream.Write(c.bytes); err != nil {
					logging.Warnf("ioendpoint", "radio %d write failed: %v", t.handle, err)
					continue
				}
				t.actor.NoteRadioBytesOut(t.handle, c.bytes)
			case controlShutdown:
				return
			}
		}
	}
}

// readLoop pushes whatever the stream yields onto rawCh until it errors or
// the task is cancelled, then reports the terminal error (nil on a clean
// EOF-style close) on errCh exactly once.
func (t *RadioTask) readLoop(ctx context.Context, out chan<- []byte, errCh chan<- error) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := t.stream.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case errCh <- err:
			case <-ctx.Done():
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// InitSequence configures the best-effort startup handshake performed
// before the main read/write loop begins: a settle delay, an ID query, an
// initial frequency/mode query, and enabling auto-info. The steps are
// written in that order with no per-step timeout, and no reply is awaited;
// a failed write is logged but never fatal, and the next step still runs.
// There is no CI-V address-set step.
// CivAddress is informational: the IcomCIV codec bakes the address into
// every encoded frame, so the caller building IDQuery/FrequencyQuery/
// ModeQuery from the configured catproto.Codec already reflects it here.
type InitSequence struct {
	Skip           bool
	SettleDelay    time.Duration
	CivAddress     *uint8
	EnableAutoInfo []byte // protocol-native bytes that turn on auto-info, if any
	IDQuery        []byte
	FrequencyQuery []byte
	ModeQuery      []byte
}

func (s InitSequence) enabled() bool { return !s.Skip }

func (t *RadioTask) runInitSequence(ctx context.Context, init InitSequence) {
	if init.SettleDelay > 0 {
		select {
		case <-time.After(init.SettleDelay):
		case <-ctx.Done():
			return
		}
	}

	steps := [][]byte{init.IDQuery, init.FrequencyQuery, init.ModeQuery, init.EnableAutoInfo}
	for _, bytes := range steps {
		if len(bytes) == 0 {
			continue
		}
		if err := t.writeStep(bytes); err != nil {
			logging.Debugf("ioendpoint", "radio %d init step failed: %v", t.handle, err)
		}
	}
}

func (t *RadioTask) writeStep(data []byte) error {
	_, err := t.stream.Write(data)
	if err == nil {
		t.actor.NoteRadioBytesOut(t.handle, data)
	}
	return err
}
