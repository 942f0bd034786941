package ioendpoint

import (
	"context"

	"github.com/kb9vty/catmux/pkg/logging"
	"github.com/kb9vty/catmux/pkg/mux"
	"github.com/kb9vty/catmux/pkg/transport"
)

// AmpTask drives the amplifier's byte stream. Structurally identical to
// RadioTask's read loop, but there is at most one amp and its outbound
// bytes are driven entirely by the mux's translation engine (via the
// writer callback passed to ConnectAmplifier), not by a caller-facing
// SendRaw method.
type AmpTask struct {
	stream transport.Stream
	actor  *mux.Actor
	ctrlCh chan control
	doneCh chan struct{}
}

// NewAmpTask builds a task for the amplifier stream. The caller is
// expected to have already called actor.ConnectAmplifier with a writer
// that forwards to this task's stream (see Writer).
func NewAmpTask(stream transport.Stream, actor *mux.Actor) *AmpTask {
	return &AmpTask{
		stream: stream,
		actor:  actor,
		ctrlCh: make(chan control, 64),
		doneCh: make(chan struct{}),
	}
}

// Writer returns the callback to hand to Actor.ConnectAmplifier: the mux
// calls this from its own goroutine whenever it has bytes to send to the
// amp, and this task serializes the actual stream write through its
// control channel so writes never race with the read loop's use of the
// same stream.
func (t *AmpTask) Writer() func([]byte) {
	return func(data []byte) {
		select {
		case t.ctrlCh <- control{kind: controlSendRaw, bytes: data}:
		default:
			logging.Warnf("ioendpoint", "amp control queue full, dropping outbound write")
		}
	}
}

// Shutdown asks the task to stop.
func (t *AmpTask) Shutdown() {
	select {
	case t.ctrlCh <- control{kind: controlShutdown}:
	default:
	}
}

// Done reports when the task's run loop has exited.
func (t *AmpTask) Done() <-chan struct{} { return t.doneCh }

// Run loops forwarding stream reads to the mux as amp requests and
// applying writer-driven sends, until the stream closes, a read error
// occurs, or ctx is cancelled.
func (t *AmpTask) Run(ctx context.Context) {
	defer close(t.doneCh)

	rawCh := make(chan []byte, 16)
	errCh := make(chan error, 1)
	go t.readLoop(ctx, rawCh, errCh)

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-rawCh:
			if err := t.actor.FeedAmpBytes(ctx, data); err != nil {
				return
			}
		case err := <-errCh:
			if err != nil {
				logging.Warnf("ioendpoint", "amp stream ended: %v", err)
			}
			t.actor.DisconnectAmplifier(ctx)
			return
		case c := <-t.ctrlCh:
			switch c.kind {
			case controlSendRaw:
				if _, err := t.stream.Write(c.bytes); err != nil {
					logging.Warnf("ioendpoint", "amp write failed: %v", err)
				}
			case controlShutdown:
				return
			}
		}
	}
}

func (t *AmpTask) readLoop(ctx context.Context, out chan<- []byte, errCh chan<- error) {
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
