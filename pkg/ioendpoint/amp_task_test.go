package ioendpoint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb9vty/catmux/pkg/catproto"
	"github.com/kb9vty/catmux/pkg/mux"
	"github.com/kb9vty/catmux/pkg/transport"
)

func TestAmpTaskForwardsInboundRequestsAndAnswersViaWriter(t *testing.T) {
	actor, ctx := newTestActor(t)
	ampSide, taskSide := transport.NewDuplexPipe()
	t.Cleanup(func() { ampSide.Close(); taskSide.Close() })

	task := NewAmpTask(taskSide, actor)
	taskCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go task.Run(taskCtx)

	err := actor.ConnectAmplifier(ctx, catproto.AmplifierChannelMeta{Protocol: catproto.Kenwood}, task.Writer())
	require.NoError(t, err)

	_, err = ampSide.Write([]byte("ID;"))
	require.NoError(t, err)

	buf := make([]byte, 16)
	done := make(chan struct{})
	go func() {
		n, rerr := ampSide.Read(buf)
		require.NoError(t, rerr)
		assert.Equal(t, "ID022;", string(buf[:n]))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for amp ID answer")
	}
}

func TestAmpTaskDisconnectsOnStreamClose(t *testing.T) {
	actor, ctx := newTestActor(t)
	ampSide, taskSide := transport.NewDuplexPipe()
	t.Cleanup(func() { ampSide.Close() })

	task := NewAmpTask(taskSide, actor)
	taskCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go task.Run(taskCtx)

	err := actor.ConnectAmplifier(ctx, catproto.AmplifierChannelMeta{Protocol: catproto.Kenwood}, task.Writer())
	require.NoError(t, err)

	ampSide.Close()

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not exit after stream close")
	}

	drainEvent(t, actor, mux.EventAmpDisconnected)
}
