package mux

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb9vty/catmux/pkg/catproto"
	"github.com/kb9vty/catmux/pkg/translate"
)

func newTestActor(t *testing.T) (*Actor, context.Context) {
	t.Helper()
	a := NewActor(500, translate.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go a.Run(ctx)
	return a, ctx
}

func drainEvent(t *testing.T, a *Actor, kind EventKind) Event {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case e := <-a.Events():
			if e.Kind == kind {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %s", kind)
		}
	}
}

func TestColdRegister(t *testing.T) {
	a, ctx := newTestActor(t)
	h, err := a.RegisterRadio(ctx, catproto.RadioChannelMeta{DisplayName: "VR1", Protocol: catproto.Kenwood})
	require.NoError(t, err)
	assert.Equal(t, catproto.RadioHandle(1), h)

	ev := drainEvent(t, a, EventRadioConnected)
	assert.Equal(t, h, ev.Handle)

	state, err := a.QueryRadioState(ctx, h)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Nil(t, state.FrequencyHz)
}

func TestFrequencyReportNoAmp(t *testing.T) {
	a, ctx := newTestActor(t)
	h, err := a.RegisterRadio(ctx, catproto.RadioChannelMeta{DisplayName: "VR1", Protocol: catproto.Kenwood})
	require.NoError(t, err)
	drainEvent(t, a, EventRadioConnected)

	require.NoError(t, a.SetActiveRadio(ctx, h))
	drainEvent(t, a, EventActiveRadioChanged)

	require.NoError(t, a.FeedRadioBytes(ctx, h, []byte("FA00014250000;")))
	ev := drainEvent(t, a, EventRadioStateChanged)
	require.NotNil(t, ev.FrequencyHz)
	assert.Equal(t, uint64(14_250_000), *ev.FrequencyHz)
}

func TestManualModeNeverAutoSwitches(t *testing.T) {
	a, ctx := newTestActor(t)
	h1, _ := a.RegisterRadio(ctx, catproto.RadioChannelMeta{Protocol: catproto.Kenwood})
	drainEvent(t, a, EventRadioConnected)
	h2, _ := a.RegisterRadio(ctx, catproto.RadioChannelMeta{Protocol: catproto.Kenwood})
	drainEvent(t, a, EventRadioConnected)

	require.NoError(t, a.SetActiveRadio(ctx, h1))
	drainEvent(t, a, EventActiveRadioChanged)

	require.NoError(t, a.FeedRadioBytes(ctx, h2, []byte("FA00014250000;")))
	select {
	case ev := <-a.Events():
		assert.NotEqual(t, EventActiveRadioChanged, ev.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFrequencyTriggeredSwitchesWithZeroLockout(t *testing.T) {
	a := NewActor(0, translate.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	require.NoError(t, a.SetSwitchingMode(ctx, FrequencyTriggered))
	drainEvent(t, a, EventSwitchingModeChanged)

	h, _ := a.RegisterRadio(ctx, catproto.RadioChannelMeta{Protocol: catproto.Kenwood})
	drainEvent(t, a, EventRadioConnected)

	require.NoError(t, a.FeedRadioBytes(ctx, h, []byte("FA00014250000;")))
	drainEvent(t, a, EventRadioStateChanged)
	ev := drainEvent(t, a, EventActiveRadioChanged)
	assert.Equal(t, h, ev.To)
}

func TestSwitchingLockoutBlocks(t *testing.T) {
	a := NewActor(500, translate.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)
	require.NoError(t, a.SetSwitchingMode(ctx, FrequencyTriggered))
	drainEvent(t, a, EventSwitchingModeChanged)

	h1, _ := a.RegisterRadio(ctx, catproto.RadioChannelMeta{Protocol: catproto.Kenwood})
	drainEvent(t, a, EventRadioConnected)
	h2, _ := a.RegisterRadio(ctx, catproto.RadioChannelMeta{Protocol: catproto.Kenwood})
	drainEvent(t, a, EventRadioConnected)

	require.NoError(t, a.FeedRadioBytes(ctx, h1, []byte("FA00014250000;")))
	drainEvent(t, a, EventRadioStateChanged)
	ev := drainEvent(t, a, EventActiveRadioChanged)
	assert.Equal(t, h1, ev.To)

	require.NoError(t, a.FeedRadioBytes(ctx, h2, []byte("FA00007074000;")))
	drainEvent(t, a, EventRadioStateChanged)
	blocked := drainEvent(t, a, EventSwitchingBlocked)
	assert.Equal(t, h2, blocked.Requested)
	assert.Equal(t, h1, blocked.Current)
	assert.Greater(t, blocked.RemainingMs, int64(0))
}

func TestAmpForwardingWithAutoInfo(t *testing.T) {
	a, ctx := newTestActor(t)
	var written [][]byte
	require.NoError(t, a.ConnectAmplifier(ctx, catproto.AmplifierChannelMeta{Protocol: catproto.Kenwood}, func(b []byte) {
		written = append(written, append([]byte(nil), b...))
	}))
	drainEvent(t, a, EventAmpConnected)

	h, _ := a.RegisterRadio(ctx, catproto.RadioChannelMeta{Protocol: catproto.Kenwood})
	drainEvent(t, a, EventRadioConnected)
	require.NoError(t, a.SetActiveRadio(ctx, h))
	drainEvent(t, a, EventActiveRadioChanged)

	require.NoError(t, a.FeedAmpBytes(ctx, []byte("AI2;")))
	drainEvent(t, a, EventAmpDataIn)
	assert.Empty(t, written, "no shadow state yet, so AI2; seeding must be a no-op")

	require.NoError(t, a.FeedRadioBytes(ctx, h, []byte("FA00007074000;")))
	drainEvent(t, a, EventRadioStateChanged)
	ev := drainEvent(t, a, EventAmpDataOut)
	assert.Contains(t, string(ev.Bytes), "FA00007074000")
	require.Len(t, written, 1)
	assert.Contains(t, string(written[0]), "FA00007074000")
}

func TestAmpQueryWithoutStateProducesNoOutput(t *testing.T) {
	a, ctx := newTestActor(t)
	require.NoError(t, a.ConnectAmplifier(ctx, catproto.AmplifierChannelMeta{Protocol: catproto.Kenwood}, func([]byte) {
		t.Fatalf("amp should not receive any bytes")
	}))
	drainEvent(t, a, EventAmpConnected)

	require.NoError(t, a.FeedAmpBytes(ctx, []byte("FA;")))
	drainEvent(t, a, EventAmpDataIn)
}

func TestAmpIdQueryAlwaysAnswers(t *testing.T) {
	a, ctx := newTestActor(t)
	var written []byte
	require.NoError(t, a.ConnectAmplifier(ctx, catproto.AmplifierChannelMeta{Protocol: catproto.Kenwood}, func(b []byte) {
		written = b
	}))
	drainEvent(t, a, EventAmpConnected)

	require.NoError(t, a.FeedAmpBytes(ctx, []byte("ID;")))
	drainEvent(t, a, EventAmpDataIn)
	drainEvent(t, a, EventAmpDataOut)
	assert.Equal(t, "ID022;", string(written))
}

func TestShadowResetOnAmplifierDisconnect(t *testing.T) {
	a, ctx := newTestActor(t)
	h, _ := a.RegisterRadio(ctx, catproto.RadioChannelMeta{Protocol: catproto.Kenwood})
	drainEvent(t, a, EventRadioConnected)
	require.NoError(t, a.SetActiveRadio(ctx, h))
	drainEvent(t, a, EventActiveRadioChanged)

	require.NoError(t, a.ConnectAmplifier(ctx, catproto.AmplifierChannelMeta{Protocol: catproto.Kenwood}, func([]byte) {}))
	drainEvent(t, a, EventAmpConnected)
	require.NoError(t, a.FeedAmpBytes(ctx, []byte("AI2;")))
	drainEvent(t, a, EventAmpDataIn)
	require.NoError(t, a.FeedRadioBytes(ctx, h, []byte("FA00014250000;")))
	drainEvent(t, a, EventAmpDataOut)

	require.NoError(t, a.DisconnectAmplifier(ctx))
	drainEvent(t, a, EventAmpDisconnected)

	var written [][]byte
	require.NoError(t, a.ConnectAmplifier(ctx, catproto.AmplifierChannelMeta{Protocol: catproto.Kenwood}, func(b []byte) {
		written = append(written, append([]byte(nil), b...))
	}))
	drainEvent(t, a, EventAmpConnected)

	// The shadow frequency was known before the disconnect; afterwards a
	// frequency query must go unanswered. The ID query that follows is
	// always answered, so its output marks that FA; has been processed.
	require.NoError(t, a.FeedAmpBytes(ctx, []byte("FA;ID;")))
	drainEvent(t, a, EventAmpDataOut)
	require.Len(t, written, 1)
	assert.Equal(t, "ID022;", string(written[0]))
}

func TestCbTbInferenceVfoTransitions(t *testing.T) {
	a, ctx := newTestActor(t)
	h, _ := a.RegisterRadio(ctx, catproto.RadioChannelMeta{Protocol: catproto.Kenwood})
	drainEvent(t, a, EventRadioConnected)
	require.NoError(t, a.SetActiveRadio(ctx, h))
	drainEvent(t, a, EventActiveRadioChanged)

	require.NoError(t, a.ConnectAmplifier(ctx, catproto.AmplifierChannelMeta{Protocol: catproto.Kenwood}, func([]byte) {}))
	drainEvent(t, a, EventAmpConnected)

	require.NoError(t, a.FeedRadioBytes(ctx, h, []byte("FR0;")))
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, a.FeedAmpBytes(ctx, []byte("CB;")))
	drainEvent(t, a, EventAmpDataIn)
	ev := drainEvent(t, a, EventAmpDataOut)
	assert.Equal(t, "CB0;", string(ev.Bytes))
}
