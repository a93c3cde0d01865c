package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnInlineDeliversSingleTerminalMessage(t *testing.T) {
	o := NewOrchestrator(WithRunner(Inline))
	h, err := Spawn(o, KindScan, 1, func(ctx context.Context, send func(string) bool) {
		send("done")
	})
	require.NoError(t, err)

	v, st := h.TryRecv()
	assert.Equal(t, Ready, st)
	assert.Equal(t, "done", v)

	_, st = h.TryRecv()
	assert.Equal(t, Disconnected, st)
}

func TestTryRecvEmptyWhileWorkerRuns(t *testing.T) {
	o := NewOrchestrator()
	release := make(chan struct{})
	h, err := Spawn(o, KindIndex, 1, func(ctx context.Context, send func(struct{}) bool) {
		<-release
		send(struct{}{})
	})
	require.NoError(t, err)

	_, st := h.TryRecv()
	assert.Equal(t, Empty, st)

	close(release)
	require.Eventually(t, func() bool {
		_, st := h.TryRecv()
		return st == Ready
	}, time.Second, 5*time.Millisecond)
}

func TestWorkerThatSendsNothingReadsAsDisconnected(t *testing.T) {
	o := NewOrchestrator(WithRunner(Inline))
	h, err := Spawn(o, KindScan, 1, func(ctx context.Context, send func(int) bool) {})
	require.NoError(t, err)

	_, st := h.TryRecv()
	assert.Equal(t, Disconnected, st)
}

func TestPanickingWorkerReadsAsDisconnected(t *testing.T) {
	o := NewOrchestrator(WithRunner(Inline))
	h, err := Spawn(o, KindRelated, 1, func(ctx context.Context, send func(int) bool) {
		panic("boom")
	})
	require.NoError(t, err)

	_, st := h.TryRecv()
	assert.Equal(t, Disconnected, st)
}

func TestSpawnRefusesSecondHandleOfSameKind(t *testing.T) {
	o := NewOrchestrator(WithRunner(Inline))
	first, err := Spawn(o, KindRelated, 1, func(ctx context.Context, send func(int) bool) { send(1) })
	require.NoError(t, err)
	assert.True(t, o.Busy(KindRelated))

	_, err = Spawn(o, KindRelated, 1, func(ctx context.Context, send func(int) bool) { send(2) })
	assert.True(t, errors.Is(err, ErrBusy))

	_, err = Spawn(o, KindScan, 1, func(ctx context.Context, send func(int) bool) { send(3) })
	assert.NoError(t, err, "other kinds are independent")

	first.Release()
	assert.False(t, o.Busy(KindRelated))
	_, err = Spawn(o, KindRelated, 1, func(ctx context.Context, send func(int) bool) { send(4) })
	assert.NoError(t, err)
}

func TestStreamPreservesSendOrder(t *testing.T) {
	o := NewOrchestrator(WithRunner(Inline))
	h, err := Spawn(o, KindVectorIndex, 8, func(ctx context.Context, send func(string) bool) {
		send("a")
		send("b")
		send("SUCCESS")
	})
	require.NoError(t, err)

	var got []string
	for {
		v, st := h.TryRecv()
		if st != Ready {
			assert.Equal(t, Disconnected, st)
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b", "SUCCESS"}, got)
}

func TestCancelStopsWorkerAndFreesSlot(t *testing.T) {
	o := NewOrchestrator()
	started := make(chan struct{})
	sent := make(chan bool, 1)
	h, err := Spawn(o, KindRelated, 1, func(ctx context.Context, send func(int) bool) {
		close(started)
		<-ctx.Done()
		sent <- send(1)
	})
	require.NoError(t, err)
	<-started

	h.Cancel()
	assert.False(t, o.Busy(KindRelated))
	assert.False(t, <-sent, "send after cancel must report false")
	o.Wait()
}

func TestShutdownCancelsOutstandingWorkers(t *testing.T) {
	o := NewOrchestrator()
	_, err := Spawn(o, KindVectorIndex, 1, func(ctx context.Context, send func(string) bool) {
		<-ctx.Done()
	})
	require.NoError(t, err)
	o.Shutdown()

	done := make(chan struct{})
	go func() {
		o.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not exit after shutdown")
	}
}

func TestNilHandleIsDisconnected(t *testing.T) {
	var h *Handle[int]
	_, st := h.TryRecv()
	assert.Equal(t, Disconnected, st)
	h.Release()
	h.Cancel()
}

func TestKindAndStatusStrings(t *testing.T) {
	assert.Equal(t, "vector-index", KindVectorIndex.String())
	assert.Equal(t, "disconnected", Disconnected.String())
}
