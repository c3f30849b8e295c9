package bridge_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md4h/prosedown/internal/bridge"
)

func TestCorrelatorResolve(t *testing.T) {
	c := bridge.NewCorrelator()

	var got string
	id := c.Track(bridge.KindSearchFiles, 0, func(payload json.RawMessage) {
		got = string(payload)
	}, nil)

	require.True(t, c.Pending(bridge.KindSearchFiles))
	assert.True(t, c.Resolve(bridge.KindSearchFiles, id, json.RawMessage(`"files"`)))
	assert.Equal(t, `"files"`, got)
	assert.False(t, c.Pending(bridge.KindSearchFiles))

	// A second delivery of the same answer is discarded.
	assert.False(t, c.Resolve(bridge.KindSearchFiles, id, json.RawMessage(`"files"`)))
}

func TestCorrelatorDiscardsStaleResponses(t *testing.T) {
	c := bridge.NewCorrelator()

	var calls []string
	first := c.Track(bridge.KindSearchFiles, 0, func(json.RawMessage) {
		calls = append(calls, "first")
	}, nil)
	second := c.Track(bridge.KindSearchFiles, 0, func(json.RawMessage) {
		calls = append(calls, "second")
	}, nil)
	require.NotEqual(t, first, second)

	// The answer to the superseded search arrives late and is dropped.
	assert.False(t, c.Resolve(bridge.KindSearchFiles, first, nil))
	assert.True(t, c.Resolve(bridge.KindSearchFiles, second, nil))
	assert.Equal(t, []string{"second"}, calls)
}

func TestCorrelatorTimeout(t *testing.T) {
	c := bridge.NewCorrelator()

	timedOut := make(chan struct{})
	id := c.Track(bridge.KindCheckImageInWorkspace, 20*time.Millisecond, func(json.RawMessage) {
		t.Error("onResult must not fire after a timeout")
	}, func() {
		close(timedOut)
	})

	select {
	case <-timedOut:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout never fired")
	}

	// The slot is gone, the late answer is discarded.
	assert.False(t, c.Resolve(bridge.KindCheckImageInWorkspace, id, nil))
}

func TestCorrelatorResolveBeatsTimeout(t *testing.T) {
	c := bridge.NewCorrelator()

	id := c.Track(bridge.KindCheckImageInWorkspace, 30*time.Millisecond, nil, func() {
		t.Error("timeout must not fire after a resolution")
	})
	require.True(t, c.Resolve(bridge.KindCheckImageInWorkspace, id, nil))

	time.Sleep(80 * time.Millisecond)
}

func TestCorrelatorCancel(t *testing.T) {
	c := bridge.NewCorrelator()

	id := c.Track(bridge.KindFindImageVersions, 30*time.Millisecond, func(json.RawMessage) {
		t.Error("onResult must not fire after cancellation")
	}, func() {
		t.Error("timeout must not fire after cancellation")
	})
	c.Cancel(bridge.KindFindImageVersions)

	assert.False(t, c.Pending(bridge.KindFindImageVersions))
	assert.False(t, c.Resolve(bridge.KindFindImageVersions, id, nil))
	time.Sleep(80 * time.Millisecond)
}

func TestCorrelatorCancelAll(t *testing.T) {
	c := bridge.NewCorrelator()
	c.Track(bridge.KindSearchFiles, 0, nil, nil)
	c.Track(bridge.KindFindImageVersions, 0, nil, nil)

	c.CancelAll()
	assert.False(t, c.Pending(bridge.KindSearchFiles))
	assert.False(t, c.Pending(bridge.KindFindImageVersions))
}
