package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_WaitReleasesOnOpen(t *testing.T) {
	g := NewGate(false)
	assert.False(t, g.Open())

	released := make(chan error, 1)
	go func() { released <- g.Wait(context.Background()) }()

	select {
	case <-released:
		t.Fatal("closed gate released a waiter")
	case <-time.After(20 * time.Millisecond):
	}

	g.Set(true)
	select {
	case err := <-released:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter not released")
	}
}

func TestGate_ReopenAfterClose(t *testing.T) {
	g := NewGate(true)
	require.NoError(t, g.Wait(context.Background()))

	g.Set(false)
	g.Set(false)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)

	g.Set(true)
	g.Set(true)
	assert.True(t, g.Open())
	require.NoError(t, g.Wait(context.Background()))
}

func TestGate_ZeroValueIsClosed(t *testing.T) {
	var g Gate
	assert.False(t, g.Open())
	g.Set(true)
	require.NoError(t, g.Wait(context.Background()))
}
