package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBegin_CancelsPreviousRunOfSameKind(t *testing.T) {
	c := New(context.Background())
	first := c.Begin("search")
	second := c.Begin("search")

	require.Error(t, first.Ctx.Err(), "superseded run must be cancelled")
	assert.NoError(t, second.Ctx.Err())
	assert.False(t, c.Finish(first))
	assert.True(t, c.Finish(second))
	assert.Equal(t, 0, c.Outstanding())
}

func TestFinish_StaleDoesNotCancelCurrent(t *testing.T) {
	c := New(context.Background())
	old := c.Begin("feed")
	cur := c.Begin("feed")

	assert.False(t, c.Finish(old))
	assert.NoError(t, cur.Ctx.Err())
	assert.Equal(t, 1, c.Outstanding())
}

func TestKindsAreIndependent(t *testing.T) {
	c := New(context.Background())
	feed := c.Begin("feed")
	comments := c.Begin("comments:1")
	c.Begin("comments:2")

	assert.NoError(t, feed.Ctx.Err())
	assert.NoError(t, comments.Ctx.Err())
	assert.Equal(t, 3, c.Outstanding())
}

func TestCancel_MakesOutstandingStale(t *testing.T) {
	c := New(context.Background())
	run := c.Begin("search")
	c.Cancel("search")

	assert.Error(t, run.Ctx.Err())
	assert.False(t, c.Finish(run))
}

func TestClose_CancelsEverything(t *testing.T) {
	c := New(context.Background())
	a := c.Begin("feed")
	b := c.Begin("rankings")
	c.Close()
	c.Close()

	assert.Error(t, a.Ctx.Err())
	assert.Error(t, b.Ctx.Err())
	assert.Error(t, c.Context().Err())
	assert.False(t, c.Finish(a))
	assert.True(t, c.Closed())

	late := c.Begin("feed")
	assert.Error(t, late.Ctx.Err(), "runs after close start cancelled")
	assert.False(t, c.Current(late))
	assert.Equal(t, 0, c.Outstanding())
}

func TestDebounce_OnlyLatestIsDue(t *testing.T) {
	c := New(context.Background())
	c.Debounce("search", 10*time.Millisecond)
	c.Debounce("search", 10*time.Millisecond)
	last := c.Debounce("search", time.Millisecond)

	msg, ok := last().(DebouncedMsg)
	require.True(t, ok)
	assert.True(t, c.Due(msg))
	assert.False(t, c.Due(DebouncedMsg{Kind: "search", Seq: msg.Seq - 1}))

	c.Cancel("search")
	assert.False(t, c.Due(msg), "cancel invalidates pending debounce")
}
