package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances by a fixed amount on every call.
type fakeClock struct {
	at   time.Time
	tick time.Duration
}

func (c *fakeClock) now() time.Time {
	c.at = c.at.Add(c.tick)
	return c.at
}

func newTestParser(totalSteps int, tick time.Duration) *TrainingParser {
	p := NewTrainingParser(totalSteps)
	clk := &fakeClock{at: time.Unix(1700000000, 0), tick: tick}
	p.now = clk.now
	return p
}

func TestParseTrainingStep(t *testing.T) {
	p := newTestParser(2000, time.Second)

	ev := p.Parse("Step 10: loss=0.4523")
	require.NotNil(t, ev.Step)
	assert.Equal(t, 10, *ev.Step)
	require.NotNil(t, ev.Loss)
	assert.InDelta(t, 0.4523, *ev.Loss, 1e-9)
	assert.True(t, ev.Matched())
}

func TestParseScientificLoss(t *testing.T) {
	p := newTestParser(100, time.Second)

	ev := p.Parse("step 5: loss=1.2e-3")
	require.NotNil(t, ev.Loss)
	assert.InDelta(t, 0.0012, *ev.Loss, 1e-12)
}

func TestNoETAOnFirstStep(t *testing.T) {
	p := newTestParser(2000, time.Second)

	ev := p.Parse("Step 1: loss=0.9")
	assert.Empty(t, ev.ETA)
}

func TestETAFromSecondStep(t *testing.T) {
	p := newTestParser(600, 495*time.Millisecond)

	p.Parse("Step 99: loss=0.31")
	ev := p.Parse("Step 100: loss=0.30")

	// 500 steps remain at 495ms each: 247.5s.
	assert.Equal(t, "4m 7s", ev.ETA)
}

func TestETAScenarioWholeSeconds(t *testing.T) {
	p := newTestParser(110, 5*time.Second)

	p.Parse("Step 10: loss=0.2")
	ev := p.Parse("Step 11: loss=0.19")

	// 99 steps remain at 5s each: 495s.
	assert.Equal(t, "8m 15s", ev.ETA)
}

func TestETAClampsPastTotal(t *testing.T) {
	p := newTestParser(100, time.Second)

	p.Parse("Step 100: loss=0.1")
	ev := p.Parse("Step 150: loss=0.1")

	assert.Equal(t, "0m 0s", ev.ETA)
}

func TestParseValidation(t *testing.T) {
	p := newTestParser(100, time.Second)

	ev := p.Parse("Validation @ step 50")
	require.NotNil(t, ev.ValidationStep)
	assert.Equal(t, 50, *ev.ValidationStep)
	assert.Nil(t, ev.Step)
	assert.True(t, ev.Matched())
}

func TestParseCheckpoint(t *testing.T) {
	p := newTestParser(100, time.Second)

	ev := p.Parse("Saved checkpoint: /train/out/ckpt_000100.safetensors")
	require.NotNil(t, ev.CheckpointPath)
	assert.Equal(t, "/train/out/ckpt_000100.safetensors", *ev.CheckpointPath)
	assert.True(t, ev.Matched())
}

func TestUnmatchedLine(t *testing.T) {
	p := newTestParser(100, time.Second)

	ev := p.Parse("epoch summary: everything nominal")
	assert.False(t, ev.Matched())
	assert.Nil(t, ev.Step)
	assert.Nil(t, ev.ValidationStep)
	assert.Nil(t, ev.CheckpointPath)
}
