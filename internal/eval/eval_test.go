package eval

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-attention-agent/internal/core"
	"go-attention-agent/internal/perception"
	"go-attention-agent/internal/snapshot"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return t0.Add(d) }

func secs(s float64) time.Time { return t0.Add(time.Duration(s * float64(time.Second))) }

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := New(snapshot.Stub(), Config{Desired: map[core.ComponentID]int{"WarningLight:0": 1, "WarningLight:1": 0}}, nil, WithClock(fixedClock{t0}))
	require.NoError(t, err)
	return e
}

func revise(t *testing.T, e *Evaluator, events ...core.Event) {
	t.Helper()
	ps, dropped := perception.ClassifyBatch(events, nil)
	require.Zero(t, dropped)
	require.NoError(t, e.Revise(ps))
}

func event(id string, src core.ComponentID, label core.Label, payload map[string]interface{}, ts time.Time) core.Event {
	return core.Event{ID: id, Timestamp: ts, Source: src, Label: label, Payload: payload}
}

func TestIntervalTimer(t *testing.T) {
	tm := NewIntervalTimer(t0)
	assert.True(t, math.IsNaN(tm.Ratio(t0)))

	tm.Start(at(time.Second))
	tm.Start(at(2 * time.Second))
	assert.Equal(t, 2*time.Second, tm.Total(at(3*time.Second)))
	tm.Stop(at(4 * time.Second))
	tm.Stop(at(5 * time.Second))
	assert.Equal(t, 3*time.Second, tm.Total(at(10*time.Second)))
	assert.InDelta(t, 0.3, tm.Ratio(at(10*time.Second)), 1e-9)
	assert.False(t, tm.Running())
}

func TestMovingAverage(t *testing.T) {
	var m MovingAverage
	assert.True(t, math.IsNaN(m.Average()))
	m.Add(4, 0)
	assert.True(t, math.IsNaN(m.Average()))
	m.Add(1, 1)
	m.Add(4, 3)
	assert.InDelta(t, 3.25, m.Average(), 1e-9)
	assert.Equal(t, 4.0, m.Weight())
}

func TestFuelTankScore(t *testing.T) {
	e := newEvaluator(t)
	revise(t, e, event("1", "FuelTank:A", core.LabelFuel, map[string]interface{}{"acceptable": false}, secs(0)))
	revise(t, e, event("2", "FuelTank:A", core.LabelFuel, map[string]interface{}{"acceptable": true}, secs(1)))

	ratio, ok := e.Tank("FuelTank:A", secs(10))
	require.True(t, ok)
	assert.InDelta(t, 0.1, ratio, 1e-9)
	assert.InDelta(t, 0.05, e.Scores(secs(10)).FuelTank, 1e-9)

	_, ok = e.Tank("FuelTank:C", secs(10))
	assert.False(t, ok)
}

func TestScoresNaNAtStart(t *testing.T) {
	e := newEvaluator(t)
	s := e.Scores(t0)
	assert.True(t, math.IsNaN(s.WarningLight))
	assert.True(t, math.IsNaN(s.FuelTank))
	assert.True(t, math.IsNaN(s.Highlight))
	assert.True(t, math.IsNaN(s.Tracking))
	assert.True(t, math.IsNaN(s.Scale))
}

func TestWarningLightScore(t *testing.T) {
	e := newEvaluator(t)
	revise(t, e, event("1", "WarningLight:0", core.LabelChange, map[string]interface{}{"value": 0}, secs(2)))
	revise(t, e, event("2", "WarningLight:0", core.LabelChange, map[string]interface{}{"value": 1}, secs(4)))
	// light 0 bad for 2 of 10 seconds, light 1 never bad
	assert.InDelta(t, 0.1, e.Scores(secs(10)).WarningLight, 1e-9)
}

func TestScaleScoreIsTimeWeighted(t *testing.T) {
	e := newEvaluator(t)
	revise(t, e, event("1", "Scale:0", core.LabelChange, map[string]interface{}{"value": 5}, secs(1)))
	revise(t, e, event("2", "Scale:0", core.LabelChange, map[string]interface{}{"value": 10}, secs(4)))
	// deviation 0 for 1s then 5 for 3s, normalized by the center of size 11
	want := (0*1 + 5*3) / 4.0 / 5
	assert.InDelta(t, want, e.Scores(secs(10)).Scale, 1e-9)
}

func TestScaleFullDeflectionScoresOne(t *testing.T) {
	e := newEvaluator(t)
	revise(t, e, event("1", "Scale:0", core.LabelChange, map[string]interface{}{"value": 10}, secs(0)))
	revise(t, e, event("2", "Scale:0", core.LabelChange, map[string]interface{}{"value": 0}, secs(2)))
	// the first sample is weighted from construction, which is also t0
	assert.InDelta(t, 1.0, e.Scores(secs(10)).Scale, 1e-9)
}

func TestMoveForUnknownTargetIsIgnored(t *testing.T) {
	e := newEvaluator(t)
	require.NotPanics(t, func() {
		revise(t, e, event("1", "Target:1", core.LabelMove, map[string]interface{}{"x": 10.0, "y": 10.0}, secs(1)))
	})
	s := e.Scores(secs(10))
	assert.True(t, math.IsNaN(s.Tracking))
	assert.InDelta(t, 0, s.TrackingTime, 1e-9)
}

func TestIntervalTimerIgnoresOutOfOrderStop(t *testing.T) {
	tm := NewIntervalTimer(t0)
	tm.Start(at(5 * time.Second))
	assert.Zero(t, tm.Total(at(3*time.Second)))
	tm.Stop(at(3 * time.Second))
	assert.Zero(t, tm.Total(at(10*time.Second)))
	assert.False(t, tm.Running())
}

func TestScoresDuringRevise(t *testing.T) {
	e := newEvaluator(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = e.Scores(secs(float64(i)))
		}
	}()
	for i := 0; i < 200; i++ {
		ts := secs(float64(i) / 10)
		ps, _ := perception.ClassifyBatch([]core.Event{
			event("l", "WarningLight:0", core.LabelChange, map[string]interface{}{"value": i % 2}, ts),
			event("s", "Scale:0", core.LabelChange, map[string]interface{}{"value": i % 11}, ts),
			event("t", "Target:0", core.LabelMove, map[string]interface{}{"x": float64(i), "y": 0.0}, ts),
		}, nil)
		require.NoError(t, e.Revise(ps))
	}
	<-done
	s := e.Scores(secs(20))
	assert.False(t, math.IsNaN(s.Tracking))
	assert.False(t, math.IsNaN(s.Scale))
}

func TestTrackingScore(t *testing.T) {
	e := newEvaluator(t)
	den := (1 - TargetProportion) * 350
	revise(t, e, event("1", "Target:0", core.LabelMove, map[string]interface{}{"x": 0.0, "y": 0.0}, secs(0)))
	revise(t, e, event("2", "Target:0", core.LabelMove, map[string]interface{}{"x": den / 2, "y": 10.0}, secs(5)))

	s := e.Scores(secs(10))
	assert.InDelta(t, 0.5, s.Tracking, 1e-9)
	assert.InDelta(t, 0.5, s.TrackingTime, 1e-9)
}

func TestHighlightScore(t *testing.T) {
	e := newEvaluator(t)
	revise(t, e,
		event("1", "Highlight:Scale:0", core.LabelHighlight, map[string]interface{}{"value": true}, secs(1)),
		event("2", "Highlight:FuelTank:A", core.LabelHighlight, map[string]interface{}{"value": true}, secs(2)),
	)
	revise(t, e, event("3", "Highlight:Scale:0", core.LabelHighlight, map[string]interface{}{"value": false}, secs(3)))
	revise(t, e, event("4", "Highlight:FuelTank:A", core.LabelHighlight, map[string]interface{}{"value": false}, secs(5)))
	assert.InDelta(t, 0.4, e.Scores(secs(10)).Highlight, 1e-9)
}

func TestDecideIsSilent(t *testing.T) {
	e := newEvaluator(t)
	assert.Nil(t, e.Decide(secs(1)))
}

type txnRecorder struct{ values map[string]interface{} }

func (r *txnRecorder) Txn(_ context.Context, values map[string]interface{}, _ time.Duration) error {
	r.values = values
	return nil
}

func TestPublish(t *testing.T) {
	rec := &txnRecorder{}
	s := Scores{Tracking: 0.25, TrackingTime: math.NaN(), WarningLight: 0, Scale: 1, FuelTank: 0.5, Highlight: 0.1}
	require.NoError(t, Publish(context.Background(), rec, s))
	assert.Len(t, rec.values, len(Dimensions))
	assert.Equal(t, 0.25, rec.values["scores:tracking"])
	assert.Nil(t, rec.values["scores:tracking_time"])
}
