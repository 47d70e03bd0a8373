package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-attention-agent/internal/attention"
	"go-attention-agent/internal/core"
)

type fakeView struct {
	ids []core.ComponentID
	bad map[core.ComponentID]bool
	tr  *attention.Tracker
}

func newFakeView(ids ...core.ComponentID) *fakeView {
	tr := attention.NewTracker(attention.Box{X1: 0, Y1: 0, X2: 100, Y2: 100})
	tr.ObserveGaze(500, 500, time.Time{})
	return &fakeView{ids: ids, bad: map[core.ComponentID]bool{}, tr: tr}
}

func (v *fakeView) Owned() []core.ComponentID              { return v.ids }
func (v *fakeView) Acceptable(id core.ComponentID) bool    { return !v.bad[id] }
func (v *fakeView) Attention() *attention.Tracker          { return v.tr }
func (v *fakeView) fail(id core.ComponentID, ts time.Time) { v.setBad(id, true, ts) }
func (v *fakeView) repair(id core.ComponentID, ts time.Time) {
	v.setBad(id, false, ts)
}

func (v *fakeView) setBad(id core.ComponentID, bad bool, ts time.Time) {
	v.tr.Transition(id, !v.bad[id], !bad, ts)
	v.bad[id] = bad
}

func count(cmds []core.Command, id core.ComponentID, on bool) int {
	n := 0
	for _, c := range cmds {
		if c.Destination == id && c.Payload["value"] == on {
			n++
		}
	}
	return n
}

func newPolicy(t *testing.T, mode Mode) *Policy {
	t.Helper()
	p, err := New(Settings{Grace: 2 * time.Second, Mode: mode, Panel: PanelID("system")})
	require.NoError(t, err)
	return p
}

func TestFailRepairWithinGraceNeverHighlights(t *testing.T) {
	p := newPolicy(t, ModeComponent)
	v := newFakeView("Scale:0")
	t0 := time.Unix(1000, 0)

	var all []core.Command
	v.fail("Scale:0", t0)
	for step := 0; step < 15; step++ {
		now := t0.Add(time.Duration(step) * 100 * time.Millisecond)
		all = append(all, p.Decide(v, now)...)
	}
	v.repair("Scale:0", t0.Add(1500*time.Millisecond))
	for step := 15; step < 60; step++ {
		now := t0.Add(time.Duration(step) * 100 * time.Millisecond)
		all = append(all, p.Decide(v, now)...)
	}
	assert.Zero(t, count(all, "Scale:0", true))
}

func TestPersistentFailureHighlightsExactlyOnce(t *testing.T) {
	p := newPolicy(t, ModeComponent)
	v := newFakeView("WarningLight:0")
	t0 := time.Unix(1000, 0)
	v.fail("WarningLight:0", t0)

	var all []core.Command
	for step := 0; step <= 50; step++ {
		now := t0.Add(time.Duration(step) * 100 * time.Millisecond)
		cmds := p.Decide(v, now)
		if count(cmds, "WarningLight:0", true) > 0 {
			assert.True(t, now.Sub(t0) >= 2*time.Second, "highlighted at %s", now.Sub(t0))
		}
		all = append(all, cmds...)
	}
	assert.Equal(t, 1, count(all, "WarningLight:0", true))
	assert.True(t, v.tr.Highlighted("WarningLight:0"))
}

func TestLookingClearsAllAlertsFirst(t *testing.T) {
	p := newPolicy(t, ModeComponent)
	v := newFakeView("FuelTank:A", "FuelTank:B")
	t0 := time.Unix(1000, 0)
	v.fail("FuelTank:B", t0)
	v.tr.SetHighlighted("FuelTank:A", true)
	v.tr.ObserveGaze(50, 50, t0.Add(10*time.Second))

	cmds := p.Decide(v, t0.Add(10*time.Second))
	require.Len(t, cmds, 1)
	assert.Equal(t, core.Highlight("FuelTank:A", false), cmds[0])
	assert.Empty(t, p.Decide(v, t0.Add(11*time.Second)))
}

func TestRepairUnhighlightsRegardlessOfGaze(t *testing.T) {
	p := newPolicy(t, ModeComponent)
	v := newFakeView("Scale:1")
	t0 := time.Unix(1000, 0)
	v.tr.SetHighlighted("Scale:1", true)

	cmds := p.Decide(v, t0)
	assert.Equal(t, []core.Command{core.Highlight("Scale:1", false)}, cmds)
}

func TestNoAlertWhileAnotherIsShowing(t *testing.T) {
	p := newPolicy(t, ModeComponent)
	v := newFakeView("Scale:0", "Scale:1")
	t0 := time.Unix(1000, 0)
	v.fail("Scale:0", t0)
	v.fail("Scale:1", t0)
	v.tr.SetHighlighted("Target:0", true)

	assert.Empty(t, p.Decide(v, t0.Add(5*time.Second)))

	v.tr.SetHighlighted("Target:0", false)
	cmds := p.Decide(v, t0.Add(6*time.Second))
	assert.Equal(t, []core.Command{core.Highlight("Scale:0", true)}, cmds)
	assert.Empty(t, p.Decide(v, t0.Add(7*time.Second)))
}

func TestPanelMode(t *testing.T) {
	p := newPolicy(t, ModePanel)
	v := newFakeView("Scale:0", "WarningLight:0")
	t0 := time.Unix(1000, 0)
	v.fail("WarningLight:0", t0)

	cmds := p.Decide(v, t0.Add(3*time.Second))
	assert.Equal(t, []core.Command{core.Highlight(PanelID("system"), true)}, cmds)

	v.repair("WarningLight:0", t0.Add(4*time.Second))
	cmds = p.Decide(v, t0.Add(4*time.Second))
	assert.Equal(t, []core.Command{core.Highlight(PanelID("system"), false)}, cmds)
}

func TestNewRejectsBadSettings(t *testing.T) {
	_, err := New(Settings{Mode: "flashing"})
	assert.Error(t, err)
	_, err = New(Settings{Mode: ModePanel})
	assert.Error(t, err)
	_, err = New(Settings{Mode: ModeComponent, Grace: -time.Second})
	assert.Error(t, err)
}
