package perception

import (
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-attention-agent/internal/core"
)

func TestClassifySourceFirst(t *testing.T) {
	p, err := Classify(core.Event{ID: "1", Source: "Scale:2", Destination: "WarningLight:0", Label: core.LabelChange})
	require.NoError(t, err)
	assert.Equal(t, core.CategoryScale, p.Category)
	assert.Equal(t, core.ComponentID("Scale:2"), p.Subject)
}

func TestClassifyFallsBackToDestination(t *testing.T) {
	p, err := Classify(core.Event{ID: "1", Source: "Canvas", Destination: "Pump:AB", Label: core.LabelClick})
	require.NoError(t, err)
	assert.Equal(t, core.CategoryPump, p.Category)
	assert.Equal(t, core.ComponentID("Pump:AB"), p.Subject)
}

func TestClassifyGroups(t *testing.T) {
	cases := map[core.ComponentID]core.Category{
		"Target:0":             core.CategoryTrack,
		"EyeTracker:0":         core.CategoryGaze,
		"FuelTank:A":           core.CategoryFuelTank,
		"Highlight:FuelTank:A": core.CategoryHighlight,
		"WarningLight:1":       core.CategoryWarningLight,
	}
	for src, want := range cases {
		p, err := Classify(core.Event{Source: src})
		require.NoError(t, err, src)
		assert.Equal(t, want, p.Category, src)
	}
}

func TestHighlightSubject(t *testing.T) {
	p, err := Classify(core.Event{Source: "Highlight:FuelTank:A", Label: core.LabelHighlight})
	require.NoError(t, err)
	assert.Equal(t, core.ComponentID("FuelTank:A"), p.Subject)
}

func TestClassifyUnknown(t *testing.T) {
	_, err := Classify(core.Event{ID: "x", Source: "Canvas", Destination: "Overlay:0"})
	var uerr *UnclassifiedEventError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "x", uerr.Event.ID)
}

func TestClassifyBatchOrdersAndDrops(t *testing.T) {
	events := []core.Event{
		{ID: "b", Source: "Scale:0"},
		{ID: "c", Source: "Canvas", Destination: "Overlay:0"},
		{ID: "a", Source: "WarningLight:0"},
	}
	ps, dropped := ClassifyBatch(events, log.New(io.Discard, "", 0))
	require.Len(t, ps, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, "a", ps[0].Event.ID)
	assert.Equal(t, "b", ps[1].Event.ID)
}
