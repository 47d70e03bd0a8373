package eval

import (
	"context"
	"fmt"
	"math"
	"time"
)

// KeyPrefix prefixes every published score key.
const KeyPrefix = "scores:"

// Dimensions lists the score names in display order.
var Dimensions = []string{"tracking", "tracking_time", "warning_light", "scale", "fuel_tank", "highlight"}

// Scores is a snapshot of every score. NaN means no data yet.
type Scores struct {
	Tracking     float64
	TrackingTime float64
	WarningLight float64
	Scale        float64
	FuelTank     float64
	Highlight    float64
}

// Map returns the scores keyed by dimension name.
func (s Scores) Map() map[string]float64 {
	return map[string]float64{
		"tracking":      s.Tracking,
		"tracking_time": s.TrackingTime,
		"warning_light": s.WarningLight,
		"scale":         s.Scale,
		"fuel_tank":     s.FuelTank,
		"highlight":     s.Highlight,
	}
}

// Writer is the subset of the blackboard used to publish scores.
type Writer interface {
	Txn(ctx context.Context, values map[string]interface{}, ttl time.Duration) error
}

// Publish writes every score under KeyPrefix+dimension in one transaction.
// NaN scores are published as null.
func Publish(ctx context.Context, w Writer, s Scores) error {
	values := make(map[string]interface{}, len(Dimensions))
	for name, v := range s.Map() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			values[KeyPrefix+name] = nil
			continue
		}
		values[KeyPrefix+name] = v
	}
	if err := w.Txn(ctx, values, 0); err != nil {
		return fmt.Errorf("publish scores: %w", err)
	}
	return nil
}
