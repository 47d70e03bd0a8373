package belief

import "math"

// Record is the mirrored state of one component. Each group has its own
// fixed-field variant.
type Record interface {
	group() string
}

// Light mirrors a warning light.
type Light struct {
	State int
}

// Scale mirrors a scale; positions range over [0, Size-1].
type Scale struct {
	Position int
	Size     int
}

// Center is the resting position of the scale.
func (s Scale) Center() int { return s.Size / 2 }

// Deviation is the distance from the resting position.
func (s Scale) Deviation() int {
	d := s.Position - s.Center()
	if d < 0 {
		return -d
	}
	return d
}

// Tank mirrors a fuel tank. Acceptable is reported by the environment.
type Tank struct {
	Level      float64
	Capacity   float64
	Main       bool
	Acceptable bool
}

// PumpStatus is the tri-state of a pump.
type PumpStatus int

const (
	PumpOn PumpStatus = iota
	PumpOff
	PumpFailed
)

func (s PumpStatus) String() string {
	switch s {
	case PumpOn:
		return "on"
	case PumpOff:
		return "off"
	case PumpFailed:
		return "failed"
	}
	return "unknown"
}

// Pump mirrors a pump.
type Pump struct {
	Status PumpStatus
}

// Target mirrors the tracking target, relative to the panel center.
type Target struct {
	X, Y float64
}

// Distance from the panel center.
func (t Target) Distance() float64 { return math.Hypot(t.X, t.Y) }

func (Light) group() string  { return "WarningLight" }
func (Scale) group() string  { return "Scale" }
func (Tank) group() string   { return "FuelTank" }
func (Pump) group() string   { return "Pump" }
func (Target) group() string { return "Target" }
