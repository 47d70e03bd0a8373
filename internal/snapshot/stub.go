package snapshot

import "go-attention-agent/internal/core"

// Stub returns the reference 800x700 layout with two warning lights, four
// scales, six tanks, eight pumps and one tracking target.
func Stub() Snapshot {
	comps := Components{
		"FuelTank:A":     {AcceptPosition: 0.5, AcceptProportion: 0.3, BurnRate: 6, Capacity: 2000, Fuel: 1000},
		"FuelTank:B":     {AcceptPosition: 0.5, AcceptProportion: 0.3, BurnRate: 6, Capacity: 2000, Fuel: 1000},
		"FuelTank:C":     {Capacity: 1000, Fuel: 100},
		"FuelTank:D":     {Capacity: 1000, Fuel: 100},
		"FuelTank:E":     {Capacity: 1000, Fuel: 1000},
		"FuelTank:F":     {Capacity: 1000, Fuel: 1000},
		"Scale:0":        {Key: "<F1>", Position: 5, Size: 11},
		"Scale:1":        {Key: "<F2>", Position: 5, Size: 11},
		"Scale:2":        {Key: "<F3>", Position: 5, Size: 11},
		"Scale:3":        {Key: "<F4>", Position: 5, Size: 11},
		"Target:0":       {Invert: true, Step: 1},
		"WarningLight:0": {Grace: 2, Key: "<F5>", State: 1},
		"WarningLight:1": {Grace: 2, Key: "<F6>", State: 0},
	}
	for _, p := range []core.ComponentID{"Pump:AB", "Pump:BA", "Pump:CA", "Pump:DB", "Pump:EA", "Pump:EC", "Pump:FB", "Pump:FD"} {
		comps[p] = ComponentConfig{EventRate: 10, FlowRate: 100, State: 1}
	}

	rect := func(x, y, w, h float64) Rect { return Rect{Position: [2]float64{x, y}, Size: [2]float64{w, h}} }
	layout := Layout{
		TaskSystem: {
			Rect: rect(0, 25, 250, 350),
			Components: map[core.ComponentID]Rect{
				"Scale:0":        rect(12.5, 121.25, 32.14, 236.25),
				"Scale:1":        rect(76.79, 121.25, 32.14, 236.25),
				"Scale:2":        rect(141.07, 121.25, 32.14, 236.25),
				"Scale:3":        rect(205.36, 121.25, 32.14, 236.25),
				"WarningLight:0": rect(12.5, 42.5, 75, 47.25),
				"WarningLight:1": rect(162.5, 42.5, 75, 47.25),
			},
		},
		TaskFuel: {
			Rect: rect(250, 400, 550, 300),
			Components: map[core.ComponentID]Rect{
				"FuelTank:A": rect(341.67, 424, 91.67, 100),
				"FuelTank:B": rect(616.67, 424, 91.67, 100),
				"FuelTank:C": rect(295.83, 576, 45.83, 100),
				"FuelTank:D": rect(570.83, 576, 45.83, 100),
				"FuelTank:E": rect(424.17, 576, 64.17, 100),
				"FuelTank:F": rect(699.17, 576, 64.17, 100),
				"Pump:AB":    rect(512.11, 446.08, 25.78, 22.5),
				"Pump:BA":    rect(512.11, 479.42, 25.78, 22.5),
				"Pump:CA":    rect(305.86, 538.75, 25.78, 22.5),
				"Pump:DB":    rect(580.86, 538.75, 25.78, 22.5),
				"Pump:EA":    rect(443.36, 538.75, 25.78, 22.5),
				"Pump:EC":    rect(370.03, 614.75, 25.78, 22.5),
				"Pump:FB":    rect(718.36, 538.75, 25.78, 22.5),
				"Pump:FD":    rect(645.03, 614.75, 25.78, 22.5),
			},
		},
		TaskTrack: {
			Rect:       rect(350, 25, 350, 350),
			Components: map[core.ComponentID]Rect{"Target:0": rect(350, 25, 350, 350)},
		},
		TaskWindow: {Rect: rect(67, 57, 800, 700)},
	}
	return Snapshot{Components: comps, Layout: layout}
}
