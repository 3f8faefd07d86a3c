package supervise

import (
	"testing"

	"github.com/thermosentry/thermosentry/internal/device"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name            string
		mode            device.Mode
		active          float64
		target          float64
		tolerance       float64
		revert          bool
		wantDeviated    bool
		wantCorrectable bool
		wantKind        device.SetpointKind
	}{
		{
			name:      "within band",
			mode:      device.ModeHeat,
			active:    69, target: 70, tolerance: 2,
			revert:       true,
			wantDeviated: false,
			wantKind:     device.SetpointHeat,
		},
		{
			name:      "exactly at tolerance boundary is not a deviation",
			mode:      device.ModeHeat,
			active:    72, target: 70, tolerance: 2,
			revert:       true,
			wantDeviated: false,
			wantKind:     device.SetpointHeat,
		},
		{
			name:      "beyond tolerance",
			mode:      device.ModeHeat,
			active:    74, target: 70, tolerance: 2,
			revert:          true,
			wantDeviated:    true,
			wantCorrectable: true,
			wantKind:        device.SetpointHeat,
		},
		{
			name:      "deviation below target",
			mode:      device.ModeHeat,
			active:    67, target: 70, tolerance: 2,
			revert:          true,
			wantDeviated:    true,
			wantCorrectable: true,
			wantKind:        device.SetpointHeat,
		},
		{
			name:      "alert-only policy never corrects",
			mode:      device.ModeHeat,
			active:    74, target: 70, tolerance: 2,
			revert:          false,
			wantDeviated:    true,
			wantCorrectable: false,
			wantKind:        device.SetpointHeat,
		},
		{
			name:      "cool mode targets cooling setpoint",
			mode:      device.ModeCool,
			active:    80, target: 74, tolerance: 2,
			revert:          true,
			wantDeviated:    true,
			wantCorrectable: true,
			wantKind:        device.SetpointCool,
		},
		{
			name:      "off mode is never a deviation",
			mode:      device.ModeOff,
			active:    99, target: 70, tolerance: 1,
			revert:       true,
			wantDeviated: false,
			wantKind:     device.SetpointHeat,
		},
		{
			name:      "fan mode is never a deviation",
			mode:      device.ModeFan,
			active:    99, target: 70, tolerance: 1,
			revert:       true,
			wantDeviated: false,
			wantKind:     device.SetpointHeat,
		},
		{
			name:      "zero tolerance flags any difference",
			mode:      device.ModeHeat,
			active:    70.5, target: 70, tolerance: 0,
			revert:          true,
			wantDeviated:    true,
			wantCorrectable: true,
			wantKind:        device.SetpointHeat,
		},
		{
			name:      "zero tolerance exact match holds",
			mode:      device.ModeHeat,
			active:    70, target: 70, tolerance: 0,
			revert:       true,
			wantDeviated: false,
			wantKind:     device.SetpointHeat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := ZoneSpec{
				Tolerance:  tt.tolerance,
				TargetMode: tt.mode,
				Revert:     tt.revert,
			}
			state := device.ZoneState{
				Mode:           tt.mode,
				ActiveSetpoint: tt.active,
			}

			got := Evaluate(state, tt.target, spec)

			if got.Deviated != tt.wantDeviated {
				t.Errorf("Deviated = %v, want %v", got.Deviated, tt.wantDeviated)
			}
			if got.Correctable != tt.wantCorrectable {
				t.Errorf("Correctable = %v, want %v", got.Correctable, tt.wantCorrectable)
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.ScheduleTarget != tt.target {
				t.Errorf("ScheduleTarget = %v, want %v", got.ScheduleTarget, tt.target)
			}
		})
	}
}

func TestEvaluate_UncontrolledTargetModeNotCorrectable(t *testing.T) {
	// A zone configured to run OFF must never receive corrective writes,
	// even if the device momentarily reports a controlled mode.
	spec := ZoneSpec{Tolerance: 2, TargetMode: device.ModeOff, Revert: true}
	state := device.ZoneState{Mode: device.ModeHeat, ActiveSetpoint: 80}

	got := Evaluate(state, 70, spec)
	if !got.Deviated {
		t.Fatal("Deviated = false, want true")
	}
	if got.Correctable {
		t.Error("Correctable = true, want false for uncontrolled target mode")
	}
}
