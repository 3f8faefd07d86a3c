package supervise

import (
	"math"

	"github.com/thermosentry/thermosentry/internal/device"
)

// Decision is the outcome of evaluating one zone snapshot against its
// programmed schedule.
type Decision struct {
	// Deviated is true when the active setpoint is outside the inclusive
	// tolerance band around the schedule target.
	Deviated bool

	// ScheduleTarget is the schedule-programmed setpoint the zone should
	// be at, in °F.
	ScheduleTarget float64

	// Kind is the setpoint kind governed by the current mode.
	Kind device.SetpointKind

	// Correctable is true when a corrective write may be issued for this
	// deviation: the zone runs a controlled mode, the configured target
	// mode is controlled, and the zone's policy is alert-and-revert.
	Correctable bool
}

// Evaluate compares a zone snapshot to its schedule target.
//
// The tolerance band is inclusive: a setpoint exactly tolerance degrees
// from the target is NOT a deviation. Uncontrolled modes (off, fan,
// unknown) are measured but never flagged or corrected.
func Evaluate(state device.ZoneState, scheduleTarget float64, spec ZoneSpec) Decision {
	d := Decision{
		ScheduleTarget: scheduleTarget,
		Kind:           device.KindForMode(state.Mode),
	}

	if !state.Mode.IsControlled() {
		return d
	}

	d.Deviated = math.Abs(state.ActiveSetpoint-scheduleTarget) > spec.Tolerance
	d.Correctable = d.Deviated && spec.Revert && spec.TargetMode.IsControlled()
	return d
}
