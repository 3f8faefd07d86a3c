package device

import (
	"context"
	"fmt"
	"time"
)

// Mode is a thermostat operating mode.
//
// The string values match the mode tags used in zone configuration files
// and in the external report representation.
type Mode string

// Supported thermostat modes.
const (
	ModeOff     Mode = "OFF_MODE"
	ModeHeat    Mode = "HEAT_MODE"
	ModeCool    Mode = "COOL_MODE"
	ModeAuto    Mode = "AUTO_MODE"
	ModeDry     Mode = "DRY_MODE"
	ModeFan     Mode = "FAN_MODE"
	ModeUnknown Mode = "UNKNOWN_MODE"
)

// controlledModes are the modes in which setpoints apply and corrective
// writes are permitted. Off, fan-only and unknown modes are measured but
// never corrected.
var controlledModes = map[Mode]bool{
	ModeHeat: true,
	ModeCool: true,
	ModeAuto: true,
}

// IsControlled reports whether the mode is eligible for setpoint correction.
func (m Mode) IsControlled() bool {
	return controlledModes[m]
}

// Valid reports whether m is one of the supported mode tags.
func (m Mode) Valid() bool {
	switch m {
	case ModeOff, ModeHeat, ModeCool, ModeAuto, ModeDry, ModeFan, ModeUnknown:
		return true
	}
	return false
}

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return ModeUnknown, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// SetpointKind selects between the heating and cooling setpoint of a zone.
type SetpointKind string

// Setpoint kinds.
const (
	SetpointHeat SetpointKind = "heat"
	SetpointCool SetpointKind = "cool"
)

// KindForMode returns the setpoint kind governed by the given mode.
// Auto mode is treated as heat-led, matching the direction the scheduler
// reverts toward when both setpoints are active.
func KindForMode(m Mode) SetpointKind {
	if m == ModeCool || m == ModeDry {
		return SetpointCool
	}
	return SetpointHeat
}

// ZoneState is a point-in-time snapshot of one thermostat zone.
//
// Snapshots are value types: once returned by an adapter they are never
// mutated, so they can be cached and passed across goroutines freely.
type ZoneState struct {
	// Temperature is the displayed indoor temperature in °F.
	Temperature float64 `json:"temperature"`

	// Humidity is the displayed relative humidity in %RH.
	// Only meaningful when HumiditySupported is true.
	Humidity float64 `json:"humidity"`

	// HumiditySupported indicates the device reports humidity at all.
	HumiditySupported bool `json:"humidity_supported"`

	// Mode is the current operating mode.
	Mode Mode `json:"mode"`

	// ActiveSetpoint is the setpoint currently in force for the active
	// mode, in °F. Zero when the mode has no setpoint (off, fan).
	ActiveSetpoint float64 `json:"active_setpoint"`

	// HoldActive indicates the zone is holding a manual override rather
	// than following its programmed schedule.
	HoldActive bool `json:"hold_active"`

	// FetchedAt records when the snapshot was taken from the device.
	FetchedAt time.Time `json:"fetched_at"`
}

// Adapter is one live session against a single thermostat zone.
//
// Implementations are vendor drivers (emulator, MQTT, sht31, ...). An
// Adapter is owned by exactly one supervision worker and is never shared,
// so implementations do not need internal locking unless they manage
// background goroutines of their own.
//
// All blocking operations accept a context; drivers should honor
// cancellation where the underlying transport allows it.
type Adapter interface {
	// State returns the current zone snapshot. When forceRefresh is
	// false the driver may serve vendor-side cached data; when true it
	// must query the device.
	State(ctx context.Context, forceRefresh bool) (ZoneState, error)

	// ScheduleSetpoint returns the schedule-programmed setpoint for the
	// given kind in °F.
	ScheduleSetpoint(ctx context.Context, kind SetpointKind) (float64, error)

	// SetSetpoint writes a setpoint to the device, overriding any manual
	// hold with the given value.
	SetSetpoint(ctx context.Context, kind SetpointKind, value float64) error

	// Close releases the session. It must be safe to call exactly once
	// per session, including after a failed operation.
	Close() error
}

// Factory opens a new session against the given zone.
//
// A Factory call corresponds to the connect step of the session lifecycle;
// each returned Adapter must be independent of any previously returned one.
type Factory func(ctx context.Context, zoneID int) (Adapter, error)
