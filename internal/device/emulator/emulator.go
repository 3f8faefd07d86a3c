// Package emulator provides an in-process thermostat for development and
// testing. It needs no network, no credentials and no hardware: readings
// are synthesized around fixed baselines with uniform noise, and setpoint
// writes mutate in-memory state.
package emulator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/thermosentry/thermosentry/internal/device"
)

// Alias is the registry type tag for the emulated thermostat.
const Alias = "emulator"

const (
	startingTemp      = 72.0
	startingHumidity  = 45.0
	tempVariation     = 16.0
	humidityVariation = 3.0

	// Fixed schedule setpoints: the maximum heat and minimum cool
	// setpoints the schedule allows.
	scheduleHeatSetpoint = 66.0
	scheduleCoolSetpoint = 78.0
)

// Register wires the emulator driver into a registry under Alias.
// The emulator requires no environment credentials.
func Register(reg *device.Registry) {
	reg.Register(Alias, device.Driver{
		Factory: func(_ context.Context, zoneID int) (device.Adapter, error) {
			return New(zoneID), nil
		},
	})
}

// Thermostat is an emulated zone. Safe for concurrent use.
type Thermostat struct {
	zoneID int

	mu           sync.Mutex
	mode         device.Mode
	heatSetpoint float64
	coolSetpoint float64
	closed       bool

	// Noise source in [0, 1), replaceable in tests.
	randFn func() float64
}

// New creates an emulated zone in its starting state: off, both
// setpoints at the starting temperature.
func New(zoneID int) *Thermostat {
	return &Thermostat{
		zoneID:       zoneID,
		mode:         device.ModeOff,
		heatSetpoint: startingTemp,
		coolSetpoint: startingTemp,
		randFn:       rand.Float64,
	}
}

// SetMode switches the emulated zone's operating mode.
func (t *Thermostat) SetMode(mode device.Mode) error {
	if !mode.Valid() {
		return device.ErrInvalidMode
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = mode
	return nil
}

// State returns a synthesized snapshot. Temperature and humidity carry
// uniform noise around their baselines; the active setpoint is the stored
// value for the setpoint kind the current mode governs.
func (t *Thermostat) State(_ context.Context, _ bool) (device.ZoneState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := t.heatSetpoint
	if device.KindForMode(t.mode) == device.SetpointCool {
		active = t.coolSetpoint
	}

	return device.ZoneState{
		Temperature:       startingTemp + t.noise(tempVariation),
		Humidity:          startingHumidity + t.noise(humidityVariation),
		HumiditySupported: true,
		Mode:              t.mode,
		ActiveSetpoint:    active,
		FetchedAt:         time.Now(),
	}, nil
}

// ScheduleSetpoint returns the fixed schedule setpoint for the kind.
func (t *Thermostat) ScheduleSetpoint(_ context.Context, kind device.SetpointKind) (float64, error) {
	if kind == device.SetpointCool {
		return scheduleCoolSetpoint, nil
	}
	return scheduleHeatSetpoint, nil
}

// SetSetpoint stores a new setpoint for the kind.
func (t *Thermostat) SetSetpoint(_ context.Context, kind device.SetpointKind, value float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if kind == device.SetpointCool {
		t.coolSetpoint = value
	} else {
		t.heatSetpoint = value
	}
	return nil
}

// Close marks the session closed. The emulated state survives so a
// reconnect within the same process resumes where the last session left
// off.
func (t *Thermostat) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// noise returns a uniform sample in [-variation, +variation).
func (t *Thermostat) noise(variation float64) float64 {
	return (t.randFn()*2 - 1) * variation
}
