package emulator

import (
	"context"
	"testing"

	"github.com/thermosentry/thermosentry/internal/device"
)

func TestNew_StartingState(t *testing.T) {
	th := New(0)
	th.randFn = func() float64 { return 0.5 } // zero noise

	state, err := th.State(context.Background(), false)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state.Mode != device.ModeOff {
		t.Errorf("Mode = %q, want %q", state.Mode, device.ModeOff)
	}
	if state.Temperature != 72.0 {
		t.Errorf("Temperature = %v, want 72.0", state.Temperature)
	}
	if state.Humidity != 45.0 {
		t.Errorf("Humidity = %v, want 45.0", state.Humidity)
	}
	if !state.HumiditySupported {
		t.Error("HumiditySupported = false, want true")
	}
	if state.ActiveSetpoint != 72.0 {
		t.Errorf("ActiveSetpoint = %v, want starting temperature", state.ActiveSetpoint)
	}
}

func TestThermostat_NoiseBounds(t *testing.T) {
	th := New(0)

	for i := 0; i < 100; i++ {
		state, err := th.State(context.Background(), false)
		if err != nil {
			t.Fatalf("State() error = %v", err)
		}
		if state.Temperature < 72.0-16.0 || state.Temperature > 72.0+16.0 {
			t.Fatalf("Temperature = %v, want within 72±16", state.Temperature)
		}
		if state.Humidity < 45.0-3.0 || state.Humidity > 45.0+3.0 {
			t.Fatalf("Humidity = %v, want within 45±3", state.Humidity)
		}
	}
}

func TestThermostat_ScheduleSetpoints(t *testing.T) {
	th := New(0)

	heat, err := th.ScheduleSetpoint(context.Background(), device.SetpointHeat)
	if err != nil {
		t.Fatalf("ScheduleSetpoint(heat) error = %v", err)
	}
	if heat != 66.0 {
		t.Errorf("schedule heat setpoint = %v, want 66.0", heat)
	}

	cool, err := th.ScheduleSetpoint(context.Background(), device.SetpointCool)
	if err != nil {
		t.Fatalf("ScheduleSetpoint(cool) error = %v", err)
	}
	if cool != 78.0 {
		t.Errorf("schedule cool setpoint = %v, want 78.0", cool)
	}
}

func TestThermostat_SetSetpointPerKind(t *testing.T) {
	th := New(0)
	th.randFn = func() float64 { return 0.5 }

	if err := th.SetMode(device.ModeHeat); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	if err := th.SetSetpoint(context.Background(), device.SetpointHeat, 68); err != nil {
		t.Fatalf("SetSetpoint(heat) error = %v", err)
	}

	state, _ := th.State(context.Background(), false)
	if state.ActiveSetpoint != 68 {
		t.Errorf("heat ActiveSetpoint = %v, want 68", state.ActiveSetpoint)
	}

	if err := th.SetMode(device.ModeCool); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	if err := th.SetSetpoint(context.Background(), device.SetpointCool, 76); err != nil {
		t.Fatalf("SetSetpoint(cool) error = %v", err)
	}

	state, _ = th.State(context.Background(), false)
	if state.ActiveSetpoint != 76 {
		t.Errorf("cool ActiveSetpoint = %v, want 76", state.ActiveSetpoint)
	}
}

func TestThermostat_SetModeInvalid(t *testing.T) {
	th := New(0)
	if err := th.SetMode(device.Mode("TOASTER_MODE")); err != device.ErrInvalidMode {
		t.Errorf("SetMode() error = %v, want ErrInvalidMode", err)
	}
}

func TestRegister(t *testing.T) {
	reg := device.NewRegistry()
	Register(reg)

	adapter, err := reg.Connect(context.Background(), Alias, 0)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer adapter.Close()

	if _, ok := adapter.(*Thermostat); !ok {
		t.Fatalf("Connect() returned %T, want *Thermostat", adapter)
	}
}
