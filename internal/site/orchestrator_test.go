package site

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/thermosentry/thermosentry/internal/device"
	"github.com/thermosentry/thermosentry/internal/infrastructure/config"
	"github.com/thermosentry/thermosentry/internal/supervise"
)

// steadyAdapter always reports a zone holding its schedule setpoint.
type steadyAdapter struct {
	setpoint float64
}

func (a *steadyAdapter) State(context.Context, bool) (device.ZoneState, error) {
	return device.ZoneState{
		Temperature:    a.setpoint,
		Mode:           device.ModeHeat,
		ActiveSetpoint: a.setpoint,
	}, nil
}

func (a *steadyAdapter) ScheduleSetpoint(context.Context, device.SetpointKind) (float64, error) {
	return a.setpoint, nil
}

func (a *steadyAdapter) SetSetpoint(context.Context, device.SetpointKind, float64) error {
	return nil
}

func (a *steadyAdapter) Close() error { return nil }

// connectTracker records every factory invocation, safely across workers.
type connectTracker struct {
	mu    sync.Mutex
	types []string
}

func (t *connectTracker) record(typeTag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.types = append(t.types, typeTag)
}

func (t *connectTracker) count(typeTag string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, tt := range t.types {
		if tt == typeTag {
			n++
		}
	}
	return n
}

func zone(typeTag string, measurements int) config.ZoneConfig {
	return config.ZoneConfig{
		ThermostatType: typeTag,
		Zone:           0,
		PollTime:       1,
		ConnectionTime: 60,
		Tolerance:      2,
		TargetMode:     "HEAT_MODE",
		Measurements:   config.MeasurementLimit(measurements),
		Revert:         true,
	}
}

func disabled(z config.ZoneConfig) config.ZoneConfig {
	off := false
	z.Enabled = &off
	return z
}

func TestOrchestrator_FailureIsolation(t *testing.T) {
	tracker := &connectTracker{}
	connectErr := errors.New("device unreachable")

	reg := device.NewRegistry()
	reg.Register("flaky", device.Driver{Factory: func(_ context.Context, _ int) (device.Adapter, error) {
		tracker.record("flaky")
		return nil, connectErr
	}})
	reg.Register("stable", device.Driver{Factory: func(_ context.Context, _ int) (device.Adapter, error) {
		tracker.record("stable")
		return &steadyAdapter{setpoint: 70}, nil
	}})

	o := NewOrchestrator(reg)
	report := o.SuperviseAll(context.Background(), []config.ZoneConfig{
		zone("flaky", 2),
		zone("stable", 2),
	}, true)

	errs := report.Errors()
	zerr, ok := errs["flaky_zone0"]
	if !ok {
		t.Fatalf("errors = %v, want entry for flaky_zone0", errs)
	}
	if zerr.Message == "" || zerr.Timestamp.IsZero() {
		t.Errorf("ZoneError = %+v, want message and timestamp set", zerr)
	}

	got := report.Measurements("stable_zone0")
	if len(got) != 2 {
		t.Fatalf("stable_zone0 measurements = %d, want full count 2 despite flaky failure", len(got))
	}
	for i, m := range got {
		if m.Index != i+1 {
			t.Errorf("measurement %d: Index = %d, want %d", i, m.Index, i+1)
		}
	}

	if _, ok := report.Results()["flaky_zone0"]; ok {
		t.Error("flaky_zone0 has a results entry, want none (zero measurements taken)")
	}
	if report.Success() {
		t.Error("Success() = true, want false with a failed zone")
	}
}

func TestOrchestrator_DisabledZoneInvisible(t *testing.T) {
	tracker := &connectTracker{}
	reg := device.NewRegistry()
	reg.Register("stable", device.Driver{Factory: func(_ context.Context, _ int) (device.Adapter, error) {
		tracker.record("stable")
		return &steadyAdapter{setpoint: 70}, nil
	}})
	reg.Register("dark", device.Driver{Factory: func(_ context.Context, _ int) (device.Adapter, error) {
		tracker.record("dark")
		return &steadyAdapter{setpoint: 70}, nil
	}})

	o := NewOrchestrator(reg)
	report := o.SuperviseAll(context.Background(), []config.ZoneConfig{
		zone("stable", 1),
		disabled(zone("dark", 1)),
	}, false)

	results := report.Results()
	if len(results) != 1 {
		t.Fatalf("results has %d keys, want exactly 1", len(results))
	}
	if _, ok := results["stable_zone0"]; !ok {
		t.Errorf("results = %v, want stable_zone0", results)
	}
	if len(report.Errors()) != 0 {
		t.Errorf("errors = %v, want empty", report.Errors())
	}
	if n := tracker.count("dark"); n != 0 {
		t.Errorf("disabled zone adapter connects = %d, want 0", n)
	}
	if !report.Success() {
		t.Error("Success() = false, want true")
	}
}

func TestOrchestrator_SequentialOrder(t *testing.T) {
	tracker := &connectTracker{}
	reg := device.NewRegistry()
	for _, tag := range []string{"first", "second", "third"} {
		tag := tag
		reg.Register(tag, device.Driver{Factory: func(_ context.Context, _ int) (device.Adapter, error) {
			tracker.record(tag)
			return &steadyAdapter{setpoint: 70}, nil
		}})
	}

	o := NewOrchestrator(reg)
	o.SuperviseAll(context.Background(), []config.ZoneConfig{
		zone("first", 1),
		zone("second", 1),
		zone("third", 1),
	}, false)

	want := []string{"first", "second", "third"}
	if len(tracker.types) != len(want) {
		t.Fatalf("connects = %v, want %v", tracker.types, want)
	}
	for i, tag := range want {
		if tracker.types[i] != tag {
			t.Errorf("connect %d = %q, want %q (strict configuration order)", i, tracker.types[i], tag)
		}
	}
}

func TestOrchestrator_ConfigurationErrorPerZone(t *testing.T) {
	reg := device.NewRegistry()
	reg.Register("stable", device.Driver{Factory: func(_ context.Context, _ int) (device.Adapter, error) {
		return &steadyAdapter{setpoint: 70}, nil
	}})

	bad := zone("stable", 1)
	bad.Zone = 1
	bad.TargetMode = "" // rejected before any connection attempt

	o := NewOrchestrator(reg)
	report := o.SuperviseAll(context.Background(), []config.ZoneConfig{
		bad,
		zone("stable", 1),
	}, true)

	if _, ok := report.Errors()["stable_zone1"]; !ok {
		t.Fatalf("errors = %v, want configuration error for stable_zone1", report.Errors())
	}
	if got := report.Measurements("stable_zone0"); len(got) != 1 {
		t.Errorf("stable_zone0 measurements = %d, want 1", len(got))
	}
}

func TestOrchestrator_MissingCredentialsAbortsZoneOnly(t *testing.T) {
	reg := device.NewRegistry()
	reg.Register("gated", device.Driver{
		Factory: func(_ context.Context, _ int) (device.Adapter, error) {
			t.Fatal("factory called despite missing credentials")
			return nil, nil
		},
		RequiredEnv: []string{"THERMOSENTRY_TEST_NO_SUCH_CREDENTIAL"},
	})
	reg.Register("stable", device.Driver{Factory: func(_ context.Context, _ int) (device.Adapter, error) {
		return &steadyAdapter{setpoint: 70}, nil
	}})

	o := NewOrchestrator(reg)
	report := o.SuperviseAll(context.Background(), []config.ZoneConfig{
		zone("gated", 1),
		zone("stable", 1),
	}, false)

	if _, ok := report.Errors()["gated_zone0"]; !ok {
		t.Fatalf("errors = %v, want credential error for gated_zone0", report.Errors())
	}
	if got := report.Measurements("stable_zone0"); len(got) != 1 {
		t.Errorf("stable_zone0 measurements = %d, want 1", len(got))
	}
}

func TestOrchestrator_WorkerIDs(t *testing.T) {
	reg := device.NewRegistry()
	reg.Register("stable", device.Driver{Factory: func(_ context.Context, _ int) (device.Adapter, error) {
		return &steadyAdapter{setpoint: 70}, nil
	}})

	a := zone("stable", 1)
	b := zone("stable", 1)
	b.Zone = 1

	o := NewOrchestrator(reg)
	report := o.SuperviseAll(context.Background(), []config.ZoneConfig{a, b}, false)

	if got := report.Measurements("stable_zone0"); len(got) != 1 || got[0].WorkerID != "worker-0-stable_zone0" {
		t.Errorf("stable_zone0 = %+v, want WorkerID worker-0-stable_zone0", got)
	}
	if got := report.Measurements("stable_zone1"); len(got) != 1 || got[0].WorkerID != "worker-1-stable_zone1" {
		t.Errorf("stable_zone1 = %+v, want WorkerID worker-1-stable_zone1", got)
	}
}

func TestOrchestrator_ObserverReceivesEvents(t *testing.T) {
	reg := device.NewRegistry()
	reg.Register("stable", device.Driver{Factory: func(_ context.Context, _ int) (device.Adapter, error) {
		return &steadyAdapter{setpoint: 70}, nil
	}})

	obs := &countingObserver{}
	o := NewOrchestrator(reg)
	o.SetObserver(obs)
	o.SuperviseAll(context.Background(), []config.ZoneConfig{zone("stable", 2)}, false)

	if got := obs.measurementCount(); got != 2 {
		t.Errorf("observed measurements = %d, want 2", got)
	}
	if got := obs.sessionCount(); got == 0 {
		t.Error("observed sessions = 0, want at least 1")
	}
}

// countingObserver tallies events across workers.
type countingObserver struct {
	supervise.NopObserver
	mu           sync.Mutex
	sessions     int
	measurements int
}

func (o *countingObserver) SessionStarted(string, supervise.SessionState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessions++
}

func (o *countingObserver) MeasurementTaken(string, supervise.Measurement, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.measurements++
}

func (o *countingObserver) sessionCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessions
}

func (o *countingObserver) measurementCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.measurements
}
