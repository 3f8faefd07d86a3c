package supervise

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thermosentry/thermosentry/internal/device"
)

// countingAdapter counts State calls and serves a fixed snapshot.
type countingAdapter struct {
	state      device.ZoneState
	stateErr   error
	stateCalls int
}

func (a *countingAdapter) State(_ context.Context, _ bool) (device.ZoneState, error) {
	a.stateCalls++
	if a.stateErr != nil {
		return device.ZoneState{}, a.stateErr
	}
	return a.state, nil
}

func (a *countingAdapter) ScheduleSetpoint(context.Context, device.SetpointKind) (float64, error) {
	return 0, nil
}

func (a *countingAdapter) SetSetpoint(context.Context, device.SetpointKind, float64) error {
	return nil
}

func (a *countingAdapter) Close() error { return nil }

func TestStateCache_HitWithinTTL(t *testing.T) {
	adapter := &countingAdapter{state: device.ZoneState{Temperature: 71.5}}
	cache := NewStateCache(adapter, 10*time.Second)

	now := time.Now()
	cache.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		state, err := cache.Refresh(context.Background(), false)
		if err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
		if state.Temperature != 71.5 {
			t.Fatalf("Temperature = %v, want 71.5", state.Temperature)
		}
	}

	if adapter.stateCalls != 1 {
		t.Errorf("State calls = %d, want 1 (subsequent refreshes within TTL must hit cache)", adapter.stateCalls)
	}
}

func TestStateCache_ExpiryTriggersRequery(t *testing.T) {
	adapter := &countingAdapter{}
	cache := NewStateCache(adapter, 10*time.Second)

	now := time.Now()
	cache.now = func() time.Time { return now }

	if _, err := cache.Refresh(context.Background(), false); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	now = now.Add(11 * time.Second)
	if _, err := cache.Refresh(context.Background(), false); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if adapter.stateCalls != 2 {
		t.Errorf("State calls = %d, want 2 after TTL expiry", adapter.stateCalls)
	}
}

func TestStateCache_ForceBypassesCache(t *testing.T) {
	adapter := &countingAdapter{}
	cache := NewStateCache(adapter, time.Hour)

	if _, err := cache.Refresh(context.Background(), false); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if _, err := cache.Refresh(context.Background(), true); err != nil {
		t.Fatalf("Refresh(force) error = %v", err)
	}

	if adapter.stateCalls != 2 {
		t.Errorf("State calls = %d, want 2 with forced refresh", adapter.stateCalls)
	}
}

func TestStateCache_ZeroTTLDisablesCaching(t *testing.T) {
	adapter := &countingAdapter{}
	cache := NewStateCache(adapter, 0)

	for i := 0; i < 3; i++ {
		if _, err := cache.Refresh(context.Background(), false); err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
	}

	if adapter.stateCalls != 3 {
		t.Errorf("State calls = %d, want 3 with caching disabled", adapter.stateCalls)
	}
}

func TestStateCache_ErrorNotCached(t *testing.T) {
	wantErr := errors.New("vendor timeout")
	adapter := &countingAdapter{stateErr: wantErr}
	cache := NewStateCache(adapter, time.Hour)

	if _, err := cache.Refresh(context.Background(), false); !errors.Is(err, wantErr) {
		t.Fatalf("Refresh() error = %v, want wrapped %v", err, wantErr)
	}

	adapter.stateErr = nil
	if _, err := cache.Refresh(context.Background(), false); err != nil {
		t.Fatalf("Refresh() after recovery error = %v", err)
	}

	if adapter.stateCalls != 2 {
		t.Errorf("State calls = %d, want 2 (failed refresh must not prime the cache)", adapter.stateCalls)
	}
}

func TestStateCache_Age(t *testing.T) {
	adapter := &countingAdapter{}
	cache := NewStateCache(adapter, time.Hour)

	now := time.Now()
	cache.now = func() time.Time { return now }

	if got := cache.Age(); got != 0 {
		t.Errorf("Age() before first refresh = %v, want 0", got)
	}

	if _, err := cache.Refresh(context.Background(), false); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	now = now.Add(3 * time.Second)
	if got := cache.Age(); got != 3*time.Second {
		t.Errorf("Age() = %v, want 3s", got)
	}
}
