package device

import (
	"context"
	"errors"
	"testing"
)

// stubAdapter is a minimal Adapter for registry tests.
type stubAdapter struct{}

func (stubAdapter) State(context.Context, bool) (ZoneState, error) { return ZoneState{}, nil }
func (stubAdapter) ScheduleSetpoint(context.Context, SetpointKind) (float64, error) {
	return 0, nil
}
func (stubAdapter) SetSetpoint(context.Context, SetpointKind, float64) error { return nil }
func (stubAdapter) Close() error                                             { return nil }

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	r.Register("emulator", Driver{
		Factory: func(_ context.Context, _ int) (Adapter, error) {
			return stubAdapter{}, nil
		},
	})

	if _, err := r.Resolve("emulator"); err != nil {
		t.Fatalf("Resolve(emulator) error = %v", err)
	}

	_, err := r.Resolve("nonexistent")
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("Resolve(nonexistent) error = %v, want ErrUnknownType", err)
	}
}

func TestRegistry_Connect_MissingCredentials(t *testing.T) {
	r := NewRegistry()
	r.Register("cloudstat", Driver{
		Factory: func(_ context.Context, _ int) (Adapter, error) {
			t.Fatal("factory must not be called when credentials are missing")
			return nil, nil
		},
		RequiredEnv: []string{"THERMOSENTRY_TEST_NO_SUCH_VAR"},
	})

	_, err := r.Connect(context.Background(), "cloudstat", 0)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("Connect() error = %v, want ErrMissingCredentials", err)
	}
}

func TestRegistry_Connect_FactoryCalled(t *testing.T) {
	calls := 0
	r := NewRegistry()
	r.Register("emulator", Driver{
		Factory: func(_ context.Context, zoneID int) (Adapter, error) {
			calls++
			if zoneID != 3 {
				t.Errorf("factory zoneID = %d, want 3", zoneID)
			}
			return stubAdapter{}, nil
		},
	})

	adapter, err := r.Connect(context.Background(), "emulator", 3)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer adapter.Close()

	if calls != 1 {
		t.Errorf("factory calls = %d, want 1", calls)
	}
}

func TestRegistry_Types_Sorted(t *testing.T) {
	r := NewRegistry()
	noop := Driver{Factory: func(_ context.Context, _ int) (Adapter, error) { return stubAdapter{}, nil }}
	r.Register("sht31", noop)
	r.Register("emulator", noop)
	r.Register("mqtt", noop)

	got := r.Types()
	want := []string{"emulator", "mqtt", "sht31"}
	if len(got) != len(want) {
		t.Fatalf("Types() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Types()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"HEAT_MODE", ModeHeat, false},
		{"OFF_MODE", ModeOff, false},
		{"AUTO_MODE", ModeAuto, false},
		{"banana", ModeUnknown, true},
		{"", ModeUnknown, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMode_IsControlled(t *testing.T) {
	controlled := []Mode{ModeHeat, ModeCool, ModeAuto}
	for _, m := range controlled {
		if !m.IsControlled() {
			t.Errorf("%s.IsControlled() = false, want true", m)
		}
	}

	uncontrolled := []Mode{ModeOff, ModeFan, ModeDry, ModeUnknown}
	for _, m := range uncontrolled {
		if m.IsControlled() {
			t.Errorf("%s.IsControlled() = true, want false", m)
		}
	}
}
