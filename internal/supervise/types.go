package supervise

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/thermosentry/thermosentry/internal/device"
	"github.com/thermosentry/thermosentry/internal/infrastructure/config"
)

// defaultCacheTTL bounds how stale a cached zone snapshot may be before
// the next poll tick re-queries the device.
const defaultCacheTTL = 10 * time.Second

// ZoneSpec holds the resolved supervision parameters for one zone.
//
// A ZoneSpec is built once from a config.ZoneConfig and is immutable for
// the lifetime of a run.
type ZoneSpec struct {
	// Type is the driver type tag (e.g. "emulator").
	Type string

	// Zone is the vendor zone number.
	Zone int

	// PollInterval is the time between poll ticks.
	PollInterval time.Duration

	// SessionDuration is the maximum lifetime of one device session
	// before an unconditional reconnect.
	SessionDuration time.Duration

	// Tolerance is the allowed absolute deviation between active and
	// schedule setpoint, in degrees. The boundary value itself is not a
	// deviation.
	Tolerance float64

	// TargetMode is the mode the zone is expected to run in.
	TargetMode device.Mode

	// Measurements is the measurement budget; zero means unbounded.
	Measurements int

	// Revert enables corrective writes (alert-and-revert policy).
	// When false the zone is alert-only.
	Revert bool

	// CacheTTL bounds the age of cached zone state.
	CacheTTL time.Duration
}

// Key returns the zone's report key, e.g. "emulator_zone0".
func (s ZoneSpec) Key() string {
	return fmt.Sprintf("%s_zone%d", s.Type, s.Zone)
}

// Unbounded reports whether the zone polls until cancelled.
func (s ZoneSpec) Unbounded() bool {
	return s.Measurements == 0
}

// SpecFromConfig validates a zone entry and resolves it into a ZoneSpec.
//
// Validation failures are returned wrapped in ErrConfiguration so the
// orchestrator can record them as per-zone configuration errors.
func SpecFromConfig(z config.ZoneConfig, cacheTTL time.Duration) (ZoneSpec, error) {
	if err := z.Validate(); err != nil {
		return ZoneSpec{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	mode, err := device.ParseMode(z.TargetMode)
	if err != nil {
		return ZoneSpec{}, fmt.Errorf("%w: zone %s: %w", ErrConfiguration, z.Key(), err)
	}

	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return ZoneSpec{
		Type:            z.ThermostatType,
		Zone:            z.Zone,
		PollInterval:    z.PollInterval(),
		SessionDuration: z.SessionDuration(),
		Tolerance:       z.Tolerance,
		TargetMode:      mode,
		Measurements:    int(z.Measurements),
		Revert:          z.Revert,
		CacheTTL:        cacheTTL,
	}, nil
}

// SessionState identifies one connect-to-disconnect lifecycle.
//
// The value is replaced, never mutated, on every reconnect.
type SessionState struct {
	// Count is the 1-based session number within the run.
	Count int

	// StartedAt is when the session was established.
	StartedAt time.Time
}

// Measurement is one sampled observation recorded during a poll tick.
//
// Once appended to a zone's result list a Measurement is never mutated.
// Index is strictly increasing per zone, starting at 1, with no gaps.
type Measurement struct {
	Index       int
	Timestamp   time.Time
	Temperature float64
	Humidity    *float64
	Mode        device.Mode
	WorkerID    string
}

// MarshalJSON emits the external measurement representation, with the
// timestamp as Unix epoch seconds.
func (m Measurement) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp   float64  `json:"timestamp"`
		Index       int      `json:"index"`
		Temperature float64  `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
		Mode        string   `json:"mode"`
		WorkerID    string   `json:"worker_id"`
	}{
		Timestamp:   float64(m.Timestamp.UnixNano()) / float64(time.Second),
		Index:       m.Index,
		Temperature: m.Temperature,
		Humidity:    m.Humidity,
		Mode:        string(m.Mode),
		WorkerID:    m.WorkerID,
	})
}
