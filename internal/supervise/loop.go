package supervise

import (
	"context"
	"fmt"
	"time"

	"github.com/thermosentry/thermosentry/internal/device"
)

// maxBarrenSessions caps consecutive sessions that end in a poll error
// without producing a single measurement. Poll failures normally cycle the
// session (degraded-but-continue), but a device that connects fine and then
// fails every read would otherwise churn sessions forever on an unbounded
// zone.
const maxBarrenSessions = 3

// Logger defines the logging interface used by the Loop.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Loop is the supervision state machine for one zone.
//
// It owns the session lifecycle, the state cache, the deviation decisions
// and the in-progress measurement list. A Loop is driven by exactly one
// goroutine; it is not safe for concurrent use.
type Loop struct {
	spec     ZoneSpec
	registry *device.Registry

	logger   Logger
	observer Observer
	workerID string

	// Clock and sleep hooks, replaceable in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLoop creates a supervision loop for the given zone spec.
func NewLoop(spec ZoneSpec, registry *device.Registry) *Loop {
	return &Loop{
		spec:     spec,
		registry: registry,
		logger:   noopLogger{},
		observer: NopObserver{},
		workerID: "worker-0-" + spec.Key(),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// SetLogger sets the logger for the loop.
func (l *Loop) SetLogger(logger Logger) {
	l.logger = logger
}

// SetObserver sets the event observer for the loop.
func (l *Loop) SetObserver(observer Observer) {
	l.observer = observer
}

// SetWorkerID sets the worker identity recorded on every measurement.
func (l *Loop) SetWorkerID(id string) {
	l.workerID = id
}

// Supervise runs the zone until its measurement budget is exhausted or the
// context is cancelled.
//
// The outer loop cycles device sessions unconditionally: each session lives
// at most SessionDuration or until the measurement budget is reached,
// whichever comes first, then is torn down and replaced. Cancellation is
// observed at session boundaries only; the measurements taken so far are
// returned in either case.
//
// The returned error is terminal for the zone (connection establishment
// failure, repeated barren sessions) and is always classified by one of
// this package's sentinel errors. A nil error with a full measurement list
// is a successful run.
func (l *Loop) Supervise(ctx context.Context) ([]Measurement, error) {
	measurements := make([]Measurement, 0, l.spec.Measurements)
	session := SessionState{}
	barren := 0

	for !l.budgetReached(len(measurements)) {
		// Cooperative stop: checked once per session boundary, never
		// mid vendor-call.
		if ctx.Err() != nil {
			l.logger.Info("stop requested, exiting after session boundary",
				"measurements", len(measurements),
				"sessions", session.Count,
			)
			return measurements, nil
		}

		session = SessionState{Count: session.Count + 1, StartedAt: l.now()}
		l.logger.Info("connecting to thermostat",
			"session", session.Count,
			"type", l.spec.Type,
			"zone", l.spec.Zone,
		)

		adapter, err := l.registry.Connect(ctx, l.spec.Type, l.spec.Zone)
		if err != nil {
			// Session establishment failure is terminal for the zone.
			return measurements, fmt.Errorf("%w: session %d: %w", ErrConnection, session.Count, err)
		}
		l.observer.SessionStarted(l.spec.Key(), session)

		countBefore := len(measurements)
		sessionErr := l.runSession(ctx, adapter, session, &measurements)

		if closeErr := adapter.Close(); closeErr != nil {
			l.logger.Warn("session teardown error", "session", session.Count, "error", closeErr)
		}

		if sessionErr != nil {
			l.logger.Warn("session aborted, cycling connection",
				"session", session.Count,
				"error", sessionErr,
			)
			if len(measurements) == countBefore {
				barren++
				if barren >= maxBarrenSessions {
					return measurements, fmt.Errorf("%w: %d consecutive sessions without a measurement: %w",
						ErrConnection, barren, sessionErr)
				}
			} else {
				barren = 0
			}
			continue
		}
		barren = 0
	}

	l.logger.Info("measurements completed",
		"count", len(measurements),
		"sessions", session.Count,
	)
	return measurements, nil
}

// runSession runs the inner poll loop against one established session.
//
// It returns nil when the session expired naturally (time budget) or the
// measurement budget was reached or the context was cancelled; it returns
// an ErrPoll-classified error when device I/O failed mid-session.
func (l *Loop) runSession(ctx context.Context, adapter device.Adapter, session SessionState, measurements *[]Measurement) error {
	cache := NewStateCache(adapter, l.spec.CacheTTL)
	deadline := session.StartedAt.Add(l.spec.SessionDuration)

	for {
		tickStart := l.now()

		state, err := cache.Refresh(ctx, false)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPoll, err)
		}

		var target float64
		if state.Mode.IsControlled() {
			target, err = adapter.ScheduleSetpoint(ctx, device.KindForMode(state.Mode))
			if err != nil {
				return fmt.Errorf("%w: reading schedule setpoint: %w", ErrPoll, err)
			}
		}

		decision := Evaluate(state, target, l.spec)

		if decision.Deviated {
			l.logger.Warn("setpoint deviated from schedule",
				"mode", state.Mode,
				"active", state.ActiveSetpoint,
				"schedule", decision.ScheduleTarget,
				"tolerance", l.spec.Tolerance,
			)
		}

		if decision.Correctable {
			state = l.correct(ctx, adapter, cache, decision, state)
		}

		m := Measurement{
			Index:       len(*measurements) + 1,
			Timestamp:   l.now(),
			Temperature: state.Temperature,
			Mode:        state.Mode,
			WorkerID:    l.workerID,
		}
		if state.HumiditySupported {
			h := state.Humidity
			m.Humidity = &h
		}
		*measurements = append(*measurements, m)
		l.observer.MeasurementTaken(l.spec.Key(), m, decision.Deviated)

		l.logger.Debug("measurement taken",
			"index", m.Index,
			"temperature", m.Temperature,
			"mode", m.Mode,
			"deviated", decision.Deviated,
		)

		if l.budgetReached(len(*measurements)) {
			return nil
		}

		// Sleep out the remainder of the poll interval.
		if remaining := l.spec.PollInterval - l.now().Sub(tickStart); remaining > 0 {
			if err := l.sleep(ctx, remaining); err != nil {
				// Cancelled mid-sleep: end the session cleanly; the
				// outer loop observes the context at its boundary.
				return nil
			}
		}

		if !l.now().Before(deadline) {
			l.logger.Info("session time budget exhausted, forcing re-connection",
				"session", session.Count,
			)
			return nil
		}
	}
}

// correct issues a corrective setpoint write and returns the post-attempt
// zone state. Write failures are logged and reported but never abort the
// tick; the measurement falls back to the pre-write snapshot.
func (l *Loop) correct(ctx context.Context, adapter device.Adapter, cache *StateCache, decision Decision, state device.ZoneState) device.ZoneState {
	err := adapter.SetSetpoint(ctx, decision.Kind, decision.ScheduleTarget)
	l.observer.CorrectionIssued(l.spec.Key(), decision.ScheduleTarget, err)

	if err != nil {
		l.logger.Error("correction write failed",
			"kind", decision.Kind,
			"target", decision.ScheduleTarget,
			"error", fmt.Errorf("%w: %w", ErrCorrectionWrite, err),
		)
		return state
	}

	l.logger.Info("deviation reverted to schedule setpoint",
		"kind", decision.Kind,
		"target", decision.ScheduleTarget,
	)

	// Re-query so the tick's measurement reflects the post-correction
	// state rather than the stale pre-write snapshot.
	fresh, err := cache.Refresh(ctx, true)
	if err != nil {
		l.logger.Warn("post-correction refresh failed", "error", err)
		return state
	}
	return fresh
}

// budgetReached reports whether the measurement budget is exhausted.
// Unbounded zones never reach their budget.
func (l *Loop) budgetReached(taken int) bool {
	return !l.spec.Unbounded() && taken >= l.spec.Measurements
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
