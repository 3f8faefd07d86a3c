package supervise

// Observer receives supervision events from a zone worker.
//
// Implementations fan events out to telemetry sinks (metrics, InfluxDB,
// the live WebSocket stream, email alerts) without the loop knowing any
// of them. Callbacks run on the worker's goroutine and must not block.
type Observer interface {
	// SessionStarted fires after each successful session establishment.
	SessionStarted(zoneKey string, session SessionState)

	// MeasurementTaken fires once per poll tick, after the measurement
	// has been appended.
	MeasurementTaken(zoneKey string, m Measurement, deviated bool)

	// CorrectionIssued fires for every corrective write attempt.
	// err is nil on success.
	CorrectionIssued(zoneKey string, target float64, err error)
}

// NopObserver is an Observer that ignores all events.
// Embed it to implement only the callbacks you care about.
type NopObserver struct{}

func (NopObserver) SessionStarted(string, SessionState)         {}
func (NopObserver) MeasurementTaken(string, Measurement, bool)  {}
func (NopObserver) CorrectionIssued(string, float64, error)     {}

// Observers fans events out to multiple observers in order.
type Observers []Observer

func (os Observers) SessionStarted(zoneKey string, session SessionState) {
	for _, o := range os {
		o.SessionStarted(zoneKey, session)
	}
}

func (os Observers) MeasurementTaken(zoneKey string, m Measurement, deviated bool) {
	for _, o := range os {
		o.MeasurementTaken(zoneKey, m, deviated)
	}
}

func (os Observers) CorrectionIssued(zoneKey string, target float64, err error) {
	for _, o := range os {
		o.CorrectionIssued(zoneKey, target, err)
	}
}
