package supervise

import "errors"

// Sentinel errors classifying per-zone failures.
//
// Every error raised inside a zone's supervision is wrapped in exactly one
// of these, so the orchestrator (and tests) can classify outcomes with
// errors.Is():
//
//	if errors.Is(err, supervise.ErrConnection) {
//	    // terminal for this zone, recorded in the site report
//	}
var (
	// ErrConfiguration indicates an invalid or missing field in a zone
	// entry. Fatal for that zone only, raised before any connection
	// attempt.
	ErrConfiguration = errors.New("supervise: invalid zone configuration")

	// ErrConnection indicates session establishment against the remote
	// device failed. Terminal for the zone.
	ErrConnection = errors.New("supervise: connection failed")

	// ErrPoll indicates an I/O failure during an established session.
	// Ends the session; the zone cycles to a fresh one.
	ErrPoll = errors.New("supervise: poll failed")

	// ErrCorrectionWrite indicates a corrective setpoint write failed.
	// Logged only; the tick's measurement is still recorded.
	ErrCorrectionWrite = errors.New("supervise: correction write failed")
)
