package site

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/thermosentry/thermosentry/internal/supervise"
)

// ZoneError records a zone's terminal failure.
type ZoneError struct {
	Message   string
	Timestamp time.Time
}

// MarshalJSON emits the external error representation, with the timestamp
// as Unix epoch seconds.
func (e ZoneError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error     string  `json:"error"`
		Timestamp float64 `json:"timestamp"`
	}{
		Error:     e.Message,
		Timestamp: float64(e.Timestamp.UnixNano()) / float64(time.Second),
	})
}

// Report aggregates the outcome of one site run.
//
// Workers insert their completed (or partial) measurement lists and
// terminal errors under a single short-held mutex. The mutex guards
// inserts only; a zone's in-progress polling state is never behind it.
type Report struct {
	mu      sync.Mutex
	results map[string][]supervise.Measurement
	errors  map[string]ZoneError

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewReport creates an empty report stamped with the run start time.
func NewReport() *Report {
	return &Report{
		results:   make(map[string][]supervise.Measurement),
		errors:    make(map[string]ZoneError),
		StartedAt: time.Now(),
	}
}

// SetResult records a zone's measurement list.
func (r *Report) SetResult(zoneKey string, measurements []supervise.Measurement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[zoneKey] = measurements
}

// SetError records a zone's terminal failure.
func (r *Report) SetError(zoneKey string, err error, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[zoneKey] = ZoneError{Message: err.Error(), Timestamp: at}
}

// Results returns a copy of the per-zone measurement lists.
func (r *Report) Results() map[string][]supervise.Measurement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]supervise.Measurement, len(r.results))
	for k, v := range r.results {
		out[k] = v
	}
	return out
}

// Errors returns a copy of the per-zone terminal errors.
func (r *Report) Errors() map[string]ZoneError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]ZoneError, len(r.errors))
	for k, v := range r.errors {
		out[k] = v
	}
	return out
}

// Measurements returns one zone's measurement list, or nil.
func (r *Report) Measurements(zoneKey string) []supervise.Measurement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[zoneKey]
}

// Success reports whether every supervised zone produced a non-error
// result. The process exit code derives from this.
func (r *Report) Success() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors) == 0
}

// ZoneKeys returns the sorted union of result and error keys.
func (r *Report) ZoneKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{}, len(r.results)+len(r.errors))
	for k := range r.results {
		seen[k] = struct{}{}
	}
	for k := range r.errors {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON emits the external report representation:
//
//	{"results": {<zone_key>: [<measurement>, ...]},
//	 "errors":  {<zone_key>: {"error": ..., "timestamp": ...}}}
func (r *Report) MarshalJSON() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return json.Marshal(struct {
		Results map[string][]supervise.Measurement `json:"results"`
		Errors  map[string]ZoneError               `json:"errors"`
	}{
		Results: r.results,
		Errors:  r.errors,
	})
}
