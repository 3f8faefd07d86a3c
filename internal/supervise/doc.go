// Package supervise implements the per-zone supervision loop: session
// lifecycle, TTL-bounded state caching, deviation detection, and corrective
// setpoint writes.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                       Loop (loop.go)                         │
//	│                                                              │
//	│  outer loop: one iteration per device session                │
//	│    connect ──▶ inner poll loop ──▶ teardown ──▶ reconnect    │
//	│                                                              │
//	│  inner loop: one iteration per poll tick                     │
//	│    StateCache.Refresh ──▶ Evaluate ──▶ [SetSetpoint]         │
//	│                      ──▶ append Measurement ──▶ sleep        │
//	└──────────────────────────────────────────────────────────────┘
//
// Sessions are cycled unconditionally on a time/measurement cadence, not
// only on error. This bounds the lifetime of any single vendor connection
// regardless of its health, which matters for cloud services that quietly
// rot long-lived sessions.
//
// Each Loop owns all of its state: the session, the cache entry, and the
// in-progress measurement list. Nothing here is shared across zones, so
// the package contains no locks.
//
// # Cancellation
//
// A cancelled context is observed at session boundaries. The current
// session is torn down cleanly and Supervise returns the measurements
// taken so far. In-flight vendor calls are never force-interrupted,
// though drivers receive the context and may honor it themselves.
//
// # Key Types
//
//   - ZoneSpec: resolved, immutable supervision parameters for one zone
//   - Loop: the per-zone supervision state machine
//   - StateCache: TTL-bounded cache over adapter reads
//   - Decision: the outcome of one deviation evaluation
//   - Measurement: one sampled observation, append-only
package supervise
