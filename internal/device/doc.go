// Package device defines the vendor-neutral thermostat adapter contract and
// the driver registry used to resolve a thermostat type tag to a concrete
// adapter implementation.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                      Driver Registry                         │
//	│                                                              │
//	│   "emulator" ──▶ Driver{Factory, RequiredEnv}                │
//	│   "mqtt"     ──▶ Driver{Factory, RequiredEnv}                │
//	│   "sht31"    ──▶ Driver{Factory, RequiredEnv}                │
//	└───────────────────────────┬──────────────────────────────────┘
//	                            │ Resolve(tag)
//	                            ▼
//	                 Factory(ctx, zoneID) ──▶ Adapter
//
// An Adapter represents one connect-to-disconnect session against a single
// zone of a vendor device. Sessions are deliberately short-lived: the
// supervision loop cycles them on a fixed time/measurement cadence, so
// adapters must tolerate frequent reconnects.
//
// Drivers are registered once at startup; resolution is a plain map lookup,
// never reflection.
//
// # Key Types
//
//   - Adapter: one live session against a zone (state, schedule, writes)
//   - ZoneState: a point-in-time snapshot of a zone
//   - Mode: thermostat operating mode (HEAT_MODE, COOL_MODE, ...)
//   - Driver: factory plus credential requirements for one vendor type
//   - Registry: thread-safe tag → Driver catalogue
package device
