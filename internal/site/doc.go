// Package site fans supervision out across every enabled zone and folds
// the outcomes into a single report.
//
// # Architecture
//
//	                 ┌──────────────────────────────┐
//	  config zones → │         Orchestrator         │
//	                 │  (worker per enabled zone,   │
//	                 │   or strict config order)    │
//	                 └──────┬───────┬───────┬───────┘
//	                        │       │       │
//	                   ┌────▼──┐ ┌──▼────┐ ┌▼──────┐
//	                   │ Loop  │ │ Loop  │ │ Loop  │   internal/supervise
//	                   │ zone0 │ │ zone1 │ │ zone2 │
//	                   └────┬──┘ └──┬────┘ └┬──────┘
//	                        │       │       │
//	                 ┌──────▼───────▼───────▼───────┐
//	                 │            Report            │
//	                 │   results[key] errors[key]   │
//	                 └──────────────────────────────┘
//
// Failure isolation is absolute: an error inside one zone's loop is caught
// at that worker's boundary and recorded against that zone's key, and can
// never cancel, block or truncate another zone's run. The Report mutex
// guards inserts only; all polling state is exclusively owned by its
// worker.
//
// Disabled zones are invisible: no worker, no adapter calls, no report
// entry.
package site
