// Package influxdb exports supervision telemetry to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking batched writes, and health monitoring.
//
// # Purpose
//
// Time-series export of the live supervision stream:
//   - Per-tick zone measurements (temperature, humidity, setpoints)
//   - Deviation flags and corrective writes
//   - Session cycling events
//
// The in-run measurement lists and the final report never depend on this
// package; export is fire-and-forget telemetry.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteMeasurement("emulator_zone0", m, false)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Writes are batched according to config (batch_size, flush_interval) and
// errors surface asynchronously via SetOnError.
package influxdb
