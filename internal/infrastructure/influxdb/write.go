package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/thermosentry/thermosentry/internal/supervise"
)

// WriteMeasurement writes one supervision measurement to InfluxDB.
//
// The write is non-blocking; data is batched and sent asynchronously.
// The point is stamped with the measurement's poll-tick timestamp, not
// the write time.
func (c *Client) WriteMeasurement(zoneKey string, m supervise.Measurement, deviated bool) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"temperature": m.Temperature,
		"index":       m.Index,
		"deviated":    deviated,
	}
	if m.Humidity != nil {
		fields["humidity"] = *m.Humidity
	}

	point := write.NewPoint(
		"zone_measurement",
		map[string]string{
			"zone":   zoneKey,
			"mode":   string(m.Mode),
			"worker": m.WorkerID,
		},
		fields,
		m.Timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteCorrection records a corrective setpoint write attempt.
func (c *Client) WriteCorrection(zoneKey string, target float64, succeeded bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"zone_correction",
		map[string]string{
			"zone": zoneKey,
		},
		map[string]interface{}{
			"target":    target,
			"succeeded": succeeded,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSession records a session establishment for connection-churn
// dashboards.
func (c *Client) WriteSession(zoneKey string, sessionCount int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"zone_session",
		map[string]string{
			"zone": zoneKey,
		},
		map[string]interface{}{
			"count": sessionCount,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// Observer adapts the client to the supervision observer interface so the
// orchestrator can fan measurements straight into the exporter.
type Observer struct {
	Client *Client
}

func (o Observer) SessionStarted(zoneKey string, session supervise.SessionState) {
	o.Client.WriteSession(zoneKey, session.Count)
}

func (o Observer) MeasurementTaken(zoneKey string, m supervise.Measurement, deviated bool) {
	o.Client.WriteMeasurement(zoneKey, m, deviated)
}

func (o Observer) CorrectionIssued(zoneKey string, target float64, err error) {
	o.Client.WriteCorrection(zoneKey, target, err == nil)
}
