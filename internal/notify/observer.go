package notify

import (
	"github.com/thermosentry/thermosentry/internal/supervise"
)

// Observer adapts a Mailer into the supervision event stream. Only
// deviated measurements produce mail; everything else is ignored.
type Observer struct {
	supervise.NopObserver

	Mailer *Mailer

	// Tolerances maps zone keys to their configured tolerance, used
	// only for alert wording.
	Tolerances map[string]float64
}

func (o Observer) MeasurementTaken(zoneKey string, m supervise.Measurement, deviated bool) {
	if !deviated || o.Mailer == nil {
		return
	}
	o.Mailer.SendDeviation(zoneKey, m, o.Tolerances[zoneKey])
}
