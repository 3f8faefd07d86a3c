package site

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/thermosentry/thermosentry/internal/infrastructure/config"
)

// DisplayAllZones formats the configured zones as an operator-readable
// table, disabled zones included.
func DisplayAllZones(zones []config.ZoneConfig) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "ZONE\tENABLED\tPOLL\tSESSION\tTOLERANCE\tMODE\tMEASUREMENTS\tPOLICY")
	for _, z := range zones {
		limit := "unbounded"
		if !z.Measurements.Unbounded() {
			limit = fmt.Sprintf("%d", z.Measurements)
		}
		policy := "alert-only"
		if z.Revert {
			policy = "alert-and-revert"
		}
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%.1f\t%s\t%s\t%s\n",
			z.Key(),
			z.IsEnabled(),
			z.PollInterval(),
			z.SessionDuration(),
			z.Tolerance,
			z.TargetMode,
			limit,
			policy,
		)
	}
	w.Flush()
	return b.String()
}

// DisplayAllTemps formats each zone's latest reading from a report.
// Zones that failed before producing a measurement show their error.
func DisplayAllTemps(r *Report) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)

	results := r.Results()
	errs := r.Errors()

	fmt.Fprintln(w, "ZONE\tTEMP\tHUMIDITY\tMODE\tSAMPLES")
	for _, key := range r.ZoneKeys() {
		ms := results[key]
		if len(ms) == 0 {
			if e, ok := errs[key]; ok {
				fmt.Fprintf(w, "%s\terror: %s\t\t\t0\n", key, e.Message)
			} else {
				fmt.Fprintf(w, "%s\t-\t-\t-\t0\n", key)
			}
			continue
		}
		last := ms[len(ms)-1]
		humidity := "-"
		if last.Humidity != nil {
			humidity = fmt.Sprintf("%.1f%%", *last.Humidity)
		}
		fmt.Fprintf(w, "%s\t%.1f°F\t%s\t%s\t%d\n",
			key, last.Temperature, humidity, last.Mode, len(ms))
	}
	w.Flush()
	return b.String()
}
