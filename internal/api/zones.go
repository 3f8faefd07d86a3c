package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thermosentry/thermosentry/internal/infrastructure/config"
)

// zoneSummary is the external representation of a configured zone.
type zoneSummary struct {
	Key            string  `json:"key"`
	ThermostatType string  `json:"thermostat_type"`
	Zone           int     `json:"zone"`
	Enabled        bool    `json:"enabled"`
	PollTime       int     `json:"poll_time"`
	ConnectionTime int     `json:"connection_time"`
	Tolerance      float64 `json:"tolerance"`
	TargetMode     string  `json:"target_mode"`
	Measurements   any     `json:"measurements"` // integer or "unbounded"
	Revert         bool    `json:"revert"`
}

func summarizeZone(z config.ZoneConfig) zoneSummary {
	var measurements any = int(z.Measurements)
	if z.Measurements.Unbounded() {
		measurements = "unbounded"
	}
	return zoneSummary{
		Key:            z.Key(),
		ThermostatType: z.ThermostatType,
		Zone:           z.Zone,
		Enabled:        z.IsEnabled(),
		PollTime:       z.PollTime,
		ConnectionTime: z.ConnectionTime,
		Tolerance:      z.Tolerance,
		TargetMode:     z.TargetMode,
		Measurements:   measurements,
		Revert:         z.Revert,
	}
}

// handleListZones returns all configured zones, including disabled ones.
func (s *Server) handleListZones(w http.ResponseWriter, _ *http.Request) {
	zones := make([]zoneSummary, 0, len(s.zones))
	for _, z := range s.zones {
		zones = append(zones, summarizeZone(z))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"zones": zones,
		"count": len(zones),
	})
}

// handleGetZone returns a single zone by its report key.
func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	for _, z := range s.zones {
		if z.Key() == key {
			writeJSON(w, http.StatusOK, summarizeZone(z))
			return
		}
	}
	writeNotFound(w, "zone not found: "+key)
}

// handleReport returns the most recent run report.
func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	if s.report == nil {
		writeNotFound(w, "no report available")
		return
	}
	report := s.report()
	if report == nil {
		writeNotFound(w, "no completed run yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
