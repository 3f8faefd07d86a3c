// ThermoSentry - Thermostat Supervision Engine
//
// This is the main entry point for the ThermoSentry supervisor. It loads
// the site configuration, wires the thermostat drivers and telemetry
// sinks, runs one supervision pass over every enabled zone and archives
// the resulting report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/thermosentry/thermosentry/internal/api"
	"github.com/thermosentry/thermosentry/internal/device"
	"github.com/thermosentry/thermosentry/internal/device/emulator"
	"github.com/thermosentry/thermosentry/internal/device/mqttstat"
	"github.com/thermosentry/thermosentry/internal/device/sht31"
	"github.com/thermosentry/thermosentry/internal/infrastructure/config"
	"github.com/thermosentry/thermosentry/internal/infrastructure/database"
	"github.com/thermosentry/thermosentry/internal/infrastructure/influxdb"
	"github.com/thermosentry/thermosentry/internal/infrastructure/logging"
	"github.com/thermosentry/thermosentry/internal/infrastructure/mqtt"
	"github.com/thermosentry/thermosentry/internal/metrics"
	"github.com/thermosentry/thermosentry/internal/notify"
	"github.com/thermosentry/thermosentry/internal/site"
	"github.com/thermosentry/thermosentry/internal/store"
	"github.com/thermosentry/thermosentry/internal/supervise"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	showZones := flag.Bool("zones", false, "print the configured zones and exit")
	jsonReport := flag.Bool("json", false, "print the run report as JSON on completion")
	flag.Parse()

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *showZones, *jsonReport); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context, showZones, jsonReport bool) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ThermoSentry",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	if showZones {
		fmt.Print(site.DisplayAllZones(cfg.Zones))
		return nil
	}

	// Open the run archive (optional)
	var archive *store.Store
	if cfg.Database.Path != "" {
		archive, err = store.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening run archive: %w", err)
		}
		defer func() {
			log.Info("closing run archive")
			if closeErr := archive.Close(); closeErr != nil {
				log.Error("error closing run archive", "error", closeErr)
			}
		}()
		log.Info("run archive opened", "path", cfg.Database.Path)
	} else {
		log.Info("run archive disabled")
	}

	// Build the driver registry
	registry := device.NewRegistry()
	emulator.Register(registry)
	sht31.Register(registry, sht31Zones(cfg.Zones)...)

	// Connect to MQTT broker (optional; required by mqtt-type zones)
	if cfg.MQTT.Enabled {
		mqttClient, connErr := mqtt.Connect(cfg.MQTT)
		if connErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", connErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(discErr error) {
			log.Warn("MQTT disconnected", "error", discErr)
		})

		mqttstat.Register(registry, mqttClient, byte(cfg.MQTT.QoS))
	} else {
		log.Info("MQTT disabled")
	}

	// Observers fan supervision events out to the telemetry sinks.
	meters := metrics.New()
	observers := supervise.Observers{meters}

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(writeErr error) {
			log.Error("InfluxDB write error", "error", writeErr)
		})

		observers = append(observers, influxdb.Observer{Client: influxClient})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Email alerting (optional)
	mailer := notify.NewMailer(cfg.Email)
	mailer.SetLogger(log)
	if mailer.Enabled() {
		observers = append(observers, notify.Observer{
			Mailer:     mailer,
			Tolerances: zoneTolerances(cfg.Zones),
		})
		log.Info("email alerts enabled", "recipients", len(cfg.Email.To))
	} else {
		log.Info("email alerts disabled")
	}

	// The latest completed report, served by the API.
	var lastReport atomic.Pointer[site.Report]

	// Status API and live WebSocket stream (optional)
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Security: cfg.Security,
			Logger:   log,
			Zones:    cfg.Zones,
			Report:   lastReport.Load,
			Store:    archive,
			Metrics:  meters,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

		observers = append(observers, api.StreamObserver{Hub: server.Hub()})
	} else {
		log.Info("API server disabled")
	}

	// Run the supervision pass
	orch := site.NewOrchestrator(registry)
	orch.SetLogger(log)
	orch.SetObserver(observers)
	if cfg.Supervisor.CacheTTL > 0 {
		orch.SetCacheTTL(time.Duration(cfg.Supervisor.CacheTTL) * time.Second)
	}

	log.Info("supervision starting",
		"zones", len(cfg.Zones),
		"concurrent", cfg.Supervisor.Concurrent,
	)
	report := orch.SuperviseAll(ctx, cfg.Zones, cfg.Supervisor.Concurrent)
	lastReport.Store(report)

	for key, zerr := range report.Errors() {
		meters.ZoneFailed(key)
		mailer.SendZoneFailure(key, fmt.Errorf("%s", zerr.Message))
	}

	// Archive the run (best-effort)
	if archive != nil {
		if runID, saveErr := archive.SaveReport(ctx, cfg.Site.Name, report); saveErr != nil {
			log.Error("archiving run failed", "error", saveErr)
		} else {
			log.Info("run archived", "run_id", runID)
		}
	}

	mailer.SendRunSummary(cfg.Site.Name, report)

	fmt.Print(site.DisplayAllTemps(report))
	if jsonReport {
		data, marshalErr := json.MarshalIndent(report, "", "  ")
		if marshalErr != nil {
			return fmt.Errorf("encoding report: %w", marshalErr)
		}
		fmt.Println(string(data))
	}

	log.Info("supervision complete",
		"zones_ok", len(report.Results()),
		"zones_failed", len(report.Errors()),
		"success", report.Success(),
	)

	if !report.Success() {
		return fmt.Errorf("supervision finished with %d zone failure(s)", len(report.Errors()))
	}
	return nil
}

// getConfigPath returns the configuration file path.
// Uses THERMOSENTRY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("THERMOSENTRY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// sht31Zones returns the zone numbers of all configured SHT31 boards,
// enabled or not, so their credential requirements are known up front.
func sht31Zones(zones []config.ZoneConfig) []int {
	var ids []int
	for _, z := range zones {
		if z.ThermostatType == sht31.Alias {
			ids = append(ids, z.Zone)
		}
	}
	return ids
}

// zoneTolerances maps zone keys to their configured tolerance for alert wording.
func zoneTolerances(zones []config.ZoneConfig) map[string]float64 {
	out := make(map[string]float64, len(zones))
	for _, z := range zones {
		out[z.Key()] = z.Tolerance
	}
	return out
}
