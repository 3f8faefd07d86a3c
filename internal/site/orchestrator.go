package site

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thermosentry/thermosentry/internal/device"
	"github.com/thermosentry/thermosentry/internal/infrastructure/config"
	"github.com/thermosentry/thermosentry/internal/infrastructure/logging"
	"github.com/thermosentry/thermosentry/internal/supervise"
)

// Orchestrator runs one supervision loop per enabled zone and aggregates
// the outcomes into a Report.
type Orchestrator struct {
	registry *device.Registry
	logger   *logging.Logger
	observer supervise.Observer
	cacheTTL time.Duration
}

// NewOrchestrator creates an orchestrator resolving drivers from the
// given registry.
func NewOrchestrator(registry *device.Registry) *Orchestrator {
	return &Orchestrator{registry: registry}
}

// SetLogger sets the site logger. Each zone worker logs through a child
// logger carrying its zone key.
func (o *Orchestrator) SetLogger(logger *logging.Logger) {
	o.logger = logger
}

// SetObserver sets the observer handed to every zone loop.
func (o *Orchestrator) SetObserver(observer supervise.Observer) {
	o.observer = observer
}

// SetCacheTTL overrides the default zone state cache TTL.
func (o *Orchestrator) SetCacheTTL(ttl time.Duration) {
	o.cacheTTL = ttl
}

// SuperviseAll supervises every enabled zone and returns the aggregated
// report.
//
// When concurrent is true each enabled zone runs on its own goroutine and
// SuperviseAll returns only after all of them have finished. Otherwise
// zones run one at a time in configuration order.
//
// Any error inside one zone is caught at that worker's boundary and
// recorded under the zone's key; it never affects another zone. Disabled
// zones get no worker, no adapter calls and no report entry. On
// cancellation the workers wind down at their session boundaries and the
// partial report is returned.
func (o *Orchestrator) SuperviseAll(ctx context.Context, zones []config.ZoneConfig, concurrent bool) *Report {
	report := NewReport()

	enabled := make([]config.ZoneConfig, 0, len(zones))
	for _, z := range zones {
		if z.IsEnabled() {
			enabled = append(enabled, z)
		}
	}

	if o.logger != nil {
		o.logger.Info("site supervision starting",
			"zones", len(enabled),
			"skipped", len(zones)-len(enabled),
			"concurrent", concurrent,
		)
	}

	if concurrent {
		var wg sync.WaitGroup
		for i, z := range enabled {
			wg.Add(1)
			go func(idx int, zone config.ZoneConfig) {
				defer wg.Done()
				o.superviseZone(ctx, idx, zone, report)
			}(i, z)
		}
		wg.Wait()
	} else {
		for i, z := range enabled {
			o.superviseZone(ctx, i, z, report)
		}
	}

	report.FinishedAt = time.Now()

	if o.logger != nil {
		o.logger.Info("site supervision finished",
			"zones", len(enabled),
			"failed", len(report.Errors()),
			"elapsed", report.FinishedAt.Sub(report.StartedAt),
		)
	}
	return report
}

// superviseZone is the worker boundary for one zone. Every per-zone error
// is absorbed here.
func (o *Orchestrator) superviseZone(ctx context.Context, idx int, zone config.ZoneConfig, report *Report) {
	key := zone.Key()

	spec, err := supervise.SpecFromConfig(zone, o.cacheTTL)
	if err != nil {
		// Rejected before any connection attempt.
		if o.logger != nil {
			o.logger.Error("zone configuration rejected", "zone", key, "error", err)
		}
		report.SetError(key, err, time.Now())
		return
	}

	loop := supervise.NewLoop(spec, o.registry)
	loop.SetWorkerID(fmt.Sprintf("worker-%d-%s", idx, key))
	if o.logger != nil {
		loop.SetLogger(o.logger.ForZone(key))
	}
	if o.observer != nil {
		loop.SetObserver(o.observer)
	}

	measurements, err := loop.Supervise(ctx)
	if err != nil {
		if o.logger != nil {
			o.logger.Error("zone supervision failed", "zone", key, "error", err,
				"measurements", len(measurements))
		}
		report.SetError(key, err, time.Now())
		if len(measurements) > 0 {
			// Partial results taken before the failure stay visible.
			report.SetResult(key, measurements)
		}
		return
	}

	report.SetResult(key, measurements)
}
