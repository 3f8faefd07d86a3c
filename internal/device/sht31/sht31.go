// Package sht31 implements the driver for SHT31 temperature and humidity
// sensor boards exposed over a small HTTP JSON endpoint.
//
// The board is measure-only: it always reports OFF_MODE, has no setpoints
// and rejects writes. Sensor boards on flaky WiFi links fail in bursts,
// so every request goes through a circuit breaker; while the breaker is
// open the driver fails fast instead of hammering the board.
package sht31

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/thermosentry/thermosentry/internal/device"
)

// Alias is the registry type tag for SHT31 sensor boards.
const Alias = "sht31"

// envAddrPrefix names the per-zone board address variables,
// e.g. SHT31_REMOTE_IP_ADDRESS_0 for zone 0.
const envAddrPrefix = "SHT31_REMOTE_IP_ADDRESS_"

const (
	defaultPort         = 5000
	defaultSamples      = 10
	requestTimeout      = 10 * time.Second
	breakerOpenInterval = 30 * time.Second
)

// ErrWriteUnsupported is returned for any setpoint write: the board is a
// sensor, not a thermostat.
var ErrWriteUnsupported = fmt.Errorf("sht31: %w", device.ErrNotSupported)

// EnvAddr returns the environment variable naming a zone's board address.
func EnvAddr(zoneID int) string {
	return fmt.Sprintf("%s%d", envAddrPrefix, zoneID)
}

// Register wires the driver into a registry under Alias. Each zone
// requires its board address in the environment; the registry rejects
// the zone before the factory runs when it is missing.
func Register(reg *device.Registry, zoneIDs ...int) {
	required := make([]string, 0, len(zoneIDs))
	for _, id := range zoneIDs {
		required = append(required, EnvAddr(id))
	}
	reg.Register(Alias, device.Driver{
		Factory: func(_ context.Context, zoneID int) (device.Adapter, error) {
			return New(os.Getenv(EnvAddr(zoneID)), zoneID), nil
		},
		RequiredEnv: required,
	})
}

// reading is the JSON document the board serves.
type reading struct {
	Measurements int     `json:"measurements"`
	TempFMean    float64 `json:"Temp(F) mean"`
	TempFStd     float64 `json:"Temp(F) std"`
	HumidityMean float64 `json:"Humidity(%RH) mean"`
	HumidityStd  float64 `json:"Humidity(%RH) std"`
}

// Adapter is one session against an SHT31 sensor board.
type Adapter struct {
	baseURL string
	zoneID  int
	samples int

	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// New creates a session for the board at the given address. The address
// is a host or host:port; the default board port is used when omitted.
func New(addr string, zoneID int) *Adapter {
	if !strings.Contains(addr, ":") {
		addr = fmt.Sprintf("%s:%d", addr, defaultPort)
	}
	return &Adapter{
		baseURL: "http://" + addr,
		zoneID:  zoneID,
		samples: defaultSamples,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    fmt.Sprintf("sht31-zone%d", zoneID),
			Timeout: breakerOpenInterval,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// State fetches a fresh averaged reading from the board.
func (a *Adapter) State(ctx context.Context, _ bool) (device.ZoneState, error) {
	result, err := a.breaker.Execute(func() (any, error) {
		return a.fetch(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return device.ZoneState{}, fmt.Errorf("sht31: zone %d circuit open: %w", a.zoneID, err)
		}
		return device.ZoneState{}, err
	}
	r := result.(*reading)

	return device.ZoneState{
		Temperature:       r.TempFMean,
		Humidity:          r.HumidityMean,
		HumiditySupported: true,
		Mode:              device.ModeOff,
		FetchedAt:         time.Now(),
	}, nil
}

// fetch performs one HTTP request against the board.
func (a *Adapter) fetch(ctx context.Context) (*reading, error) {
	url := fmt.Sprintf("%s/?measurements=%d", a.baseURL, a.samples)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("sht31: building request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sht31: zone %d: %w", a.zoneID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sht31: zone %d: status %d: %s", a.zoneID, resp.StatusCode, body)
	}

	var r reading
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("sht31: decoding reading: %w", err)
	}
	return &r, nil
}

// ScheduleSetpoint is unsupported: the sensor has no schedule.
func (a *Adapter) ScheduleSetpoint(context.Context, device.SetpointKind) (float64, error) {
	return 0, ErrWriteUnsupported
}

// SetSetpoint is unsupported: the sensor accepts no writes.
func (a *Adapter) SetSetpoint(context.Context, device.SetpointKind, float64) error {
	return ErrWriteUnsupported
}

// Close releases the session. The board is stateless over HTTP, so there
// is nothing to tear down.
func (a *Adapter) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}
