// Package mqttstat implements the thermostat driver for broker-backed
// devices.
//
// The firmware publishes a retained JSON state document per zone on
// thermosentry/zone/{type}/{zone}/state and accepts setpoint and mode
// commands on the corresponding command topics. Because the state topic
// is retained, a freshly connected session receives the current document
// immediately; the driver waits for it with exponential backoff before
// declaring the session established.
package mqttstat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/thermosentry/thermosentry/internal/device"
	"github.com/thermosentry/thermosentry/internal/infrastructure/mqtt"
)

// Alias is the registry type tag for broker-backed thermostats.
const Alias = "mqtt"

// maxStateWait bounds how long a connecting session waits for the
// retained state document before giving up.
const maxStateWait = 15 * time.Second

var (
	// ErrNoState indicates no state document arrived within the
	// connection window.
	ErrNoState = errors.New("mqttstat: no state document received")

	// ErrStaleState indicates State was called before any document
	// arrived on an established session.
	ErrStaleState = errors.New("mqttstat: state document not yet available")
)

// Bus is the broker surface the driver needs. *mqtt.Client satisfies it.
type Bus interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Register wires the driver into a registry under Alias, with all
// sessions sharing one broker connection.
func Register(reg *device.Registry, bus Bus, qos byte) {
	reg.Register(Alias, device.Driver{
		Factory: func(ctx context.Context, zoneID int) (device.Adapter, error) {
			return Connect(ctx, bus, zoneID, qos)
		},
	})
}

// stateDocument is the retained JSON document the firmware publishes.
type stateDocument struct {
	Temperature float64            `json:"temperature"`
	Humidity    *float64           `json:"humidity"`
	Mode        string             `json:"mode"`
	Setpoints   map[string]float64 `json:"setpoints"`
	Schedule    map[string]float64 `json:"schedule"`
	Hold        bool               `json:"hold"`
}

// Adapter is one session against a broker-backed zone.
type Adapter struct {
	bus    Bus
	zoneID int
	qos    byte

	mu         sync.RWMutex
	doc        *stateDocument
	receivedAt time.Time
}

// Connect subscribes to the zone's state topic and waits for the retained
// state document. The wait retries with exponential backoff, bounded by
// maxStateWait and the context.
func Connect(ctx context.Context, bus Bus, zoneID int, qos byte) (device.Adapter, error) {
	a := &Adapter{bus: bus, zoneID: zoneID, qos: qos}

	topic := mqtt.Topics{}.ZoneState(Alias, zoneID)
	if err := bus.Subscribe(topic, qos, a.handleState); err != nil {
		return nil, fmt.Errorf("mqttstat: subscribing to %s: %w", topic, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = maxStateWait

	err := backoff.Retry(func() error {
		a.mu.RLock()
		defer a.mu.RUnlock()
		if a.doc == nil {
			return ErrNoState
		}
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		bus.Unsubscribe(topic)
		return nil, fmt.Errorf("mqttstat: zone %d: %w", zoneID, err)
	}

	return a, nil
}

// handleState decodes an incoming state document and replaces the cached
// one. Runs on the broker client's handler goroutine.
func (a *Adapter) handleState(_ string, payload []byte) error {
	var doc stateDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("mqttstat: decoding state document: %w", err)
	}

	a.mu.Lock()
	a.doc = &doc
	a.receivedAt = time.Now()
	a.mu.Unlock()
	return nil
}

// State returns the zone state from the last received document.
func (a *Adapter) State(_ context.Context, _ bool) (device.ZoneState, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.doc == nil {
		return device.ZoneState{}, ErrStaleState
	}

	mode, err := device.ParseMode(a.doc.Mode)
	if err != nil {
		mode = device.ModeUnknown
	}

	state := device.ZoneState{
		Temperature:    a.doc.Temperature,
		Mode:           mode,
		ActiveSetpoint: a.doc.Setpoints[string(device.KindForMode(mode))],
		HoldActive:     a.doc.Hold,
		FetchedAt:      a.receivedAt,
	}
	if a.doc.Humidity != nil {
		state.Humidity = *a.doc.Humidity
		state.HumiditySupported = true
	}
	return state, nil
}

// ScheduleSetpoint returns the schedule target from the state document.
func (a *Adapter) ScheduleSetpoint(_ context.Context, kind device.SetpointKind) (float64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.doc == nil {
		return 0, ErrStaleState
	}
	target, ok := a.doc.Schedule[string(kind)]
	if !ok {
		return 0, fmt.Errorf("mqttstat: no %s schedule setpoint in state document", kind)
	}
	return target, nil
}

// SetSetpoint publishes a setpoint command for the zone.
func (a *Adapter) SetSetpoint(_ context.Context, kind device.SetpointKind, value float64) error {
	payload, err := json.Marshal(struct {
		Value float64 `json:"value"`
	}{Value: value})
	if err != nil {
		return fmt.Errorf("mqttstat: encoding setpoint command: %w", err)
	}

	topic := mqtt.Topics{}.ZoneSetpointCommand(Alias, a.zoneID, string(kind))
	if err := a.bus.Publish(topic, payload, a.qos, false); err != nil {
		return fmt.Errorf("mqttstat: publishing setpoint command: %w", err)
	}
	return nil
}

// Close drops the state subscription. The shared broker connection stays
// up for other zones.
func (a *Adapter) Close() error {
	topic := mqtt.Topics{}.ZoneState(Alias, a.zoneID)
	if err := a.bus.Unsubscribe(topic); err != nil {
		return fmt.Errorf("mqttstat: unsubscribing from %s: %w", topic, err)
	}
	return nil
}
