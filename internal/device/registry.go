package device

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Driver describes one vendor thermostat integration.
type Driver struct {
	// Factory opens sessions for this vendor type.
	Factory Factory

	// RequiredEnv lists environment variables that must be present before
	// any session is attempted (API keys, account credentials). An empty
	// list means the driver needs no external credentials.
	RequiredEnv []string
}

// Registry maps thermostat type tags to their drivers.
//
// Drivers are registered during startup wiring; after that the registry is
// effectively read-only, but all methods are safe for concurrent use so
// workers can resolve drivers freely.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry creates an empty driver registry.
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]Driver),
	}
}

// Register adds a driver under the given type tag.
// Registering the same tag twice replaces the earlier driver.
func (r *Registry) Register(typeTag string, drv Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[typeTag] = drv
}

// Resolve returns the driver for a type tag.
// Returns ErrUnknownType if no driver is registered for the tag.
func (r *Registry) Resolve(typeTag string) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	drv, ok := r.drivers[typeTag]
	if !ok {
		return Driver{}, fmt.Errorf("%w: %q", ErrUnknownType, typeTag)
	}
	return drv, nil
}

// Types returns the registered type tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.drivers))
	for tag := range r.drivers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Connect verifies the driver's credentials and opens a session.
//
// Credential checks run before the connection attempt so a missing API key
// surfaces as ErrMissingCredentials rather than an opaque vendor error.
func (r *Registry) Connect(ctx context.Context, typeTag string, zoneID int) (Adapter, error) {
	drv, err := r.Resolve(typeTag)
	if err != nil {
		return nil, err
	}

	for _, name := range drv.RequiredEnv {
		if os.Getenv(name) == "" {
			return nil, fmt.Errorf("%w: %s (type %q)", ErrMissingCredentials, name, typeTag)
		}
	}

	adapter, err := drv.Factory(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s zone %d: %w", typeTag, zoneID, err)
	}
	return adapter, nil
}
