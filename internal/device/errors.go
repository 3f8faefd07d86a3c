package device

import "errors"

// Sentinel errors for driver resolution and session establishment.
//
// These can be checked with errors.Is() for specific handling:
//
//	if errors.Is(err, device.ErrMissingCredentials) {
//	    // abort this zone, leave the others running
//	}
var (
	// ErrUnknownType indicates no driver is registered for the requested
	// thermostat type tag.
	ErrUnknownType = errors.New("device: unknown thermostat type")

	// ErrMissingCredentials indicates a required environment variable for
	// the driver is absent. Detected before any connection attempt.
	ErrMissingCredentials = errors.New("device: missing required credentials")

	// ErrInvalidMode indicates a mode tag outside the supported set.
	ErrInvalidMode = errors.New("device: invalid mode")

	// ErrNotSupported indicates the operation is not available on this
	// device type (e.g. setpoint writes on a measure-only sensor).
	ErrNotSupported = errors.New("device: operation not supported")
)
