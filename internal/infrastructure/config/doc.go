// Package config handles loading and validating ThermoSentry configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//   - The per-zone supervision records (ZoneConfig)
//
// Site-wide settings are validated strictly at load time. Per-zone entries
// are only shape-checked here; their semantic validation happens at
// supervision time so one malformed zone fails alone instead of aborting
// the whole run.
//
// Security Considerations:
//   - Sensitive values (passwords, tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - JWT secrets must be set before enabling the status API
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, zone := range cfg.EnabledZones() {
//	    fmt.Println(zone.Key())
//	}
package config
