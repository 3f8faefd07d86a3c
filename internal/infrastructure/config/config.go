package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for ThermoSentry.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Zones      []ZoneConfig     `yaml:"zones"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	Logging    LoggingConfig    `yaml:"logging"`
	Security   SecurityConfig   `yaml:"security"`
	Email      EmailConfig      `yaml:"email"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// SupervisorConfig contains site-wide supervision settings.
type SupervisorConfig struct {
	// Concurrent runs one worker per enabled zone when true; zones run
	// strictly in configuration order otherwise.
	Concurrent bool `yaml:"concurrent"`

	// CacheTTL is the zone state cache time-to-live in seconds.
	CacheTTL int `yaml:"cache_ttl"`
}

// UnboundedMeasurements is the MeasurementLimit value meaning "poll forever".
const UnboundedMeasurements MeasurementLimit = 0

// MeasurementLimit is the number of measurements to take for a zone.
// Zero means unbounded. In YAML it is written as an integer or the
// string "unbounded".
type MeasurementLimit int

// UnmarshalYAML accepts either an integer count or the string "unbounded".
func (m *MeasurementLimit) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		if strings.EqualFold(s, "unbounded") {
			*m = UnboundedMeasurements
			return nil
		}
	}

	var n int
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("measurements must be a positive integer or \"unbounded\": %w", err)
	}
	*m = MeasurementLimit(n)
	return nil
}

// Unbounded reports whether the limit means "poll forever".
func (m MeasurementLimit) Unbounded() bool {
	return m == UnboundedMeasurements
}

// ZoneConfig describes one supervised thermostat zone.
//
// The field names match the external per-zone record format; a zone entry
// is immutable for the lifetime of a run.
type ZoneConfig struct {
	// ThermostatType is the driver type tag (e.g. "emulator", "mqtt").
	ThermostatType string `yaml:"thermostat_type"`

	// Zone is the vendor zone number.
	Zone int `yaml:"zone"`

	// Enabled defaults to true; disabled zones are invisible to the
	// supervision pipeline.
	Enabled *bool `yaml:"enabled"`

	// PollTime is the poll interval in seconds.
	PollTime int `yaml:"poll_time"`

	// ConnectionTime is the maximum session duration in seconds before an
	// unconditional reconnect.
	ConnectionTime int `yaml:"connection_time"`

	// Tolerance is the allowed setpoint deviation from schedule in degrees.
	Tolerance float64 `yaml:"tolerance"`

	// TargetMode is the expected thermostat mode tag.
	TargetMode string `yaml:"target_mode"`

	// Measurements is the measurement budget (or "unbounded").
	Measurements MeasurementLimit `yaml:"measurements"`

	// Revert enables corrective writes when a deviation is detected.
	// When false the zone is alert-only: deviations are recorded but the
	// device is never written to.
	Revert bool `yaml:"revert"`
}

// IsEnabled returns the effective enabled flag (default true).
func (z ZoneConfig) IsEnabled() bool {
	return z.Enabled == nil || *z.Enabled
}

// Key returns the zone's report key, e.g. "emulator_zone0".
func (z ZoneConfig) Key() string {
	return fmt.Sprintf("%s_zone%d", z.ThermostatType, z.Zone)
}

// PollInterval returns the poll interval as a Duration.
func (z ZoneConfig) PollInterval() time.Duration {
	return time.Duration(z.PollTime) * time.Second
}

// SessionDuration returns the maximum session duration as a Duration.
func (z ZoneConfig) SessionDuration() time.Duration {
	return time.Duration(z.ConnectionTime) * time.Second
}

// Validate checks a single zone entry.
//
// Zone validation failures are fatal for that zone only: the orchestrator
// records them per zone instead of refusing to start, so one bad entry
// never blocks the rest of the site.
func (z ZoneConfig) Validate() error {
	var errs []string

	if z.ThermostatType == "" {
		errs = append(errs, "thermostat_type is required")
	}
	if z.Zone < 0 {
		errs = append(errs, "zone must be >= 0")
	}
	if z.PollTime <= 0 {
		errs = append(errs, "poll_time must be > 0")
	}
	if z.ConnectionTime <= 0 {
		errs = append(errs, "connection_time must be > 0")
	}
	if z.Tolerance < 0 {
		errs = append(errs, "tolerance must be >= 0")
	}
	if z.Measurements < 0 {
		errs = append(errs, "measurements must be >= 1 or \"unbounded\"")
	}
	if z.TargetMode == "" {
		errs = append(errs, "target_mode is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("zone %s: %s", z.Key(), strings.Join(errs, "; "))
	}
	return nil
}

// DatabaseConfig contains SQLite database settings for the run archive.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for measurement export.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains the live measurement stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings for the status API.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// EmailConfig contains SMTP settings for deviation alert emails.
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: THERMOSENTRY_SECTION_KEY
// For example: THERMOSENTRY_DATABASE_PATH, THERMOSENTRY_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "ThermoSentry",
			Timezone: "UTC",
		},
		Supervisor: SupervisorConfig{
			Concurrent: true,
			CacheTTL:   10,
		},
		Database: DatabaseConfig{
			Path:        "./data/thermosentry.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "thermosentry",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8023,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
		},
		Email: EmailConfig{
			Port: 465,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: THERMOSENTRY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("THERMOSENTRY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("THERMOSENTRY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("THERMOSENTRY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("THERMOSENTRY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("THERMOSENTRY_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("THERMOSENTRY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security - JWT secret (always override in production)
	if v := os.Getenv("THERMOSENTRY_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}

	// Email
	if v := os.Getenv("THERMOSENTRY_EMAIL_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
}

// Validate checks the site-wide configuration for errors.
//
// Per-zone entries are deliberately not validated here: a malformed zone is
// a per-zone failure recorded at supervision time, never a startup abort.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Supervisor.CacheTTL < 0 {
		errs = append(errs, "supervisor.cache_ttl must be >= 0")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}

		// The status API exposes setpoint and occupancy-adjacent data, so
		// token auth is mandatory whenever the server is enabled.
		const minJWTSecretLength = 32
		if c.Security.JWT.Secret == "" {
			errs = append(errs, "security.jwt.secret is required when api is enabled (set THERMOSENTRY_JWT_SECRET)")
		} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "security.jwt.secret must be at least 32 characters")
		}
	}

	if c.Email.Enabled {
		if c.Email.Host == "" {
			errs = append(errs, "email.host is required when email is enabled")
		}
		if c.Email.From == "" || len(c.Email.To) == 0 {
			errs = append(errs, "email.from and email.to are required when email is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// EnabledZones returns the zones with the enabled flag set (or defaulted) true,
// in configuration order.
func (c *Config) EnabledZones() []ZoneConfig {
	zones := make([]ZoneConfig, 0, len(c.Zones))
	for _, z := range c.Zones {
		if z.IsEnabled() {
			zones = append(zones, z)
		}
	}
	return zones
}

// CacheTTL returns the zone state cache TTL as a Duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Supervisor.CacheTTL) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
