package mqtt

import "fmt"

// Topic prefixes for the ThermoSentry MQTT namespace.
//
// Zone topics use the scheme: thermosentry/zone/{type}/{zone}/...
// where {type} is the driver type tag and {zone} the vendor zone number.
const (
	// TopicPrefix is the base for all ThermoSentry topics.
	TopicPrefix = "thermosentry"

	// TopicPrefixZone is the base for per-zone device topics.
	TopicPrefixZone = "thermosentry/zone"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "thermosentry/system"
)

// Topics provides builders for ThermoSentry MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.ZoneState("mqtt", 0)
//	// Returns: "thermosentry/zone/mqtt/0/state"
type Topics struct{}

// ZoneState returns the retained state document topic for a zone.
//
// Example: thermosentry/zone/mqtt/0/state
func (Topics) ZoneState(typeTag string, zoneID int) string {
	return fmt.Sprintf("%s/%s/%d/state", TopicPrefixZone, typeTag, zoneID)
}

// ZoneSetpointCommand returns the setpoint write topic for a zone.
// kind is "heat" or "cool".
//
// Example: thermosentry/zone/mqtt/0/set/heat
func (Topics) ZoneSetpointCommand(typeTag string, zoneID int, kind string) string {
	return fmt.Sprintf("%s/%s/%d/set/%s", TopicPrefixZone, typeTag, zoneID, kind)
}

// ZoneModeCommand returns the mode write topic for a zone.
//
// Example: thermosentry/zone/mqtt/0/mode/set
func (Topics) ZoneModeCommand(typeTag string, zoneID int) string {
	return fmt.Sprintf("%s/%s/%d/mode/set", TopicPrefixZone, typeTag, zoneID)
}

// Measurements returns the topic supervision measurements are exported on.
//
// Example: thermosentry/measurements/emulator_zone0
func (Topics) Measurements(zoneKey string) string {
	return fmt.Sprintf("%s/measurements/%s", TopicPrefix, zoneKey)
}

// SystemStatus returns the supervisor status topic (online/offline, LWT).
//
// Example: thermosentry/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllZoneStates returns a pattern matching every zone state document.
//
// Pattern: thermosentry/zone/+/+/state
func (Topics) AllZoneStates() string {
	return fmt.Sprintf("%s/+/+/state", TopicPrefixZone)
}
