// Package mqtt provides the MQTT client used by broker-backed thermostat
// drivers.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Broker-backed thermostats publish retained JSON state documents; the
// supervisor reads state from those topics and writes setpoint and mode
// commands back. The broker decouples the supervisor from the device
// firmware:
//
//	ThermoSentry ↔ MQTT Broker ↔ Thermostat firmware
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.ZoneState("mqtt", 0), 1,
//	    func(topic string, payload []byte) error {
//	        // decode retained state document
//	        return nil
//	    })
//
//	topic := mqtt.Topics{}.ZoneSetpointCommand("mqtt", 0, "heat")
//	client.Publish(topic, []byte(`{"value":70}`), 1, false)
package mqtt
