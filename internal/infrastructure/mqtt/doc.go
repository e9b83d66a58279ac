// Package mqtt provides MQTT connectivity for Lightmount Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and retained state
//   - Wildcard subscriptions restored after reconnect
//   - Last Will and Testament on the system status topic
//
// # Architecture
//
// The broker is the seam between fixture controllers and the rest of the
// world. Power networks, damage sources and actors publish notifications;
// Core publishes retained fixture state and collaborator events (item
// spawns, injuries, hazards, cues).
//
//	power / damage / interaction  ->  Broker  ->  Core  ->  Broker  ->  state / events
//
// # Security Considerations
//
//   - Use TLS outside a lab network (cfg.Broker.TLS=true)
//   - Credentials should come from LIGHTMOUNT_MQTT_USERNAME / _PASSWORD
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.Subscribe(topics.AllPower(), 1, func(topic string, payload []byte) error {
//	    id, _ := topics.FixtureFromTopic(topic)
//	    ...
//	})
package mqtt
