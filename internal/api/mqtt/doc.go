// Package mqtt is the broker-side command ingress.
//
// Observatory control systems often distribute schedule commands over an
// MQTT bus rather than calling each instrument directly. This listener
// subscribes to a single control topic and pushes every well-formed
// payload into the same bounded queue the HTTP and WebSocket ingresses
// feed, tagged with its own origin so operators can trace where a
// command came from.
//
// The listener is optional: an empty broker address disables it and
// Start becomes a no-op. When enabled it reconnects automatically and
// re-subscribes on every new session.
//
// Usage:
//
//	ingress := mqtt.New(mqtt.Config{
//		Broker: "broker.local:1883",
//		Topic:  "spectra/commands",
//	}, queue, logger)
//	if err := ingress.Start(); err != nil {
//		return err
//	}
//	defer ingress.Close()
package mqtt
