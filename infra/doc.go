// Package infra groups the adapters behind the core interfaces: the MQTT
// publisher, the Prometheus and InfluxDB metrics sinks, zerolog logging and
// Sentry error reporting.
package infra
