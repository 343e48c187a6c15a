// Package metrics defines the prediction metrics contract. Sinks such as
// the Prometheus and InfluxDB implementations in infra/metrics record wait
// estimates, traffic forecasts, fallbacks and errors. Optional recorder
// interfaces let a sink opt into the events it understands, and MultiSink
// fans out to several sinks. NewMetricsSink builds the configured sinks from
// the registry.
package metrics
