// Package metric exports pipeline metrics to Prometheus.
package metric
