// Package metrics counts batch outcomes with Prometheus collectors and
// writes them as a node_exporter textfile at the end of each run.
package metrics
