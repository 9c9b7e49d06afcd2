// Package stage defines the contract between the batch workflow and the
// per-item pipeline stages, plus the Job that carries artifacts between
// them.
package stage
