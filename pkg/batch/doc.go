// Package batch drives the GRID client over a worklist of series ids.
//
// Each series is a small state machine: PENDING, then COMPLETED or FAILED.
// Terminal states are read from the progress store at startup and never
// reprocessed. After every unit the progress record is saved before the
// next unit starts.
//
// Example usage:
//
//	orch := batch.New(gridClient, layout.Store(), layout.Raw(), batch.DefaultConfig(), logger)
//	summary, err := orch.Run(ctx, ids)
//
// The orchestrator:
//   - Skips units already completed or failed
//   - Probes each series' schema version, then pulls its data
//   - Persists the raw payload before marking a unit completed
//   - Logs a checkpoint with throughput and ETA every BatchSize units
//   - Stops between units on context cancellation, leaving the rest pending
package batch
