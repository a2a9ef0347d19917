// Package jobs holds the background task definitions and the Asynq worker
// harness that runs them.
package jobs

const (
	// QueueDefault carries all ledger background work. Snapshot
	// materialization is the only producer, so a single queue suffices.
	QueueDefault = "default"

	// TaskMutationSnapshot materializes stock ledger records for one
	// accounting day.
	TaskMutationSnapshot = "mutation:snapshot"
)
