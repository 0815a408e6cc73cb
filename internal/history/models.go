package history

import "time"

// Run is one persisted orchestrator run.
type Run struct {
	ID        string
	Started   time.Time
	Finished  time.Time
	Completed int
	Skipped   int
	Failed    int
	DryRun    bool
}

// JobRecord is one persisted job outcome within a run.
type JobRecord struct {
	RunID      string
	ItemID     string
	Status     string
	Title      string
	OutputPath string
	Error      string
}
