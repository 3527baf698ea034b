package events

import "time"

// ItemEvent is sent after the pipeline has handled one corpus item.
type ItemEvent struct {
	RunID     string    // Run the item belongs to
	ID        int       // Corpus item number (1..613)
	Title     string    // Display title, empty on failure
	Err       string    // Failure reason, empty on success
	Timestamp time.Time // When the item was handled
}

// Failed reports whether the item could not be acquired.
func (e ItemEvent) Failed() bool {
	return e.Err != ""
}

// RunCompleteEvent is sent once a run or retry has persisted its artifacts.
type RunCompleteEvent struct {
	RunID    string        // Run identifier
	Acquired int           // Records acquired in this run
	Failed   int           // Items still failing
	Duration time.Duration // How long the run took
}
