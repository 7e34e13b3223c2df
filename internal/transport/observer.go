package transport

import "time"

type Outcome string

const (
	OutcomeSent       Outcome = "sent"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeReadFailed Outcome = "read_failed"
	OutcomeSendFailed Outcome = "send_failed"
)

// Delivery is the result of one attempt to ship a target's content.
type Delivery struct {
	Time    time.Time
	Target  string
	Path    string
	Bytes   int
	Outcome Outcome
	Err     error
}

// Observer is notified after every delivery attempt, inside the cycle.
type Observer interface {
	Observe(d Delivery)
}

// CycleObserver is optionally implemented by observers interested in whole
// cycles.
type CycleObserver interface {
	CycleStarted()
	CycleFinished(elapsed time.Duration)
}
