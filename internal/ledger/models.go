package ledger

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID          string
	Command     string
	Status      Status
	StartedAt   time.Time
	FinishedAt  *time.Time
	DatasetPath string
	Records     int
	NTrain      int
	NTest       int
	Classifier  string
	F1Micro     *float64
	F1Macro     *float64
	Metric      string
	MetricValue *float64
	PriorValue  *float64
	// Decision is the publish gate outcome, empty when publishing was not attempted.
	Decision     string
	ErrorKind    string
	ErrorMessage string
}

// Duration reports how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Fail marks the run failed with err.
func (r *Run) Fail(kind string, err error) {
	r.Status = StatusFailed
	r.ErrorKind = kind
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Summary counts runs by status.
type Summary struct {
	Total     int
	Running   int
	Succeeded int
	Failed    int
	Published int
}
