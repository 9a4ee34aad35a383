package checkout

import "sync"

// Reporter is the terminal-outcome boundary the orchestrator calls into.
// PaymentSucceeded is invoked at most once per submission; PaymentFailed may
// fire more than once across retries.
type Reporter interface {
	PaymentSucceeded(intentID string)
	PaymentFailed(message string)
}

// RecorderReporter captures boundary calls. Used by the simulator and tests.
type RecorderReporter struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func NewRecorderReporter() *RecorderReporter {
	return &RecorderReporter{}
}

func (r *RecorderReporter) PaymentSucceeded(intentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, intentID)
}

func (r *RecorderReporter) PaymentFailed(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, message)
}

// Successes returns the recorded success callbacks in order.
func (r *RecorderReporter) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.successes))
	copy(out, r.successes)
	return out
}

// Failures returns the recorded failure messages in order.
func (r *RecorderReporter) Failures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.failures))
	copy(out, r.failures)
	return out
}
