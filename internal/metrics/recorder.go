package metrics

import "time"

// Recorder receives outcome events from the resolver and updater.
type Recorder interface {
	ObserveResolve(outcome string)
	ObserveUpdate(outcome string, d time.Duration)
}

// Noop discards all events.
type Noop struct{}

func (Noop) ObserveResolve(string)               {}
func (Noop) ObserveUpdate(string, time.Duration) {}

// OrNoop returns r, or Noop when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return Noop{}
	}
	return r
}
