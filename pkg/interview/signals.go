package interview

import (
	"time"

	"github.com/twinoai/twino/pkg/twin"
)

// Signal is an outbound notification of a Controller. Signals are delivered
// to the Observer in the order they were produced.
type Signal interface {
	signal()
}

// TranscriptUpdated carries the full transcript after each finalized turn.
type TranscriptUpdated struct {
	Snapshot Snapshot
}

// ProfileDetected carries the profile found in the assistant text.
type ProfileDetected struct {
	Profile twin.Profile
}

// CompletionDetected reports a completion phrase whose profile block never
// arrived within the grace period.
type CompletionDetected struct{}

// SilenceWarning reports the time left before the silence timeout.
type SilenceWarning struct {
	Remaining time.Duration
}

// SilenceTimeout reports that the session ended for inactivity.
type SilenceTimeout struct{}

// ConnectionChanged reports transport connection changes.
type ConnectionChanged struct {
	Connected bool
}

// Failed reports an error. Transport failures end the session; remote
// error events do not.
type Failed struct {
	Err error
}

func (TranscriptUpdated) signal()  {}
func (ProfileDetected) signal()    {}
func (CompletionDetected) signal() {}
func (SilenceWarning) signal()     {}
func (SilenceTimeout) signal()     {}
func (ConnectionChanged) signal()  {}
func (Failed) signal()             {}

// Observer receives Signals.
type Observer interface {
	Observe(Signal)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Signal)

func (f ObserverFunc) Observe(s Signal) { f(s) }

// Observers fans signals out to several observers in order.
func Observers(obs ...Observer) Observer {
	return ObserverFunc(func(s Signal) {
		for _, o := range obs {
			if o != nil {
				o.Observe(s)
			}
		}
	})
}

// Callbacks is an Observer with one optional function per signal.
type Callbacks struct {
	OnTranscriptUpdate   func(Snapshot)
	OnProfileDetected    func(twin.Profile)
	OnCompletionDetected func()
	OnSilenceWarning     func(remaining time.Duration)
	OnSilenceTimeout     func()
	OnConnectionChange   func(connected bool)
	OnError              func(error)
}

// Observe dispatches s to the matching callback.
func (c Callbacks) Observe(s Signal) {
	switch s := s.(type) {
	case TranscriptUpdated:
		if c.OnTranscriptUpdate != nil {
			c.OnTranscriptUpdate(s.Snapshot)
		}
	case ProfileDetected:
		if c.OnProfileDetected != nil {
			c.OnProfileDetected(s.Profile)
		}
	case CompletionDetected:
		if c.OnCompletionDetected != nil {
			c.OnCompletionDetected()
		}
	case SilenceWarning:
		if c.OnSilenceWarning != nil {
			c.OnSilenceWarning(s.Remaining)
		}
	case SilenceTimeout:
		if c.OnSilenceTimeout != nil {
			c.OnSilenceTimeout()
		}
	case ConnectionChanged:
		if c.OnConnectionChange != nil {
			c.OnConnectionChange(s.Connected)
		}
	case Failed:
		if c.OnError != nil {
			c.OnError(s.Err)
		}
	}
}
