package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/twinoai/twino/pkg/realtime"
	"github.com/twinoai/twino/pkg/twin"
)

// Transport is the realtime connection a Controller drives. realtime.Conn
// implements it.
type Transport interface {
	Connect(ctx context.Context, h realtime.Handlers) error
	Disconnect() error
}

// TransportFactory creates a fresh Transport for one connection attempt.
type TransportFactory func() (Transport, error)

// State is the connection lifecycle of a Controller.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

var stateNames = [...]string{"idle", "connecting", "connected", "disconnected"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Cause is why a session ended.
type Cause int

const (
	CauseNone Cause = iota
	CauseProfile
	CauseCompletion
	CauseSilence
	CauseUser
	CauseError
)

var causeNames = [...]string{"none", "profile", "completion", "silence", "user", "error"}

func (c Cause) String() string {
	if int(c) < len(causeNames) {
		return causeNames[c]
	}
	return fmt.Sprintf("Cause(%d)", int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Cause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Cause) UnmarshalText(text []byte) error {
	for i, name := range causeNames {
		if string(text) == name {
			*c = Cause(i)
			return nil
		}
	}
	return fmt.Errorf("interview: unknown cause %q", text)
}

// Outcome summarizes a finished session.
type Outcome struct {
	Cause      Cause             `json:"cause"`
	Profile    *twin.Profile     `json:"twin_profile,omitempty"`
	Transcript []TranscriptEntry `json:"transcript"`
	Phase      Phase             `json:"phase"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at"`
	Err        error             `json:"-"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithExecutors replaces the event loop and the signal dispatcher. Both
// default to NewSerialLoop. They must be distinct executors.
func WithExecutors(loop, dispatch Executor) Option {
	return func(c *Controller) {
		c.loop = loop
		c.dispatch = dispatch
	}
}

// Controller runs one interview session. It is single use: after the
// session ends, create a new Controller to start over. Its default loops
// start goroutines on first use, so a Controller that is never connected
// can be dropped without calling Disconnect.
type Controller struct {
	cfg          Config
	clock        Clock
	loop         Executor
	dispatch     Executor
	observer     Observer
	newTransport TransportFactory

	state atomic.Int32
	done  chan struct{}

	mu        sync.Mutex
	transport Transport
	released  bool

	// Owned by the loop.
	tracker   *Tracker
	detector  *Detector
	governor  *Governor
	grace     Timer
	ended     bool
	startedAt time.Time
	outcome   Outcome
}

// New creates an idle Controller.
func New(newTransport TransportFactory, cfg Config, observer Observer, opts ...Option) (*Controller, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("interview: %w", err)
	}
	if newTransport == nil {
		return nil, errors.New("interview: transport factory is required")
	}
	if observer == nil {
		observer = Callbacks{}
	}
	c := &Controller{
		cfg:          cfg,
		clock:        SystemClock{},
		observer:     observer,
		newTransport: newTransport,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.loop == nil {
		c.loop = NewSerialLoop()
	}
	if c.dispatch == nil {
		c.dispatch = NewSerialLoop()
	}
	c.tracker = NewTracker(cfg.Budget())
	c.detector = NewDetector(cfg.CompletionPhrases)
	c.governor = NewGovernor(c.clock, c.loop.Post, cfg.SilenceTimeout, cfg.WarningLead, c.silenceWarning, c.silenceTimeout)
	return c, nil
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Done is closed after the session ended and every signal was delivered.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Outcome returns the session result once Done is closed.
func (c *Controller) Outcome() (Outcome, bool) {
	select {
	case <-c.done:
		return c.outcome, true
	default:
		return Outcome{}, false
	}
}

// Connect opens the transport. It is a no-op returning nil unless the
// Controller is idle. A failed attempt ends the session: the error is
// delivered as Failed and also returned.
func (c *Controller) Connect(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return nil
	}
	c.loop.Post(func() { c.startedAt = c.clock.Now() })

	t, err := c.newTransport()
	if err != nil {
		err = fmt.Errorf("interview: create transport: %w", err)
		c.fail(err)
		return err
	}
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return realtime.ErrClosed
	}
	c.transport = t
	c.mu.Unlock()

	slog.Info("connecting interview transport")
	err = t.Connect(ctx, realtime.Handlers{
		OnMessage: func(raw []byte) {
			ev := realtime.Decode(raw)
			c.loop.Post(func() { c.handle(ev) })
		},
		OnError: func(err error) {
			c.loop.Post(func() {
				if !c.ended {
					c.emit(Failed{Err: err})
				}
			})
		},
		OnClosed: c.fail,
	})
	if err != nil {
		c.fail(err)
		return err
	}
	c.loop.Post(c.connected)
	return nil
}

// Disconnect ends the session. Only the first call, or the first of any
// ending condition, tears anything down; Done reports completion.
func (c *Controller) Disconnect() {
	c.loop.Post(func() { c.finish(CauseUser, nil, nil) })
}

func (c *Controller) fail(err error) {
	c.loop.Post(func() {
		if c.ended {
			return
		}
		c.emit(Failed{Err: err})
		c.finish(CauseError, err, nil)
	})
}

func (c *Controller) connected() {
	if c.ended {
		return
	}
	c.state.CompareAndSwap(int32(StateConnecting), int32(StateConnected))
	slog.Info("interview connected")
	c.emit(ConnectionChanged{Connected: true})
	c.governor.Reset()
}

func (c *Controller) handle(ev realtime.Event) {
	if c.ended {
		return
	}
	switch ev := ev.(type) {
	case realtime.UserTranscriptFinal:
		c.governor.Reset()
		c.appendTurn(RoleUser, ev.Text)

	case realtime.UserSpeechStarted:
		c.governor.Reset()

	case realtime.AssistantTranscriptDelta:
		c.governor.Reset()
		if _, ok := c.detector.AppendDelta(ev.ResponseID, ev.Delta); ok {
			c.profileDetected("")
		}

	case realtime.AssistantTranscriptFinal:
		c.governor.Reset()
		if _, ok := c.detector.AppendFinal(ev.ResponseID, ev.Text); ok {
			c.profileDetected(ev.Text)
			return
		}
		c.appendTurn(RoleAssistant, ev.Text)
		if c.detector.MatchPhrase(ev.Text) {
			slog.Info("completion phrase detected, waiting for profile", "grace", c.cfg.GracePeriod)
			c.grace = c.clock.AfterFunc(c.cfg.GracePeriod, func() { c.loop.Post(c.graceExpired) })
		}

	case realtime.AudioPlaybackStarted, realtime.AudioPlaybackEnded:
		c.governor.Reset()

	case realtime.RemoteError:
		slog.Warn("realtime error event", "error", ev.Err)
		c.emit(Failed{Err: ev.Err})

	case realtime.Unrecognized:
		slog.Debug("ignoring realtime event", "type", ev.Type)
	}
}

func (c *Controller) appendTurn(role Role, text string) {
	if snap, ok := c.tracker.Append(role, text, c.clock.Now()); ok {
		c.emit(TranscriptUpdated{Snapshot: snap})
	}
}

// profileDetected ends the session with the latched profile. The profile
// signal precedes the transcript update of the text that carried it.
func (c *Controller) profileDetected(text string) {
	profile, _ := c.detector.Profile()
	snap, appended := c.tracker.Append(RoleAssistant, text, c.clock.Now())
	c.finish(CauseProfile, nil, func() {
		c.emit(ProfileDetected{Profile: profile})
		if appended {
			c.emit(TranscriptUpdated{Snapshot: snap})
		}
	})
}

func (c *Controller) graceExpired() {
	if c.ended {
		return
	}
	c.grace = nil
	switch c.detector.Expire() {
	case CompletionPayloadDetected:
		profile, _ := c.detector.Profile()
		c.finish(CauseProfile, nil, func() { c.emit(ProfileDetected{Profile: profile}) })
	case CompletionTimedOut:
		c.finish(CauseCompletion, nil, func() { c.emit(CompletionDetected{}) })
	}
}

func (c *Controller) silenceWarning(remaining time.Duration) {
	if !c.ended {
		c.emit(SilenceWarning{Remaining: remaining})
	}
}

func (c *Controller) silenceTimeout() {
	c.finish(CauseSilence, nil, func() { c.emit(SilenceTimeout{}) })
}

// finish is the only teardown path. The first call wins; the transport is
// released before any terminal signal is emitted.
func (c *Controller) finish(cause Cause, err error, after func()) {
	if c.ended {
		return
	}
	c.ended = true
	prev := State(c.state.Swap(int32(StateDisconnected)))

	c.governor.Disarm()
	if c.grace != nil {
		c.grace.Stop()
		c.grace = nil
	}

	c.mu.Lock()
	t := c.transport
	c.transport = nil
	c.released = true
	c.mu.Unlock()
	if t != nil {
		if err := t.Disconnect(); err != nil {
			slog.Warn("release transport", "error", err)
		}
	}

	snap := c.tracker.Snapshot()
	c.outcome = Outcome{
		Cause:      cause,
		Transcript: snap.Entries,
		Phase:      snap.Phase,
		StartedAt:  c.startedAt,
		EndedAt:    c.clock.Now(),
		Err:        err,
	}
	if p, ok := c.detector.Profile(); ok {
		c.outcome.Profile = &p
	}
	slog.Info("interview ended", "cause", cause, "turns", len(snap.Entries), "phase", snap.Phase)

	if prev == StateConnected {
		c.emit(ConnectionChanged{Connected: false})
	}
	if after != nil {
		after()
	}
	c.dispatch.Post(func() { close(c.done) })
	c.dispatch.Stop()
	c.loop.Stop()
}

func (c *Controller) emit(s Signal) {
	c.dispatch.Post(func() { c.observer.Observe(s) })
}
