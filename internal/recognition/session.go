package recognition

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/dictaform/internal/fsm"
	"github.com/rbright/dictaform/internal/loop"
)

const (
	// DefaultDedupWindow suppresses repeated identical final transcripts.
	DefaultDedupWindow = 900 * time.Millisecond
	// DefaultRestartDelay smooths over engine-imposed session limits.
	DefaultRestartDelay = 200 * time.Millisecond
	// maxRestartDelay caps the backoff between rejected starts.
	maxRestartDelay = 5 * time.Second
)

// ErrorStartFailed is reported when the engine refuses a start request.
const ErrorStartFailed = "start-failed"

// Listener receives the session's surfaced events on the loop goroutine.
type Listener interface {
	ListeningStarted()
	ListeningEnded()
	RecognitionError(code string)
	InterimTranscript(text string)
	FinalTranscript(text string)
	TranscriptCleared()
}

// Config tunes the listening lifecycle.
type Config struct {
	Language     string
	DedupWindow  time.Duration
	RestartDelay time.Duration
}

// Session owns the listening state machine, auto-restart, and final
// transcript deduplication. Methods must be called on the scheduler's loop.
type Session struct {
	cfg           Config
	engine        Engine
	sched         loop.Scheduler
	listener      Listener
	shouldRestart func() bool
	logger        *slog.Logger

	state        fsm.State
	pendingStart bool
	restartTimer loop.Timer
	restartGen   uint64
	rejections   int

	lastFinal   string
	lastFinalAt time.Time
}

// Open creates an engine through provider. shouldRestart is consulted when an
// unintended end occurs and again when the restart delay elapses.
func Open(
	provider Provider,
	cfg Config,
	sched loop.Scheduler,
	listener Listener,
	shouldRestart func() bool,
	logger *slog.Logger,
) (*Session, error) {
	if provider == nil {
		return nil, ErrUnavailable
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = DefaultDedupWindow
	}
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = DefaultRestartDelay
	}
	if shouldRestart == nil {
		shouldRestart = func() bool { return false }
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Session{
		cfg:           cfg,
		sched:         sched,
		listener:      listener,
		shouldRestart: shouldRestart,
		logger:        logger,
		state:         fsm.StateIdle,
	}

	engine, err := provider.Create(EngineConfig{
		Language:        cfg.Language,
		Continuous:      true,
		InterimResults:  true,
		MaxAlternatives: 1,
	}, postingSink{s: s})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if engine == nil {
		return nil, ErrUnavailable
	}
	s.engine = engine
	return s, nil
}

// State returns the listening state.
func (s *Session) State() fsm.State {
	return s.state
}

// Listening reports whether the engine is (or is about to be) capturing.
func (s *Session) Listening() bool {
	return s.state == fsm.StateListening
}

// Start requests continuous listening. It is a no-op while listening and is
// deferred until the engine ends while a stop is in flight. A rejected start
// is reported as ErrorStartFailed and retried with backoff while the restart
// gate holds.
func (s *Session) Start() {
	s.cancelRestart()

	switch s.state {
	case fsm.StateListening:
		return
	case fsm.StateStopping:
		s.pendingStart = true
		return
	}

	if !s.transition(fsm.EventStart) {
		return
	}
	if err := s.engine.Start(); err != nil {
		s.rejections++
		s.logger.Warn("recognition start failed", "error", err.Error(), "attempt", s.rejections)
		s.transition(fsm.EventRejected)
		s.listener.RecognitionError(ErrorStartFailed)
		if s.shouldRestart() {
			s.scheduleRestart(s.backoff())
		}
	}
}

// Stop requests the engine to end. Engine errors are logged and treated as
// an immediate end.
func (s *Session) Stop() {
	s.cancelRestart()
	s.pendingStart = false

	if s.state != fsm.StateListening {
		return
	}
	if !s.transition(fsm.EventStop) {
		return
	}
	if err := s.engine.Stop(); err != nil {
		s.logger.Warn("recognition stop failed", "error", err.Error())
		s.transition(fsm.EventEnded)
	}
}

// Close stops listening and drops any pending restart.
func (s *Session) Close() {
	s.Stop()
	s.pendingStart = false
}

func (s *Session) onStarted() {
	if s.state != fsm.StateListening {
		s.logger.Debug("late engine start ignored", "state", string(s.state))
		return
	}
	s.rejections = 0
	s.listener.ListeningStarted()
}

func (s *Session) onEnded() {
	wasListening := s.state == fsm.StateListening
	s.transition(fsm.EventEnded)
	s.listener.ListeningEnded()

	if s.pendingStart {
		s.pendingStart = false
		s.Start()
		return
	}
	if !wasListening || !s.shouldRestart() {
		return
	}
	s.scheduleRestart(s.cfg.RestartDelay)
}

// backoff doubles the restart delay for each consecutive rejected start.
func (s *Session) backoff() time.Duration {
	d := s.cfg.RestartDelay
	for i := 0; i < s.rejections && d < maxRestartDelay; i++ {
		d *= 2
	}
	return min(d, maxRestartDelay)
}

func (s *Session) scheduleRestart(delay time.Duration) {
	s.cancelRestart()
	gen := s.restartGen
	s.restartTimer = s.sched.AfterFunc(delay, func() {
		if gen != s.restartGen {
			return
		}
		s.restartTimer = nil
		if s.shouldRestart() {
			s.Start()
		}
	})
}

func (s *Session) onError(code string) {
	s.transition(fsm.EventFail)
	s.listener.RecognitionError(code)
}

func (s *Session) onResult(text string, final bool) {
	if s.state != fsm.StateListening {
		s.logger.Debug("recognition result discarded", "state", string(s.state), "final", final)
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.listener.InterimTranscript(text)
	if !final {
		return
	}

	now := s.sched.Now()
	normalized := strings.ToLower(text)
	if normalized == s.lastFinal && now.Sub(s.lastFinalAt) < s.cfg.DedupWindow {
		s.logger.Debug("duplicate final transcript suppressed", "text", text)
		s.listener.TranscriptCleared()
		return
	}
	s.lastFinal = normalized
	s.lastFinalAt = now
	s.listener.FinalTranscript(text)
}

func (s *Session) transition(event fsm.Event) bool {
	next, err := fsm.Transition(s.state, event)
	if err != nil {
		s.logger.Debug("recognition transition ignored", "error", err.Error())
		return false
	}
	s.state = next
	return true
}

// cancelRestart also invalidates a restart whose timer already fired but has
// not run yet.
func (s *Session) cancelRestart() {
	s.restartGen++
	if s.restartTimer != nil {
		s.restartTimer.Stop()
		s.restartTimer = nil
	}
}

// postingSink moves engine callbacks onto the loop.
type postingSink struct {
	s *Session
}

func (p postingSink) EngineStarted() {
	p.s.sched.Post(p.s.onStarted)
}

func (p postingSink) EngineEnded() {
	p.s.sched.Post(p.s.onEnded)
}

func (p postingSink) EngineError(code string) {
	p.s.sched.Post(func() { p.s.onError(code) })
}

func (p postingSink) EngineResult(text string, final bool) {
	p.s.sched.Post(func() { p.s.onResult(text, final) })
}
