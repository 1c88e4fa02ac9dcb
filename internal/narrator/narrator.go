// Package narrator speaks feedback through a speech-output engine with a hard
// completion timeout.
package narrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/dictaform/internal/loop"
)

// DefaultTimeout completes a call whose engine never reports end or error.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout marks a call completed by the hard timeout.
	ErrTimeout = errors.New("narration timed out")
	// ErrSuperseded marks a call cancelled by a newer Speak or Cancel.
	ErrSuperseded = errors.New("narration superseded")
)

// Utterance is one synthesis request.
type Utterance struct {
	Text   string  `json:"text"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Locale string  `json:"lang"`
}

// Synthesizer is the speech-output engine.
//
// Speak starts u and later reports end (nil) or failure through done, from any
// goroutine. A returned error means the utterance never started.
type Synthesizer interface {
	Speak(u Utterance, done func(error)) error
	Cancel()
}

// Config controls utterance parameters and the completion timeout.
type Config struct {
	Enabled bool
	Rate    float64
	Pitch   float64
	Locale  string
	Timeout time.Duration
}

// DefaultConfig matches the editor's narration voice.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Rate:    1.0,
		Pitch:   1.0,
		Locale:  "en-IN",
		Timeout: DefaultTimeout,
	}
}

type call struct {
	text       string
	done       bool
	timer      loop.Timer
	onComplete func()
}

// Narrator owns the "currently speaking" state. Methods must be called on the
// scheduler's loop.
type Narrator struct {
	cfg     Config
	synth   Synthesizer
	sched   loop.Scheduler
	logger  *slog.Logger
	current *call
}

// New constructs a narrator. A nil synth leaves narration permanently silent.
func New(cfg Config, synth Synthesizer, sched loop.Scheduler, logger *slog.Logger) *Narrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Narrator{
		cfg:    cfg,
		synth:  synth,
		sched:  sched,
		logger: logger,
	}
}

// Enabled reports whether Speak produces audio.
func (n *Narrator) Enabled() bool {
	return n.cfg.Enabled && n.synth != nil
}

// SetEnabled toggles narration. Disabling cancels the in-flight utterance.
func (n *Narrator) SetEnabled(on bool) {
	n.cfg.Enabled = on
	if !on {
		n.Cancel()
	}
}

// Speaking reports whether an utterance is in flight.
func (n *Narrator) Speaking() bool {
	return n.current != nil
}

// Speak narrates text and calls onComplete exactly once when the engine
// finishes, fails, or the timeout elapses. A newer Speak cancels this one.
func (n *Narrator) Speak(text string, onComplete func()) {
	if onComplete == nil {
		onComplete = func() {}
	}
	if !n.Enabled() || strings.TrimSpace(text) == "" {
		onComplete()
		return
	}

	n.Cancel()

	c := &call{text: text, onComplete: onComplete}
	n.current = c
	c.timer = n.sched.AfterFunc(n.cfg.Timeout, func() { n.finish(c, ErrTimeout) })

	err := n.synth.Speak(Utterance{
		Text:   text,
		Rate:   n.cfg.Rate,
		Pitch:  n.cfg.Pitch,
		Locale: n.cfg.Locale,
	}, func(err error) {
		n.sched.Post(func() { n.finish(c, err) })
	})
	if err != nil {
		n.finish(c, err)
	}
}

// Cancel stops the in-flight utterance, completing its call.
func (n *Narrator) Cancel() {
	c := n.current
	if c == nil {
		return
	}
	if n.synth != nil {
		n.synth.Cancel()
	}
	n.finish(c, ErrSuperseded)
}

func (n *Narrator) finish(c *call, err error) {
	if c.done {
		return
	}
	c.done = true
	if c.timer != nil {
		c.timer.Stop()
	}
	if n.current == c {
		n.current = nil
	}

	if err != nil && n.logger != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrSuperseded) {
			level = slog.LevelDebug
		}
		n.logger.Log(context.Background(), level, "narration ended early", "text", c.text, "error", err.Error())
	}
	c.onComplete()
}
