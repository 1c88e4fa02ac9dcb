// Package session implements the voice controller: voice mode, the
// listen/speak mutual exclusion protocol, and utterance dispatch.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/rbright/dictaform/internal/actions"
	"github.com/rbright/dictaform/internal/form"
	"github.com/rbright/dictaform/internal/loop"
	"github.com/rbright/dictaform/internal/recognition"
	"github.com/rbright/dictaform/internal/transcript"
)

// Mode is the user-facing voice mode.
type Mode string

const (
	ModeOff Mode = "off"
	ModeOn  Mode = "on"
)

// DefaultResumeDelay keeps the engine from hearing the narrator's trailing audio.
const DefaultResumeDelay = 250 * time.Millisecond

// Page is the form layer the controller edits.
type Page interface {
	Focused() (form.Field, bool)
	Focus(id string) bool
	Focusable() []form.Field
	Value(id string) string
	SetValue(id, value string) bool
	InputChanged(id string)
	SectionOf(id string) string
	LabelOf(id string) string
	FieldAfterHeading(name string) (form.Field, bool)
	AddEntry(form.Section) bool
	RemoveLastEntry(form.Section) bool
	RemoveAllEntries(form.Section) bool
	Snapshot() form.Resume
}

// Indicator is the host UI surface.
type Indicator interface {
	SetStatus(text string)
	SetLiveTranscript(text string)
	MarkActiveField(id string, active bool)
	SetListening(on bool)
	SetCaseMode(label string)
}

// Speaker is the narrator subset the controller drives.
type Speaker interface {
	Speak(text string, onComplete func())
	Cancel()
	SetEnabled(on bool)
	Enabled() bool
}

// Recognizer is the recognition session subset the controller drives.
type Recognizer interface {
	Start()
	Stop()
	Listening() bool
	Close()
}

// RecognizerFactory opens a recognizer reporting to listener. It returns
// recognition.ErrUnavailable when speech input is missing.
type RecognizerFactory func(listener recognition.Listener, shouldRestart func() bool) (Recognizer, error)

// Actions runs document actions.
type Actions interface {
	Check(actions.Action) error
	Run(context.Context, actions.Action, form.Resume) (actions.Result, error)
}

// noopIndicator preserves controller flow when no UI is wired.
type noopIndicator struct{}

func (noopIndicator) SetStatus(string)             {}
func (noopIndicator) SetLiveTranscript(string)     {}
func (noopIndicator) MarkActiveField(string, bool) {}
func (noopIndicator) SetListening(bool)            {}
func (noopIndicator) SetCaseMode(string)           {}

// silentSpeaker completes every utterance immediately.
type silentSpeaker struct{}

func (silentSpeaker) Speak(_ string, onComplete func()) {
	if onComplete != nil {
		onComplete()
	}
}
func (silentSpeaker) Cancel()         {}
func (silentSpeaker) SetEnabled(bool) {}
func (silentSpeaker) Enabled() bool   { return false }

// Options wires a Controller.
type Options struct {
	Logger         *slog.Logger
	Scheduler      loop.Scheduler
	Page           Page
	Narrator       Speaker
	Indicator      Indicator
	Actions        Actions
	OpenRecognizer RecognizerFactory
	ResumeDelay    time.Duration
	// DefaultFields are focused in order when voice mode turns on without a
	// focused field.
	DefaultFields []string
}

// Status is a snapshot of controller state.
type Status struct {
	Mode        Mode            `json:"mode"`
	Listening   bool            `json:"listening"`
	Pausing     bool            `json:"pausing"`
	CaseMode    transcript.Mode `json:"case_mode"`
	ActiveField string          `json:"active_field,omitempty"`
	Message     string          `json:"message,omitempty"`
	Live        string          `json:"live,omitempty"`
}

// Controller is the voice controller. All methods must run on the scheduler's
// loop goroutine.
type Controller struct {
	logger         *slog.Logger
	sched          loop.Scheduler
	page           Page
	narrator       Speaker
	indicator      Indicator
	actions        Actions
	openRecognizer RecognizerFactory
	resumeDelay    time.Duration
	defaultFields  []string

	ctx    context.Context
	cancel context.CancelFunc

	recognizer  Recognizer
	mode        Mode
	ttsPausing  bool
	pauseSeq    uint64
	resumeTimer loop.Timer

	caseMode      transcript.Mode
	activeField   string
	lastAnnounced string

	quietFocus bool
	heldIntro  string

	status string
	live   string
}

// NewController constructs a controller with safe default fallbacks.
func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Narrator == nil {
		opts.Narrator = silentSpeaker{}
	}
	if opts.Indicator == nil {
		opts.Indicator = noopIndicator{}
	}
	if opts.ResumeDelay <= 0 {
		opts.ResumeDelay = DefaultResumeDelay
	}
	if opts.DefaultFields == nil {
		opts.DefaultFields = []string{"full_name", "title"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		logger:         opts.Logger,
		sched:          opts.Scheduler,
		page:           opts.Page,
		narrator:       opts.Narrator,
		indicator:      opts.Indicator,
		actions:        opts.Actions,
		openRecognizer: opts.OpenRecognizer,
		resumeDelay:    opts.ResumeDelay,
		defaultFields:  opts.DefaultFields,
		ctx:            ctx,
		cancel:         cancel,
		mode:           ModeOff,
		caseMode:       transcript.ModeOriginal,
	}
}

// Mode returns the voice mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// CaseMode returns the active case transformation.
func (c *Controller) CaseMode() transcript.Mode {
	return c.caseMode
}

// Status returns a snapshot of controller state.
func (c *Controller) Status() Status {
	return Status{
		Mode:        c.mode,
		Listening:   c.recognizer != nil && c.recognizer.Listening(),
		Pausing:     c.ttsPausing,
		CaseMode:    c.caseMode,
		ActiveField: c.activeField,
		Message:     c.status,
		Live:        c.live,
	}
}

// Close turns voice mode off silently and abandons in-flight actions.
func (c *Controller) Close() {
	c.cancel()
	c.invalidatePause()
	c.mode = ModeOff
	c.narrator.Cancel()
	if c.recognizer != nil {
		c.recognizer.Close()
	}
}

func (c *Controller) setStatus(text string) {
	c.status = text
	c.indicator.SetStatus(text)
}

func (c *Controller) setLive(text string) {
	if text != "" {
		text = "Heard: " + text
	}
	c.live = text
	c.indicator.SetLiveTranscript(text)
}
