package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/dictaform/internal/actions"
	"github.com/rbright/dictaform/internal/form"
	"github.com/rbright/dictaform/internal/loop"
	"github.com/rbright/dictaform/internal/narrator"
	"github.com/rbright/dictaform/internal/recognition"
	"github.com/rbright/dictaform/internal/transcript"
)

type fakeEngine struct {
	ops []string
	// rejectStarts is how many upcoming starts fail.
	rejectStarts int
}

func (e *fakeEngine) Start() error {
	e.ops = append(e.ops, "start")
	if e.rejectStarts > 0 {
		e.rejectStarts--
		return errors.New("no page attached")
	}
	return nil
}

func (e *fakeEngine) Stop() error {
	e.ops = append(e.ops, "stop")
	return nil
}

func (e *fakeEngine) count(op string) int {
	n := 0
	for _, o := range e.ops {
		if o == op {
			n++
		}
	}
	return n
}

type fakeSynth struct {
	spoken []string
	dones  []func(error)
}

func (s *fakeSynth) Speak(u narrator.Utterance, done func(error)) error {
	s.spoken = append(s.spoken, u.Text)
	s.dones = append(s.dones, done)
	return nil
}

func (s *fakeSynth) Cancel() {}

func (s *fakeSynth) last() string {
	if len(s.spoken) == 0 {
		return ""
	}
	return s.spoken[len(s.spoken)-1]
}

type fakeIndicator struct {
	statuses  []string
	live      string
	listening bool
	caseLabel string
	marked    map[string]bool
}

func (f *fakeIndicator) SetStatus(text string)         { f.statuses = append(f.statuses, text) }
func (f *fakeIndicator) SetLiveTranscript(text string) { f.live = text }
func (f *fakeIndicator) SetListening(on bool)          { f.listening = on }
func (f *fakeIndicator) SetCaseMode(label string)      { f.caseLabel = label }
func (f *fakeIndicator) MarkActiveField(id string, active bool) {
	if f.marked == nil {
		f.marked = map[string]bool{}
	}
	if active {
		f.marked[id] = true
		return
	}
	delete(f.marked, id)
}

func (f *fakeIndicator) status() string {
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1]
}

type fakeActions struct {
	checkErr error
	result   actions.Result
	runErr   error
	ran      chan actions.Action
}

func (f *fakeActions) Check(actions.Action) error { return f.checkErr }

func (f *fakeActions) Run(_ context.Context, a actions.Action, _ form.Resume) (actions.Result, error) {
	if f.ran != nil {
		f.ran <- a
	}
	return f.result, f.runErr
}

type harness struct {
	ctrl      *Controller
	doc       *form.Document
	sched     *loop.Manual
	engine    *fakeEngine
	sink      recognition.Sink
	synth     *fakeSynth
	indicator *fakeIndicator
	renders   int
}

func newHarness(t *testing.T, resume form.Resume, acts Actions) *harness {
	t.Helper()

	h := &harness{
		doc:       form.New(resume),
		sched:     loop.NewManual(time.Unix(1_700_000_000, 0)),
		engine:    &fakeEngine{},
		synth:     &fakeSynth{},
		indicator: &fakeIndicator{},
	}
	provider := recognition.ProviderFunc(func(_ recognition.EngineConfig, sink recognition.Sink) (recognition.Engine, error) {
		h.sink = sink
		return h.engine, nil
	})

	h.ctrl = NewController(Options{
		Scheduler: h.sched,
		Page:      h.doc,
		Narrator:  narrator.New(narrator.DefaultConfig(), h.synth, h.sched, nil),
		Indicator: h.indicator,
		Actions:   acts,
		OpenRecognizer: func(l recognition.Listener, shouldRestart func() bool) (Recognizer, error) {
			s, err := recognition.Open(provider, recognition.Config{Language: "en-IN"}, h.sched, l, shouldRestart, nil)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	})
	h.doc.OnFocus(h.ctrl.FieldFocused)
	h.doc.OnRender(func(form.Section) { h.renders++ })
	return h
}

// finishSpeech reports the latest utterance as spoken.
func (h *harness) finishSpeech() {
	h.synth.dones[len(h.synth.dones)-1](nil)
	h.sched.Flush()
}

func (h *harness) final(text string) {
	h.sink.EngineResult(text, true)
	h.sched.Flush()
}

func (h *harness) ended() {
	h.sink.EngineEnded()
	h.sched.Flush()
}

// turnOn enables voice mode and drives the engine to listening.
func (h *harness) turnOn(t *testing.T) {
	t.Helper()

	h.ctrl.On()
	require.Equal(t, ModeOn, h.ctrl.Mode())
	require.Zero(t, h.engine.count("start"))

	h.finishSpeech()
	h.sched.Advance(DefaultResumeDelay)
	require.Equal(t, 1, h.engine.count("start"))

	h.sink.EngineStarted()
	h.sched.Flush()
	require.Equal(t, "Listening", h.indicator.status())
	require.True(t, h.indicator.listening)
}

func resumeWithEntries() form.Resume {
	return form.Resume{
		Title:      "My Resume",
		Summary:    "Hi",
		Experience: []form.Experience{{Role: "Engineer"}},
		Projects:   []form.Project{{Name: "dictaform"}, {Name: "search"}},
	}
}

func TestVoiceOnAnnouncesAndStartsAfterNarration(t *testing.T) {
	t.Parallel()

	h := newHarness(t, resumeWithEntries(), nil)
	h.turnOn(t)

	require.Equal(t, []string{"Voice mode turning ON. You are now in Basics. Full name."}, h.synth.spoken)
	f, ok := h.doc.Focused()
	require.True(t, ok)
	require.Equal(t, "full_name", f.ID)
	require.True(t, h.indicator.marked["full_name"])
}

func TestVoiceOnWhenUnavailable(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.ctrl.openRecognizer = func(recognition.Listener, func() bool) (Recognizer, error) {
		return nil, recognition.ErrUnavailable
	}

	h.ctrl.On()
	require.Equal(t, ModeOff, h.ctrl.Mode())
	require.Equal(t, "Voice input not supported. Use Chrome or Edge.", h.indicator.status())
	require.Equal(t, "Voice input is not supported in your browser. Please use Chrome or Edge.", h.synth.last())
}

func TestOnOffGuards(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.ctrl.Off()
	require.Equal(t, "Already stopped", h.indicator.status())

	h.turnOn(t)
	h.ctrl.On()
	require.Equal(t, "Already listening", h.indicator.status())
	require.Equal(t, "Voice mode already on.", h.synth.last())
}

func TestSpeakWhileListeningStopsThenStartsOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, resumeWithEntries(), nil)
	h.turnOn(t)
	before := h.doc.Snapshot()

	h.final("go to experience")
	require.Equal(t, []string{"start", "stop"}, h.engine.ops)
	require.True(t, h.ctrl.Status().Pausing)
	require.Equal(t, "Opening experience.", h.synth.last())
	require.Equal(t, "Moved to experience.", h.indicator.status())

	f, ok := h.doc.Focused()
	require.True(t, ok)
	require.Equal(t, "experience-0-role", f.ID)
	require.Equal(t, before, h.doc.Snapshot())

	// The narrator's own voice must not reach dictation while paused.
	h.final("opening experience")
	h.ended()
	require.Equal(t, before, h.doc.Snapshot())
	require.Equal(t, "Engineer", h.doc.Value("experience-0-role"))

	h.finishSpeech()
	require.False(t, h.ctrl.Status().Pausing)
	h.sched.Advance(DefaultResumeDelay - time.Millisecond)
	require.Equal(t, []string{"start", "stop"}, h.engine.ops)
	h.sched.Advance(time.Millisecond)
	require.Equal(t, []string{"start", "stop", "start"}, h.engine.ops)
}

func TestNarrationFinishingBeforeEngineEndStillResumesOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.turnOn(t)

	h.final("switch to camel case")
	h.finishSpeech()
	h.sched.Advance(DefaultResumeDelay)
	require.Equal(t, []string{"start", "stop"}, h.engine.ops)

	h.ended()
	require.Equal(t, []string{"start", "stop", "start"}, h.engine.ops)
}

func TestNarrationTimeoutStillResumes(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.turnOn(t)

	h.final("switch to lower case")
	h.ended()
	h.sched.Advance(narrator.DefaultTimeout)
	require.False(t, h.ctrl.Status().Pausing)
	h.sched.Advance(DefaultResumeDelay)
	require.Equal(t, 2, h.engine.count("start"))
}

func TestVoiceOffDuringPauseNeverResumes(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.turnOn(t)

	h.final("switch to all caps")
	require.True(t, h.ctrl.Status().Pausing)

	h.ctrl.Off()
	require.False(t, h.ctrl.Status().Pausing)
	require.Equal(t, "Stopped", h.indicator.status())
	require.Equal(t, "Voice mode turning OFF", h.synth.last())
	require.False(t, h.indicator.listening)

	h.ended()
	h.finishSpeech()
	h.sched.Advance(10 * time.Second)
	require.Equal(t, 1, h.engine.count("start"))
}

func TestUnintendedEndAutoRestarts(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.turnOn(t)

	h.ended()
	require.False(t, h.indicator.listening)
	h.sched.Advance(recognition.DefaultRestartDelay)
	require.Equal(t, 2, h.engine.count("start"))
}

func TestRejectedRestartReportsErrorAndRetries(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.turnOn(t)

	h.engine.rejectStarts = 1
	h.ended()
	h.sched.Advance(recognition.DefaultRestartDelay)
	require.Equal(t, 2, h.engine.count("start"))
	require.Equal(t, "Voice error: "+recognition.ErrorStartFailed, h.indicator.status())
	require.False(t, h.indicator.listening)

	h.sched.Advance(time.Minute)
	require.Equal(t, 3, h.engine.count("start"))
	require.True(t, h.ctrl.Status().Listening)

	h.sink.EngineStarted()
	h.sched.Flush()
	require.Equal(t, "Listening", h.indicator.status())
	require.True(t, h.indicator.listening)
}

func TestRejectedResumeAfterNarrationRetries(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.engine.rejectStarts = 1

	h.ctrl.On()
	h.finishSpeech()
	h.sched.Advance(DefaultResumeDelay)
	require.Equal(t, 1, h.engine.count("start"))
	require.Equal(t, "Voice error: "+recognition.ErrorStartFailed, h.indicator.status())

	h.sched.Advance(time.Minute)
	require.Equal(t, 2, h.engine.count("start"))
	require.True(t, h.ctrl.Status().Listening)
}

func TestEngineAvailableRestartsOnlyWhileVoiceOn(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.ctrl.EngineAvailable()
	require.Zero(t, h.engine.count("start"))

	h.turnOn(t)
	h.sink.EngineError("network")
	h.ended()
	h.ctrl.EngineAvailable()
	require.Equal(t, 2, h.engine.count("start"))

	h.sched.Advance(time.Minute)
	require.Equal(t, 2, h.engine.count("start"))

	h.ctrl.Off()
	h.ended()
	h.ctrl.EngineAvailable()
	require.Equal(t, 2, h.engine.count("start"))
}

func TestLateStartDuringNarrationPauseIsIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.turnOn(t)

	h.ctrl.SetNarrator(true)
	require.Equal(t, 1, h.engine.count("stop"))
	require.False(t, h.ctrl.Status().Listening)
	seen := len(h.indicator.statuses)

	h.sink.EngineStarted()
	h.sched.Flush()
	require.Len(t, h.indicator.statuses, seen)
	require.Equal(t, "Narrator on.", h.indicator.status())
}

func TestDuplicateFinalTranscriptsAddOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.turnOn(t)

	h.final("add education")
	h.sched.Advance(100 * time.Millisecond)
	h.final("add education")
	require.Equal(t, 1, h.doc.EntryCount(form.SectionEducation))

	h.sched.Advance(time.Second)
	h.final("add education")
	require.Equal(t, 2, h.doc.EntryCount(form.SectionEducation))
	require.Equal(t, "Added education entry.", h.indicator.status())
	require.Empty(t, h.indicator.live)
}

func TestCommandTakesPrecedenceOverDictation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{Summary: "Some text"}, nil)
	require.True(t, h.doc.Focus("summary"))

	h.ctrl.Say("clear field")
	require.Empty(t, h.doc.Value("summary"))
	require.Empty(t, h.doc.Snapshot().Summary)
	require.Equal(t, "Cleared field.", h.indicator.status())
}

func TestDictationInsertion(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{Summary: "Hi"}, nil)

	require.True(t, h.doc.Focus("email"))
	h.ctrl.Say("john at example dot com")
	require.Equal(t, "john@example.com", h.doc.Value("email"))
	require.Equal(t, "john@example.com", h.doc.Snapshot().Email)
	require.Equal(t, "Inserted", h.indicator.status())

	require.True(t, h.doc.Focus("summary"))
	h.ctrl.Say("hello")
	require.Equal(t, "Hi hello", h.doc.Value("summary"))

	h.ctrl.Say("next line world")
	require.Equal(t, "Hi hello\n world", h.doc.Value("summary"))

	require.True(t, h.doc.Focus("location"))
	h.ctrl.Say("Pune comma India")
	require.Equal(t, "Pune, India", h.doc.Snapshot().Location)
}

func TestAddEntryKeepsNewLineInOtherField(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{Skills: []string{"java"}}, nil)

	require.True(t, h.doc.Focus("skills"))
	h.ctrl.Say("new line")
	h.ctrl.Say("add education")
	require.Equal(t, 1, h.doc.EntryCount(form.SectionEducation))

	require.True(t, h.doc.Focus("skills"))
	h.ctrl.Say("python")
	require.Equal(t, "java\n python", h.doc.Value("skills"))
	require.Equal(t, []string{"java", "python"}, h.doc.Snapshot().Skills)
}

func TestDictationWithoutFieldReportsStatus(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	h.ctrl.Say("hello world")

	require.Equal(t, `Heard: "hello world". Click a text field first.`, h.indicator.status())
	require.Equal(t, form.Resume{}, h.doc.Snapshot())
}

func TestCaseModeAppliesToDictation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)
	require.True(t, h.doc.Focus("github"))

	h.ctrl.Say("switch to camel case")
	require.Equal(t, transcript.ModeCamelCase, h.ctrl.CaseMode())
	require.Equal(t, "Camel Case", h.indicator.caseLabel)
	require.Equal(t, "Camel Case mode ON", h.indicator.status())

	h.ctrl.Say("Hello World")
	require.Equal(t, "helloWorld", h.doc.Value("github"))

	h.ctrl.Say("revert back to original")
	require.Empty(t, h.indicator.caseLabel)
	require.Equal(t, "Original mode - all typing modes off", h.indicator.status())
}

func TestRemoveAllProjectsRendersOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, resumeWithEntries(), nil)

	h.ctrl.Say("remove all projects")
	require.Zero(t, h.doc.EntryCount(form.SectionProjects))
	require.Equal(t, 1, h.renders)
	require.Equal(t, "Removed all project entries.", h.indicator.status())

	h.ctrl.Say("remove all projects")
	require.Equal(t, 1, h.renders)
	require.Equal(t, "No project entries to remove.", h.indicator.status())
}

func TestFieldNavigationClamps(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)

	h.ctrl.Say("go to previous field")
	f, _ := h.doc.Focused()
	require.Equal(t, "title", f.ID)

	h.ctrl.Say("go to next field")
	f, _ = h.doc.Focused()
	require.Equal(t, "full_name", f.ID)
	require.Equal(t, "Moved to next field.", h.indicator.status())

	require.True(t, h.doc.Focus("skills"))
	h.ctrl.Say("go to next field")
	f, _ = h.doc.Focused()
	require.Equal(t, "skills", f.ID)
}

func TestFieldEditingCommands(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{Summary: "Built things. Led the team"}, nil)

	h.ctrl.Say("delete word")
	require.Equal(t, "No field selected.", h.indicator.status())

	require.True(t, h.doc.Focus("summary"))
	h.ctrl.Say("delete word")
	require.Equal(t, "Built things. Led the ", h.doc.Value("summary"))

	h.ctrl.Say("delete last sentence")
	require.Equal(t, "Built things.", h.doc.Value("summary"))
	require.Equal(t, "Deleted last part.", h.indicator.status())

	h.ctrl.Say("new paragraph")
	require.Equal(t, "Built things.\n\n", h.doc.Value("summary"))
	require.Equal(t, "New paragraph.", h.synth.last())
}

func TestAnnouncementDebounce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{Education: []form.Education{{}, {}}}, nil)

	require.True(t, h.doc.Focus("education-0-degree"))
	require.Equal(t, "You are now in Education. Education degree.", h.synth.last())

	h.doc.Blur()
	require.Empty(t, h.indicator.marked)
	require.True(t, h.doc.Focus("education-0-degree"))
	require.True(t, h.doc.Focus("education-1-degree"))
	require.Len(t, h.synth.spoken, 1)

	require.True(t, h.doc.Focus("education-1-dates"))
	require.Len(t, h.synth.spoken, 2)
	require.Equal(t, map[string]bool{"education-1-dates": true}, h.indicator.marked)
}

func TestDocumentActionMissingResumeID(t *testing.T) {
	t.Parallel()

	acts := &fakeActions{checkErr: actions.ErrMissingResumeID}
	h := newHarness(t, form.Resume{}, acts)

	h.ctrl.Say("export resume as pdf")
	require.Equal(t, "Could not find resume ID.", h.indicator.status())
	require.Equal(t, "Could not find resume ID.", h.synth.last())
}

func TestDocumentActionReportsCompletion(t *testing.T) {
	t.Parallel()

	acts := &fakeActions{result: actions.Result{Message: "Saved resume."}, ran: make(chan actions.Action, 1)}
	h := newHarness(t, form.Resume{}, acts)

	h.ctrl.Say("save the resume")
	require.Equal(t, "Saving resume...", h.indicator.status())
	require.Equal(t, "Saving your resume.", h.synth.last())
	require.Equal(t, actions.Save, <-acts.ran)

	require.Eventually(t, func() bool {
		h.sched.Flush()
		return h.indicator.status() == "Saved resume."
	}, time.Second, 5*time.Millisecond)
}

func TestDocumentActionFailure(t *testing.T) {
	t.Parallel()

	acts := &fakeActions{runErr: errors.New("connection refused")}
	h := newHarness(t, form.Resume{}, acts)

	h.ctrl.Say("download resume as docx")
	require.Eventually(t, func() bool {
		h.sched.Flush()
		return h.indicator.status() == "Could not export resume: connection refused"
	}, time.Second, 5*time.Millisecond)
}

func TestNarratorToggle(t *testing.T) {
	t.Parallel()

	h := newHarness(t, form.Resume{}, nil)

	h.ctrl.SetNarrator(false)
	h.ctrl.Say("switch to all caps")
	require.Empty(t, h.synth.spoken)

	h.ctrl.SetNarrator(true)
	require.Equal(t, "Narrator on.", h.synth.last())
}
