package session

import (
	"errors"

	"github.com/rbright/dictaform/internal/recognition"
)

// Toggle flips voice mode.
func (c *Controller) Toggle() {
	if c.mode == ModeOn {
		c.stopVoice()
		return
	}
	c.startVoice()
}

// On turns voice mode on, or reports that it already is.
func (c *Controller) On() {
	if c.mode == ModeOn {
		c.setStatus("Already listening")
		c.speakWhileListening("Voice mode already on.")
		return
	}
	c.startVoice()
}

// Off turns voice mode off, or reports that it already is.
func (c *Controller) Off() {
	if c.mode == ModeOff {
		c.setStatus("Already stopped")
		c.speakWhileListening("Voice mode already off.")
		return
	}
	c.stopVoice()
}

// SetNarrator enables or disables spoken feedback.
func (c *Controller) SetNarrator(on bool) {
	c.narrator.SetEnabled(on)
	if on {
		c.setStatus("Narrator on.")
		c.speakWhileListening("Narrator on.")
		return
	}
	c.setStatus("Narrator off.")
}

func (c *Controller) startVoice() {
	if err := c.ensureRecognizer(); err != nil {
		if !errors.Is(err, recognition.ErrUnavailable) {
			c.logger.Warn("recognition open failed", "error", err.Error())
		}
		c.setStatus("Voice input not supported. Use Chrome or Edge.")
		c.speakWhileListening("Voice input is not supported in your browser. Please use Chrome or Edge.")
		return
	}

	c.mode = ModeOn
	c.logger.Info("voice mode on")

	// The field announcement rides along with the on-announcement so neither
	// cuts the other off.
	c.quietFocus = true
	c.focusDefaultField()
	c.quietFocus = false
	intro := "Voice mode turning ON"
	if c.heldIntro != "" {
		intro += ". " + c.heldIntro
		c.heldIntro = ""
	}
	c.speakWhileListening(intro)
}

// ensureRecognizer opens the recognizer on first use.
func (c *Controller) ensureRecognizer() error {
	if c.recognizer != nil {
		return nil
	}
	if c.openRecognizer == nil {
		return recognition.ErrUnavailable
	}
	r, err := c.openRecognizer(c, c.shouldRestart)
	if err != nil {
		return err
	}
	c.recognizer = r
	return nil
}

func (c *Controller) stopVoice() {
	c.mode = ModeOff
	c.invalidatePause()
	c.logger.Info("voice mode off")

	if c.recognizer != nil {
		c.recognizer.Stop()
	}
	c.indicator.SetListening(false)
	c.setLive("")
	c.narrator.Speak("Voice mode turning OFF", nil)
	c.setStatus("Stopped")
}

func (c *Controller) focusDefaultField() {
	if _, ok := c.page.Focused(); ok {
		return
	}
	for _, id := range c.defaultFields {
		if c.page.Focus(id) {
			return
		}
	}
}

// speakWhileListening narrates text. While voice mode is on, recognition is
// paused for the duration and resumed after the resume delay.
func (c *Controller) speakWhileListening(text string) {
	if text == "" {
		return
	}
	if c.mode != ModeOn || c.recognizer == nil {
		c.narrator.Speak(text, nil)
		return
	}

	c.invalidatePause()
	seq := c.pauseSeq
	c.ttsPausing = true
	c.recognizer.Stop()
	c.narrator.Speak(text, func() { c.narrationDone(seq) })
}

func (c *Controller) narrationDone(seq uint64) {
	if seq != c.pauseSeq {
		return
	}
	c.ttsPausing = false
	if c.mode != ModeOn {
		return
	}

	c.resumeTimer = c.sched.AfterFunc(c.resumeDelay, func() {
		if seq != c.pauseSeq || c.mode != ModeOn || c.ttsPausing {
			return
		}
		c.resumeTimer = nil
		c.recognizer.Start()
	})
}

// invalidatePause abandons any in-flight pause cycle and its pending resume.
func (c *Controller) invalidatePause() {
	c.pauseSeq++
	c.ttsPausing = false
	if c.resumeTimer != nil {
		c.resumeTimer.Stop()
		c.resumeTimer = nil
	}
}

// EngineAvailable restarts listening once the speech engine is reachable
// again, unless voice mode is off or a narration pause is in flight.
func (c *Controller) EngineAvailable() {
	if c.mode != ModeOn || c.ttsPausing || c.recognizer == nil {
		return
	}
	c.recognizer.Start()
}

func (c *Controller) shouldRestart() bool {
	return c.mode == ModeOn && !c.ttsPausing
}

// ListeningStarted implements recognition.Listener.
func (c *Controller) ListeningStarted() {
	c.setStatus("Listening")
	c.indicator.SetListening(true)
}

// ListeningEnded implements recognition.Listener.
func (c *Controller) ListeningEnded() {
	c.indicator.SetListening(false)
}

// RecognitionError implements recognition.Listener.
func (c *Controller) RecognitionError(code string) {
	c.logger.Warn("recognition error", "code", code)
	if code == "" {
		c.setStatus("Voice error")
	} else {
		c.setStatus("Voice error: " + code)
	}
	c.indicator.SetListening(false)
}

// InterimTranscript implements recognition.Listener.
func (c *Controller) InterimTranscript(text string) {
	c.setLive(text)
}

// TranscriptCleared implements recognition.Listener.
func (c *Controller) TranscriptCleared() {
	c.setLive("")
}

// FinalTranscript implements recognition.Listener.
func (c *Controller) FinalTranscript(text string) {
	c.dispatch(text)
}
