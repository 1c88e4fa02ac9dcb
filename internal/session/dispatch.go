package session

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rbright/dictaform/internal/actions"
	"github.com/rbright/dictaform/internal/command"
	"github.com/rbright/dictaform/internal/form"
	"github.com/rbright/dictaform/internal/transcript"
)

// Say dispatches utterance as if it were a final transcript.
func (c *Controller) Say(utterance string) {
	if strings.TrimSpace(utterance) == "" {
		return
	}
	c.dispatch(strings.TrimSpace(utterance))
}

// FocusField moves focus to id.
func (c *Controller) FocusField(id string) bool {
	return c.page.Focus(id)
}

// FieldFocused tracks the active field and announces it. ok is false when
// focus was lost without a new field gaining it.
func (c *Controller) FieldFocused(f form.Field, ok bool) {
	if c.activeField != "" {
		c.indicator.MarkActiveField(c.activeField, false)
	}
	if !ok {
		c.activeField = ""
		return
	}

	c.activeField = f.ID
	c.indicator.MarkActiveField(f.ID, true)
	c.announce(f.ID)
}

func (c *Controller) announce(id string) {
	section := c.page.SectionOf(id)
	label := c.page.LabelOf(id)
	key := section + "::" + label
	if key == c.lastAnnounced {
		return
	}
	c.lastAnnounced = key

	text := fmt.Sprintf("You are now editing %s.", label)
	if section != "" {
		text = fmt.Sprintf("You are now in %s. %s.", section, label)
	}
	if c.quietFocus {
		c.heldIntro = text
		return
	}
	c.speakWhileListening(text)
}

func (c *Controller) dispatch(utterance string) {
	defer c.setLive("")

	field, hasField := c.page.Focused()
	if cmd, ok := command.Match(utterance); ok {
		c.logger.Debug("voice command", "kind", string(cmd.Kind), "utterance", utterance)
		c.execute(cmd, field, hasField)
		return
	}

	if !hasField {
		c.setStatus(fmt.Sprintf("Heard: \"%s\". Click a text field first.", utterance))
		return
	}

	processed := transcript.Normalize(utterance, transcript.Options{Email: field.IsEmail()})
	if processed == "" {
		return
	}
	c.insert(field, transcript.Transform(processed, c.caseMode))
	c.setStatus("Inserted")
}

// insert appends text to field. Email fields take text verbatim with
// surrounding whitespace stripped; other fields get a single separating space
// unless text starts a new line.
func (c *Controller) insert(field form.Field, text string) {
	current := c.page.Value(field.ID)

	var next string
	if field.IsEmail() {
		next = strings.TrimSpace(current + text)
	} else {
		if !strings.HasPrefix(text, "\n") {
			text = " " + text
		}
		next = strings.TrimLeftFunc(current+text, unicode.IsSpace)
	}
	c.replaceValue(field.ID, next)
}

func (c *Controller) replaceValue(id, value string) {
	c.page.SetValue(id, value)
	c.page.InputChanged(id)
}

func (c *Controller) execute(cmd command.Command, field form.Field, hasField bool) {
	switch cmd.Kind {
	case command.KindNavigateSection:
		c.navigateSection(cmd.Section)
	case command.KindAddEntry:
		c.page.AddEntry(cmd.Section)
		c.setStatus(fmt.Sprintf("Added %s entry.", entryNoun(cmd.Section)))
	case command.KindRemoveLast:
		if c.page.RemoveLastEntry(cmd.Section) {
			c.setStatus(fmt.Sprintf("Removed last %s entry.", entryNoun(cmd.Section)))
		} else {
			c.setStatus(fmt.Sprintf("No %s entries to remove.", entryNoun(cmd.Section)))
		}
	case command.KindRemoveAll:
		if c.page.RemoveAllEntries(cmd.Section) {
			c.setStatus(fmt.Sprintf("Removed all %s entries.", entryNoun(cmd.Section)))
		} else {
			c.setStatus(fmt.Sprintf("No %s entries to remove.", entryNoun(cmd.Section)))
		}
	case command.KindNextField:
		c.moveFocus(1)
		c.setStatus("Moved to next field.")
	case command.KindPreviousField:
		c.moveFocus(-1)
		c.setStatus("Moved to previous field.")
	case command.KindClearField:
		c.editField(field, hasField, "Cleared field.", func(string) string { return "" })
	case command.KindDeleteWord:
		c.editField(field, hasField, "Deleted last word.", command.DeleteLastWord)
	case command.KindDeleteSentence:
		c.editField(field, hasField, "Deleted last part.", command.DeleteLastSentence)
	case command.KindNewLine:
		if c.editField(field, hasField, "Inserted new line.", func(v string) string { return v + "\n" }) {
			c.speakWhileListening("New line.")
		}
	case command.KindNewParagraph:
		if c.editField(field, hasField, "Inserted new paragraph.", func(v string) string { return v + "\n\n" }) {
			c.speakWhileListening("New paragraph.")
		}
	case command.KindSave:
		c.runAction(actions.Save, "Saving resume...", "Saving your resume.")
	case command.KindPreview:
		c.runAction(actions.Preview, "Opening preview...", "Opening preview.")
	case command.KindExportPDF:
		c.runAction(actions.ExportPDF, "Exporting as PDF...", "Exporting your resume as PDF.")
	case command.KindExportDOCX:
		c.runAction(actions.ExportDOCX, "Exporting as DOCX...", "Exporting your resume as Word document.")
	case command.KindSetCaseMode:
		c.setCaseMode(cmd.Mode)
	default:
		c.logger.Warn("unhandled voice command", "kind", string(cmd.Kind))
	}
}

func (c *Controller) navigateSection(section form.Section) {
	name := string(section)
	f, ok := c.page.FieldAfterHeading(name)
	if ok {
		ok = c.page.Focus(f.ID)
	}
	if !ok {
		c.setStatus(fmt.Sprintf("Could not find %s.", name))
		c.speakWhileListening(fmt.Sprintf("I could not find %s.", name))
		return
	}
	c.setStatus(fmt.Sprintf("Moved to %s.", name))
	c.speakWhileListening(fmt.Sprintf("Opening %s.", name))
}

// moveFocus steps through focusable fields, clamping at both ends. With no
// focused field both directions land on the first field.
func (c *Controller) moveFocus(delta int) {
	fields := c.page.Focusable()
	if len(fields) == 0 {
		return
	}

	idx := -1
	if current, ok := c.page.Focused(); ok {
		for i, f := range fields {
			if f.ID == current.ID {
				idx = i
				break
			}
		}
	}
	next := min(max(idx+delta, 0), len(fields)-1)
	c.page.Focus(fields[next].ID)
}

func (c *Controller) editField(field form.Field, hasField bool, status string, edit func(string) string) bool {
	if !hasField {
		c.setStatus("No field selected.")
		return false
	}
	c.replaceValue(field.ID, edit(c.page.Value(field.ID)))
	c.setStatus(status)
	return true
}

var caseModeFeedback = map[transcript.Mode][2]string{
	transcript.ModeAllCaps: {
		"ALL CAPS mode ON",
		"All capitals mode enabled. Everything you type will be in capital letters.",
	},
	transcript.ModeCamelCase: {
		"Camel Case mode ON",
		"Camel case mode enabled. Text will be formatted as camel case.",
	},
	transcript.ModeLowerCase: {
		"Lower Case mode ON",
		"Lower case mode enabled. Everything you type will be lowercase.",
	},
	transcript.ModeOriginal: {
		"Original mode - all typing modes off",
		"All typing modes have been turned off. You are back to normal mode.",
	},
}

func (c *Controller) setCaseMode(mode transcript.Mode) {
	if !mode.Valid() {
		return
	}
	c.caseMode = mode
	c.indicator.SetCaseMode(mode.Label())

	feedback := caseModeFeedback[mode]
	c.setStatus(feedback[0])
	c.speakWhileListening(feedback[1])
}

// runAction starts a document action off the loop and reports its outcome
// back on it.
func (c *Controller) runAction(action actions.Action, status, narration string) {
	if c.actions == nil {
		c.setStatus("Document actions are unavailable.")
		c.speakWhileListening("Document actions are unavailable.")
		return
	}
	if err := c.actions.Check(action); err != nil {
		msg := "Could not find resume ID."
		if !errors.Is(err, actions.ErrMissingResumeID) {
			msg = "Document actions are unavailable."
		}
		c.logger.Warn("document action unavailable", "action", string(action), "error", err.Error())
		c.setStatus(msg)
		c.speakWhileListening(msg)
		return
	}

	c.setStatus(status)
	c.speakWhileListening(narration)

	snapshot := c.page.Snapshot()
	ctx := c.ctx
	go func() {
		res, err := c.actions.Run(ctx, action, snapshot)
		c.sched.Post(func() { c.actionDone(action, res, err) })
	}()
}

func (c *Controller) actionDone(action actions.Action, res actions.Result, err error) {
	if err != nil {
		c.logger.Error("document action failed", "action", string(action), "error", err.Error())
		c.setStatus(fmt.Sprintf("Could not %s: %v", actionVerb(action), err))
		return
	}
	c.logger.Info("document action complete", "action", string(action), "path", res.Path, "url", res.URL)
	c.setStatus(res.Message)
}

func actionVerb(action actions.Action) string {
	switch action {
	case actions.Save:
		return "save resume"
	case actions.Preview:
		return "open preview"
	default:
		return "export resume"
	}
}

func entryNoun(section form.Section) string {
	if section == form.SectionProjects {
		return "project"
	}
	return string(section)
}
