// Package command classifies spoken utterances into editor commands.
package command

import (
	"regexp"
	"strings"

	"github.com/rbright/dictaform/internal/form"
	"github.com/rbright/dictaform/internal/transcript"
)

// Kind names one command category.
type Kind string

const (
	KindNavigateSection Kind = "navigate_section"
	KindAddEntry        Kind = "add_entry"
	KindRemoveLast      Kind = "remove_last"
	KindRemoveAll       Kind = "remove_all"
	KindNextField       Kind = "next_field"
	KindPreviousField   Kind = "previous_field"
	KindClearField      Kind = "clear_field"
	KindDeleteWord      Kind = "delete_word"
	KindDeleteSentence  Kind = "delete_sentence"
	KindNewLine         Kind = "new_line"
	KindNewParagraph    Kind = "new_paragraph"
	KindSave            Kind = "save"
	KindPreview         Kind = "preview"
	KindExportPDF       Kind = "export_pdf"
	KindExportDOCX      Kind = "export_docx"
	KindSetCaseMode     Kind = "set_case_mode"
)

// Command is one recognized utterance with its captured parameters.
type Command struct {
	Kind    Kind
	Section form.Section
	Mode    transcript.Mode
}

type rule struct {
	pattern *regexp.Regexp
	build   func(match []string) Command
}

// Match classifies utterance. ok is false when no rule matches and the
// utterance should be dictated instead.
func Match(utterance string) (Command, bool) {
	t := strings.ToLower(strings.TrimSpace(utterance))
	if t == "" {
		return Command{}, false
	}
	for _, r := range rules {
		if m := r.pattern.FindStringSubmatch(t); m != nil {
			return r.build(m), true
		}
	}
	return Command{}, false
}

const sectionNames = `(basics|education|experience|projects|skills)`

var rules = []rule{
	{
		pattern: regexp.MustCompile(`^(?:go to|open|edit|go)\s+` + sectionNames + `$`),
		build: func(m []string) Command {
			return Command{Kind: KindNavigateSection, Section: form.Section(m[1])}
		},
	},

	phrases(Command{Kind: KindAddEntry, Section: form.SectionEducation}, "add education"),
	phrases(Command{Kind: KindAddEntry, Section: form.SectionExperience}, "add experience"),
	phrases(Command{Kind: KindAddEntry, Section: form.SectionProjects}, "add project", "add projects"),

	phrases(Command{Kind: KindRemoveLast, Section: form.SectionEducation},
		"remove last education", "delete last education", "remove education"),
	phrases(Command{Kind: KindRemoveAll, Section: form.SectionEducation},
		"remove all education", "delete all education"),
	phrases(Command{Kind: KindRemoveLast, Section: form.SectionExperience},
		"remove last experience", "delete last experience", "remove experience"),
	phrases(Command{Kind: KindRemoveAll, Section: form.SectionExperience},
		"remove all experience", "delete all experience"),
	phrases(Command{Kind: KindRemoveLast, Section: form.SectionProjects},
		"remove last project", "delete last project", "remove project", "remove projects"),
	phrases(Command{Kind: KindRemoveAll, Section: form.SectionProjects},
		"remove all project", "delete all project", "remove all projects", "delete all projects"),

	phrases(Command{Kind: KindNextField}, "go to next field"),
	phrases(Command{Kind: KindPreviousField}, "go to previous field"),

	phrases(Command{Kind: KindClearField}, "clear field", "clear this", "clear", "delete all"),
	phrases(Command{Kind: KindDeleteWord}, "delete word"),
	phrases(Command{Kind: KindDeleteSentence},
		"delete last", "undo last", "delete last sentence", "delete sentence"),

	phrases(Command{Kind: KindNewLine}, "next line", "new line"),
	phrases(Command{Kind: KindNewParagraph}, "new paragraph", "next paragraph"),

	{
		pattern: regexp.MustCompile(`^save (?:the )?resume$`),
		build:   constant(Command{Kind: KindSave}),
	},
	{
		pattern: regexp.MustCompile(`^preview (?:the )?resume$`),
		build:   constant(Command{Kind: KindPreview}),
	},
	{
		pattern: regexp.MustCompile(`^(?:export|download) (?:the )?resume as pdf$`),
		build:   constant(Command{Kind: KindExportPDF}),
	},
	{
		pattern: regexp.MustCompile(`^(?:export|download) (?:the )?resume as docx?$`),
		build:   constant(Command{Kind: KindExportDOCX}),
	},

	phrases(Command{Kind: KindSetCaseMode, Mode: transcript.ModeAllCaps},
		"switch to all capital", "switch to all caps", "caps lock on"),
	phrases(Command{Kind: KindSetCaseMode, Mode: transcript.ModeCamelCase}, "switch to camel case"),
	phrases(Command{Kind: KindSetCaseMode, Mode: transcript.ModeLowerCase},
		"switch to lower case", "switch to lowercase"),
	phrases(Command{Kind: KindSetCaseMode, Mode: transcript.ModeOriginal},
		"revert back to original", "turn off case mode", "reset case mode"),
}

// phrases builds an exact-match rule over a closed set of phrasings.
func phrases(cmd Command, exact ...string) rule {
	quoted := make([]string, len(exact))
	for i, p := range exact {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return rule{
		pattern: regexp.MustCompile(`^(?:` + strings.Join(quoted, "|") + `)$`),
		build:   constant(cmd),
	}
}

func constant(cmd Command) func([]string) Command {
	return func([]string) Command { return cmd }
}
