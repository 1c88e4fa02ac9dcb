package bridge

import (
	"github.com/rbright/dictaform/internal/form"
	"github.com/rbright/dictaform/internal/ipc"
	"github.com/rbright/dictaform/internal/narrator"
	"github.com/rbright/dictaform/internal/recognition"
)

// Message types sent to the page.
const (
	TypeRecognitionStart = "recognition.start"
	TypeRecognitionStop  = "recognition.stop"
	TypeSpeak            = "speak"
	TypeSpeakCancel      = "speak.cancel"
	TypeStatus           = "ui.status"
	TypeTranscript       = "ui.transcript"
	TypeActiveField      = "ui.active_field"
	TypeListening        = "ui.listening"
	TypeCaseMode         = "ui.case_mode"
	TypeFormRender       = "form.render"
	TypeFormValue        = "form.value"
	TypeControlResult    = "control.result"
)

// Message types received from the page.
const (
	TypeRecognitionStarted = "recognition.started"
	TypeRecognitionEnded   = "recognition.ended"
	TypeRecognitionError   = "recognition.error"
	TypeRecognitionResult  = "recognition.result"
	TypeSpeakDone          = "speak.done"
	TypeFocus              = "focus"
	TypeInput              = "input"
	TypeControl            = "control"
)

// Message is the single JSON envelope used in both directions.
type Message struct {
	Type     string                    `json:"type"`
	ID       uint64                    `json:"id,omitempty"`
	Text     string                    `json:"text,omitempty"`
	Final    bool                      `json:"final,omitempty"`
	Error    string                    `json:"error,omitempty"`
	Field    string                    `json:"field,omitempty"`
	Value    string                    `json:"value,omitempty"`
	On       bool                      `json:"on,omitempty"`
	Section  string                    `json:"section,omitempty"`
	Config   *recognition.EngineConfig `json:"config,omitempty"`
	Speech   *narrator.Utterance       `json:"speech,omitempty"`
	Nodes    []form.Node               `json:"nodes,omitempty"`
	Request  *ipc.Request              `json:"request,omitempty"`
	Response *ipc.Response             `json:"response,omitempty"`
}
