package bridge

import "github.com/rbright/dictaform/internal/form"

// SetStatus shows text in the page's status line.
func (s *Server) SetStatus(text string) {
	s.retain(Message{Type: TypeStatus, Text: text})
}

// SetLiveTranscript shows the live transcript line.
func (s *Server) SetLiveTranscript(text string) {
	s.retain(Message{Type: TypeTranscript, Text: text})
}

// MarkActiveField moves the active-field marker.
func (s *Server) MarkActiveField(id string, active bool) {
	s.retain(Message{Type: TypeActiveField, Field: id, On: active})
}

// SetListening toggles the listening badge.
func (s *Server) SetListening(on bool) {
	s.retain(Message{Type: TypeListening, On: on})
}

// SetCaseMode shows the case-mode label.
func (s *Server) SetCaseMode(label string) {
	s.retain(Message{Type: TypeCaseMode, Text: label})
}

// RenderForm pushes the full document to the page.
func (s *Server) RenderForm(section form.Section, nodes []form.Node) {
	s.retain(Message{Type: TypeFormRender, Section: string(section), Nodes: nodes})
}

// SetFieldValue pushes a single field's value after an in-place edit.
func (s *Server) SetFieldValue(id, value string) {
	if err := s.send(Message{Type: TypeFormValue, Field: id, Value: value}); err != nil {
		s.logger.Debug("bridge field update dropped", "field", id, "error", err.Error())
	}
}
