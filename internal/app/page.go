package app

import (
	"github.com/rbright/dictaform/internal/bridge"
	"github.com/rbright/dictaform/internal/form"
	"github.com/rbright/dictaform/internal/health"
)

// livePage is the document the controller edits. Value changes made by
// voice are pushed to the connected browser page.
type livePage struct {
	*form.Document
	bridge *bridge.Server
}

func (p livePage) SetValue(id, value string) bool {
	if !p.Document.SetValue(id, value) {
		return false
	}
	if p.bridge != nil {
		p.bridge.SetFieldValue(id, value)
	}
	return true
}

// listeningHealth reports recognition as serving while the controller listens.
type listeningHealth struct {
	server *health.Server
}

func (h listeningHealth) SetListening(on bool) {
	h.server.SetServing(health.ServiceEngine, on)
}

func (listeningHealth) SetStatus(string)             {}
func (listeningHealth) SetLiveTranscript(string)     {}
func (listeningHealth) MarkActiveField(string, bool) {}
func (listeningHealth) SetCaseMode(string)           {}
