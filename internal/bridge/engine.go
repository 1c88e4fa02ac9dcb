package bridge

import (
	"fmt"

	"github.com/rbright/dictaform/internal/recognition"
)

// Create implements recognition.Provider. It fails with
// recognition.ErrUnavailable while no page is connected.
func (s *Server) Create(cfg recognition.EngineConfig, sink recognition.Sink) (recognition.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return nil, fmt.Errorf("%w: %w", recognition.ErrUnavailable, ErrNoPage)
	}
	s.sink = sink
	return &engine{s: s, cfg: cfg}, nil
}

type engine struct {
	s   *Server
	cfg recognition.EngineConfig
}

func (e *engine) Start() error {
	cfg := e.cfg
	if err := e.s.send(Message{Type: TypeRecognitionStart, Config: &cfg}); err != nil {
		return err
	}
	e.s.mu.Lock()
	e.s.engineOn = true
	e.s.mu.Unlock()
	return nil
}

func (e *engine) Stop() error {
	return e.s.send(Message{Type: TypeRecognitionStop})
}
