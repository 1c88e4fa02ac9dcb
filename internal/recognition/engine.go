// Package recognition runs continuous listening on top of a speech-input engine.
package recognition

import "errors"

// ErrUnavailable is returned when the host offers no speech-input engine.
var ErrUnavailable = errors.New("speech recognition unavailable")

// EngineConfig is applied to every engine a Provider creates.
type EngineConfig struct {
	Language        string `json:"lang"`
	Continuous      bool   `json:"continuous"`
	InterimResults  bool   `json:"interim_results"`
	MaxAlternatives int    `json:"max_alternatives"`
}

// Sink receives engine callbacks. Engines may call it from any goroutine.
type Sink interface {
	EngineStarted()
	EngineEnded()
	EngineError(code string)
	EngineResult(text string, final bool)
}

// Engine is one speech-input session handle.
type Engine interface {
	Start() error
	Stop() error
}

// Provider creates engines. Create returns ErrUnavailable when speech input is
// missing from the host.
type Provider interface {
	Create(cfg EngineConfig, sink Sink) (Engine, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(cfg EngineConfig, sink Sink) (Engine, error)

// Create calls f.
func (f ProviderFunc) Create(cfg EngineConfig, sink Sink) (Engine, error) {
	return f(cfg, sink)
}
