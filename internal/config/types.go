// Package config resolves, parses, validates, and defaults dictaform configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by dictaform.
type Config struct {
	Engine      EngineConfig
	Recognition RecognitionConfig
	Narrator    NarratorConfig
	Bridge      BridgeConfig
	Form        FormConfig
	Actions     ActionsConfig
	Indicator   IndicatorConfig
	Audio       AudioConfig
	Health      HealthConfig
	Log         LogConfig
}

// EngineConfig selects where speech recognition comes from.
type EngineConfig struct {
	// Backend is "bridge" (browser page over websocket) or "console" (stdin lines).
	Backend  string
	Language string
}

// RecognitionConfig controls the recognition session timers.
type RecognitionConfig struct {
	DedupWindowMS  int
	RestartDelayMS int
}

// DedupWindow returns the final-transcript dedup window.
func (c RecognitionConfig) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowMS) * time.Millisecond
}

// RestartDelay returns the delay before auto-restarting the engine.
func (c RecognitionConfig) RestartDelay() time.Duration {
	return time.Duration(c.RestartDelayMS) * time.Millisecond
}

// NarratorConfig controls spoken feedback.
type NarratorConfig struct {
	Enable bool
	// Backend is "bridge", "command", or "none".
	Backend       string
	Rate          float64
	Pitch         float64
	Locale        string
	TimeoutMS     int
	ResumeDelayMS int
	Command       CommandConfig
}

// Timeout returns the safety timeout for one narration.
func (c NarratorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ResumeDelay returns the pause between narration end and listening resume.
func (c NarratorConfig) ResumeDelay() time.Duration {
	return time.Duration(c.ResumeDelayMS) * time.Millisecond
}

// BridgeConfig controls the browser speech bridge listener.
type BridgeConfig struct {
	Listen string
	Path   string
}

// FormConfig controls the resume document.
type FormConfig struct {
	Path          string
	DefaultFields []string
}

// ActionsConfig controls save/preview/export against the resume builder.
type ActionsConfig struct {
	EditURL   string
	ExportDir string
	TimeoutMS int
	EnvFile   string
}

// Timeout returns the builder request timeout.
func (c ActionsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// IndicatorConfig controls status notifications and audio cues.
type IndicatorConfig struct {
	// Backend is "log", "desktop", "hypr", or "none".
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	ErrorTimeoutMS int
}

// AudioConfig controls preferred and fallback microphone selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// HealthConfig controls the gRPC health listener. An empty Listen disables it.
type HealthConfig struct {
	Listen string
}

// LogConfig controls log level and the optional stderr console handler.
type LogConfig struct {
	Level   string
	Console bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
