package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	engine := strings.ToLower(cfg.Engine.Backend)
	if engine != "bridge" && engine != "console" {
		return nil, fmt.Errorf("engine.backend must be one of: bridge, console")
	}
	if strings.TrimSpace(cfg.Engine.Language) == "" {
		return nil, fmt.Errorf("engine.language must not be empty")
	}

	if cfg.Recognition.DedupWindowMS < 0 {
		return nil, fmt.Errorf("recognition.dedup_window_ms must be >= 0")
	}
	if cfg.Recognition.RestartDelayMS < 0 {
		return nil, fmt.Errorf("recognition.restart_delay_ms must be >= 0")
	}

	narrator := strings.ToLower(cfg.Narrator.Backend)
	switch narrator {
	case "bridge", "command", "none":
	default:
		return nil, fmt.Errorf("narrator.backend must be one of: bridge, command, none")
	}
	if narrator == "bridge" && engine != "bridge" {
		return nil, fmt.Errorf("narrator.backend=bridge requires engine.backend=bridge")
	}
	if narrator == "command" && len(cfg.Narrator.Command.Argv) == 0 {
		return nil, fmt.Errorf("narrator.command must not be empty when narrator.backend=command")
	}
	if cfg.Narrator.Rate <= 0 || cfg.Narrator.Pitch <= 0 {
		return nil, fmt.Errorf("narrator.rate and narrator.pitch must be > 0")
	}
	if cfg.Narrator.TimeoutMS <= 0 {
		return nil, fmt.Errorf("narrator.timeout_ms must be > 0")
	}
	if cfg.Narrator.ResumeDelayMS < 0 {
		return nil, fmt.Errorf("narrator.resume_delay_ms must be >= 0")
	}

	if engine == "bridge" {
		if _, _, err := net.SplitHostPort(cfg.Bridge.Listen); err != nil {
			return nil, fmt.Errorf("bridge.listen %q: %w", cfg.Bridge.Listen, err)
		}
		if !strings.HasPrefix(cfg.Bridge.Path, "/") {
			return nil, fmt.Errorf("bridge.path must start with '/'")
		}
	}

	if raw := cfg.Actions.EditURL; raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("actions.edit_url %q must be an absolute URL", raw)
		}
		if !strings.Contains(u.Path, "/r/") {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("actions.edit_url %q has no resume id; builder actions will be unavailable", raw)})
		}
	}
	if cfg.Actions.TimeoutMS <= 0 {
		return nil, fmt.Errorf("actions.timeout_ms must be > 0")
	}
	if cfg.Actions.EditURL == "" && cfg.Form.Path == "" {
		warnings = append(warnings, Warning{Message: "neither actions.edit_url nor form.path is set; save has no destination"})
	}

	backend := strings.ToLower(cfg.Indicator.Backend)
	switch backend {
	case "log", "desktop", "hypr", "none":
	default:
		return nil, fmt.Errorf("indicator.backend must be one of: log, desktop, hypr, none")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if listen := cfg.Health.Listen; listen != "" {
		if _, _, err := net.SplitHostPort(listen); err != nil {
			return nil, fmt.Errorf("health.listen %q: %w", listen, err)
		}
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	return warnings, nil
}
