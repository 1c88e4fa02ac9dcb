package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsWarnAboutMissingSaveDestination(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "no destination")
}

func TestValidateEditURLWithoutResumeIDWarns(t *testing.T) {
	cfg := Default()
	cfg.Actions.EditURL = "https://builder.example.com/builder/"

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "no resume id")
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown engine", mutate: func(c *Config) { c.Engine.Backend = "riva" }, wantErr: "engine.backend"},
		{name: "empty language", mutate: func(c *Config) { c.Engine.Language = " " }, wantErr: "engine.language"},
		{name: "negative dedup window", mutate: func(c *Config) { c.Recognition.DedupWindowMS = -1 }, wantErr: "dedup_window_ms"},
		{name: "negative restart delay", mutate: func(c *Config) { c.Recognition.RestartDelayMS = -1 }, wantErr: "restart_delay_ms"},
		{name: "unknown narrator", mutate: func(c *Config) { c.Narrator.Backend = "say" }, wantErr: "narrator.backend"},
		{name: "bridge narrator without bridge engine", mutate: func(c *Config) { c.Engine.Backend = "console" }, wantErr: "requires engine.backend=bridge"},
		{name: "empty narrator command", mutate: func(c *Config) {
			c.Narrator.Backend = "command"
			c.Narrator.Command = CommandConfig{}
		}, wantErr: "narrator.command"},
		{name: "zero rate", mutate: func(c *Config) { c.Narrator.Rate = 0 }, wantErr: "narrator.rate"},
		{name: "zero narrator timeout", mutate: func(c *Config) { c.Narrator.TimeoutMS = 0 }, wantErr: "narrator.timeout_ms"},
		{name: "bad bridge listen", mutate: func(c *Config) { c.Bridge.Listen = "8765" }, wantErr: "bridge.listen"},
		{name: "bad bridge path", mutate: func(c *Config) { c.Bridge.Path = "speech" }, wantErr: "bridge.path"},
		{name: "relative edit url", mutate: func(c *Config) { c.Actions.EditURL = "/builder/r/4/edit/" }, wantErr: "absolute URL"},
		{name: "zero actions timeout", mutate: func(c *Config) { c.Actions.TimeoutMS = 0 }, wantErr: "actions.timeout_ms"},
		{name: "unknown indicator", mutate: func(c *Config) { c.Indicator.Backend = "tray" }, wantErr: "indicator.backend"},
		{name: "desktop without app name", mutate: func(c *Config) {
			c.Indicator.Backend = "desktop"
			c.Indicator.DesktopAppName = ""
		}, wantErr: "desktop_app_name"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout"},
		{name: "bad health listen", mutate: func(c *Config) { c.Health.Listen = "nope" }, wantErr: "health.listen"},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateConsoleEngineWithCommandNarrator(t *testing.T) {
	cfg := Default()
	cfg.Engine.Backend = "console"
	cfg.Narrator.Backend = "command"
	cfg.Bridge.Listen = ""
	cfg.Form.Path = "/tmp/resume.json"

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Empty(t, warnings)
}
