package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Engine      *jsoncEngine      `json:"engine"`
	Recognition *jsoncRecognition `json:"recognition"`
	Narrator    *jsoncNarrator    `json:"narrator"`
	Bridge      *jsoncBridge      `json:"bridge"`
	Form        *jsoncForm        `json:"form"`
	Actions     *jsoncActions     `json:"actions"`
	Indicator   *jsoncIndicator   `json:"indicator"`
	Audio       *jsoncAudio       `json:"audio"`
	Health      *jsoncHealth      `json:"health"`
	Log         *jsoncLog         `json:"log"`
}

type jsoncEngine struct {
	Backend  *string `json:"backend"`
	Language *string `json:"language"`
}

type jsoncRecognition struct {
	DedupWindowMS  *int `json:"dedup_window_ms"`
	RestartDelayMS *int `json:"restart_delay_ms"`
}

type jsoncNarrator struct {
	Enable        *bool    `json:"enable"`
	Backend       *string  `json:"backend"`
	Rate          *float64 `json:"rate"`
	Pitch         *float64 `json:"pitch"`
	Locale        *string  `json:"locale"`
	TimeoutMS     *int     `json:"timeout_ms"`
	ResumeDelayMS *int     `json:"resume_delay_ms"`
	Command       *string  `json:"command"`
}

type jsoncBridge struct {
	Listen *string `json:"listen"`
	Path   *string `json:"path"`
}

type jsoncForm struct {
	Path          *string          `json:"path"`
	DefaultFields *jsoncStringList `json:"default_fields"`
}

type jsoncActions struct {
	EditURL   *string `json:"edit_url"`
	ExportDir *string `json:"export_dir"`
	TimeoutMS *int    `json:"timeout_ms"`
	EnvFile   *string `json:"env_file"`
}

type jsoncIndicator struct {
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncHealth struct {
	Listen *string `json:"listen"`
}

type jsoncLog struct {
	Level   *string `json:"level"`
	Console *bool   `json:"console"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	plain, err := blankJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(plain))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, locateDecodeError(plain, err)
	}
	if decoder.More() {
		return Config{}, nil, errors.New("config must hold a single JSON object")
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if e := payload.Engine; e != nil {
		setString(&cfg.Engine.Backend, e.Backend)
		setString(&cfg.Engine.Language, e.Language)
	}

	if r := payload.Recognition; r != nil {
		setInt(&cfg.Recognition.DedupWindowMS, r.DedupWindowMS)
		setInt(&cfg.Recognition.RestartDelayMS, r.RestartDelayMS)
	}

	if n := payload.Narrator; n != nil {
		if n.Enable != nil {
			cfg.Narrator.Enable = *n.Enable
		}
		setString(&cfg.Narrator.Backend, n.Backend)
		if n.Rate != nil {
			cfg.Narrator.Rate = *n.Rate
		}
		if n.Pitch != nil {
			cfg.Narrator.Pitch = *n.Pitch
		}
		setString(&cfg.Narrator.Locale, n.Locale)
		setInt(&cfg.Narrator.TimeoutMS, n.TimeoutMS)
		setInt(&cfg.Narrator.ResumeDelayMS, n.ResumeDelayMS)
		if n.Command != nil {
			raw := *n.Command
			argv, err := splitCommand(raw)
			if err != nil {
				return fmt.Errorf("invalid narrator.command: %w", err)
			}
			cfg.Narrator.Command = CommandConfig{Raw: raw, Argv: argv}
		}
	}

	if b := payload.Bridge; b != nil {
		setString(&cfg.Bridge.Listen, b.Listen)
		setString(&cfg.Bridge.Path, b.Path)
	}

	if f := payload.Form; f != nil {
		setString(&cfg.Form.Path, f.Path)
		if f.DefaultFields != nil {
			fields := make([]string, 0, len(*f.DefaultFields))
			for _, id := range *f.DefaultFields {
				if id = strings.TrimSpace(id); id != "" {
					fields = append(fields, id)
				}
			}
			cfg.Form.DefaultFields = fields
		}
	}

	if a := payload.Actions; a != nil {
		setString(&cfg.Actions.EditURL, a.EditURL)
		setString(&cfg.Actions.ExportDir, a.ExportDir)
		setInt(&cfg.Actions.TimeoutMS, a.TimeoutMS)
		setString(&cfg.Actions.EnvFile, a.EnvFile)
	}

	if i := payload.Indicator; i != nil {
		setString(&cfg.Indicator.Backend, i.Backend)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		if i.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *i.SoundEnable
		}
		setInt(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}

	if h := payload.Health; h != nil {
		setString(&cfg.Health.Listen, h.Listen)
	}

	if l := payload.Log; l != nil {
		setString(&cfg.Log.Level, l.Level)
		if l.Console != nil {
			cfg.Log.Console = *l.Console
		}
	}

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
