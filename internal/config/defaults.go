package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	speak := "espeak-ng --stdin"

	return Config{
		Engine: EngineConfig{
			Backend:  "bridge",
			Language: "en-IN",
		},
		Recognition: RecognitionConfig{
			DedupWindowMS:  900,
			RestartDelayMS: 200,
		},
		Narrator: NarratorConfig{
			Enable:        true,
			Backend:       "bridge",
			Rate:          1.0,
			Pitch:         1.0,
			Locale:        "en-IN",
			TimeoutMS:     5000,
			ResumeDelayMS: 250,
			Command:       CommandConfig{Raw: speak, Argv: mustSplitCommand(speak)},
		},
		Bridge: BridgeConfig{
			Listen: "127.0.0.1:8765",
			Path:   "/speech",
		},
		Form: FormConfig{
			DefaultFields: []string{"full_name", "title"},
		},
		Actions: ActionsConfig{
			TimeoutMS: 30000,
			EnvFile:   ".env",
		},
		Indicator: IndicatorConfig{
			Backend:        "log",
			DesktopAppName: "dictaform",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
