package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithFlags(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/dictaform.jsonc", "--log-level", "debug", "--console", "serve"})
	require.NoError(t, err)
	require.Equal(t, CommandServe, parsed.Command)
	require.Equal(t, "/tmp/dictaform.jsonc", parsed.ConfigPath)
	require.Equal(t, "debug", parsed.LogLevel)
	require.True(t, parsed.Console)
	require.False(t, parsed.ShowHelp)
	require.Empty(t, parsed.Args)
}

func TestParseSayKeepsWordsVerbatim(t *testing.T) {
	parsed, err := Parse([]string{"-c", "/tmp/cfg", "say", "go", "to", "-skills"})
	require.NoError(t, err)
	require.Equal(t, CommandSay, parsed.Command)
	require.Equal(t, []string{"go", "to", "-skills"}, parsed.Args)
	require.Equal(t, "/tmp/cfg", parsed.ConfigPath)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantCmd  Command
		wantArgs []string
		wantHelp bool
		wantPath string
	}{
		{
			name:     "help short flag",
			args:     []string{"-h"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "help long flag wins over command",
			args:     []string{"--help", "status"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:    "version flag",
			args:    []string{"--version"},
			wantCmd: CommandVersion,
		},
		{
			name:    "config after command",
			args:    []string{"status", "--config", "/tmp/cfg"},
			wantErr: "unexpected arguments after command",
		},
		{
			name:    "missing config path",
			args:    []string{"--config"},
			wantErr: "flag needs an argument",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "unknown flag",
		},
		{
			name:    "unknown command",
			args:    []string{"bogus"},
			wantErr: "unknown command",
		},
		{
			name:    "say without words",
			args:    []string{"say"},
			wantErr: "requires arguments",
		},
		{
			name:    "focus without field",
			args:    []string{"focus"},
			wantErr: "requires 1 argument",
		},
		{
			name:    "focus with two fields",
			args:    []string{"focus", "email", "phone"},
			wantErr: "unexpected arguments",
		},
		{
			name:    "narrator bad mode",
			args:    []string{"narrator", "loud"},
			wantErr: "expects on or off",
		},
		{
			name:     "narrator mode normalized",
			args:     []string{"narrator", "OFF"},
			wantCmd:  CommandNarrator,
			wantArgs: []string{"off"},
		},
		{
			name:     "focus with config",
			args:     []string{"--config", "/tmp/cfg", "focus", "email"},
			wantCmd:  CommandFocus,
			wantArgs: []string{"email"},
			wantPath: "/tmp/cfg",
		},
		{
			name:    "toggle",
			args:    []string{"toggle"},
			wantCmd: CommandToggle,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
			if tc.wantArgs == nil {
				require.Empty(t, parsed.Args)
			} else {
				require.Equal(t, tc.wantArgs, parsed.Args)
			}
		})
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("dictaform")
	for _, want := range []string{"serve", "toggle", "say WORDS", "focus FIELD", "narrator on|off", "doctor", "--config PATH", "--console", "http://127.0.0.1:8765/speech"} {
		require.Contains(t, text, want)
	}
}
