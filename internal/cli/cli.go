// Package cli parses dictaform's command line.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

type Command string

const (
	CommandServe    Command = "serve"
	CommandToggle   Command = "toggle"
	CommandOn       Command = "on"
	CommandOff      Command = "off"
	CommandSay      Command = "say"
	CommandFocus    Command = "focus"
	CommandNarrator Command = "narrator"
	CommandStatus   Command = "status"
	CommandDevices  Command = "devices"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

// arity is the accepted positional argument count per command; -1 means one or more.
var arity = map[Command]int{
	CommandServe:    0,
	CommandToggle:   0,
	CommandOn:       0,
	CommandOff:      0,
	CommandSay:      -1,
	CommandFocus:    1,
	CommandNarrator: 1,
	CommandStatus:   0,
	CommandDevices:  0,
	CommandDoctor:   0,
	CommandVersion:  0,
	CommandHelp:     0,
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	LogLevel   string
	Console    bool
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	fs := pflag.NewFlagSet("dictaform", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)

	configPath := fs.StringP("config", "c", "", "config file path")
	logLevel := fs.String("log-level", "", "override log.level")
	console := fs.Bool("console", false, "mirror logs to stderr")
	help := fs.BoolP("help", "h", false, "show help")
	showVersion := fs.Bool("version", false, "show version")

	if err := fs.Parse(args); err != nil {
		return Parsed{}, err
	}

	parsed := Parsed{
		Command:    CommandHelp,
		ShowHelp:   true,
		ConfigPath: *configPath,
		LogLevel:   *logLevel,
		Console:    *console,
	}
	if *help {
		return parsed, nil
	}
	if *showVersion {
		parsed.Command = CommandVersion
		parsed.ShowHelp = false
		return parsed, nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return parsed, nil
	}

	cmd := Command(rest[0])
	want, ok := arity[cmd]
	if !ok {
		return Parsed{}, fmt.Errorf("unknown command: %s", rest[0])
	}
	operands := rest[1:]
	switch {
	case want < 0 && len(operands) == 0:
		return Parsed{}, fmt.Errorf("command %q requires arguments", cmd)
	case want >= 0 && len(operands) > want:
		return Parsed{}, fmt.Errorf("unexpected arguments after command %q", cmd)
	case want > 0 && len(operands) < want:
		return Parsed{}, fmt.Errorf("command %q requires %d argument(s)", cmd, want)
	}
	if cmd == CommandNarrator {
		mode := strings.ToLower(operands[0])
		if mode != "on" && mode != "off" {
			return Parsed{}, fmt.Errorf("narrator expects on or off, got %q", operands[0])
		}
		operands = []string{mode}
	}

	parsed.Command = cmd
	parsed.Args = operands
	parsed.ShowHelp = cmd == CommandHelp
	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [flags] <command> [args]

Commands:
  serve            Run the daemon (bridge page, recognizer, narrator)
  toggle           Start listening, or stop when already listening
  on               Start listening
  off              Stop listening
  say WORDS...     Handle WORDS as one final transcript
  focus FIELD      Move the cursor to a form field by id
  narrator on|off  Enable or disable spoken feedback
  status           Print current state
  devices          List available input devices
  doctor           Run configuration and environment checks
  version          Print version information
  help             Show this help

Flags:
  -c, --config PATH     Config file path (default: $XDG_CONFIG_HOME/dictaform/config.jsonc)
      --log-level LVL   Override log.level (debug, info, warn, error)
      --console         Mirror logs to stderr
  -h, --help            Show help
      --version         Show version

With engine.backend "bridge" (the default), open the page served at
http://<bridge.listen><bridge.path> (http://127.0.0.1:8765/speech) in Chrome
or Edge; it supplies speech recognition and narration. With "console", serve
reads one transcript per line from stdin.
`, binaryName)
}
