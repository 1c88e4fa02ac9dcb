// Package app dispatches CLI commands: the serve daemon and the thin
// clients that forward control requests to it.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rbright/dictaform/internal/audio"
	"github.com/rbright/dictaform/internal/cli"
	"github.com/rbright/dictaform/internal/config"
	"github.com/rbright/dictaform/internal/doctor"
	"github.com/rbright/dictaform/internal/health"
	"github.com/rbright/dictaform/internal/ipc"
	"github.com/rbright/dictaform/internal/logging"
	"github.com/rbright/dictaform/internal/version"
)

const forwardTimeout = 2 * time.Second

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdin: os.Stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("dictaform"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("dictaform"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	level := cfgLoaded.Config.Log.Level
	if parsed.LogLevel != "" {
		level = parsed.LogLevel
	}
	opts := logging.Options{Level: level}
	if parsed.Console || cfgLoaded.Config.Log.Console {
		opts.Console = r.Stderr
	}
	logRuntime, err := logging.New(opts)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandServe:
		return r.commandServe(ctx, cfgLoaded.Config, logger)
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx, cfgLoaded.Config)
	case cli.CommandToggle, cli.CommandOn, cli.CommandOff:
		return r.forwardOrFail(ctx, ipc.Request{Command: string(parsed.Command)})
	case cli.CommandSay:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandSay, Text: strings.Join(parsed.Args, " ")})
	case cli.CommandFocus:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandFocus, Field: parsed.Args[0]})
	case cli.CommandNarrator:
		enabled := parsed.Args[0] == "on"
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandNarrator, Enabled: &enabled})
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context, cfg config.Config) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "stopped")
		return 0
	}

	resp, handled, err := ipc.Forward(ctx, socketPath, ipc.Request{Command: ipc.CommandStatus}, forwardTimeout)
	if !handled {
		fmt.Fprintln(r.Stdout, "stopped")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	state := resp.State
	if state == "" {
		state = "off"
	}
	line := fmt.Sprintf("voice=%s listening=%t", state, resp.Listening)
	if resp.Field != "" {
		line += " field=" + resp.Field
	}
	if resp.CaseMode != "" {
		line += " case=" + resp.CaseMode
	}
	if addr := strings.TrimSpace(cfg.Health.Listen); addr != "" && cfg.Engine.Backend == "bridge" {
		if hr, herr := health.Check(ctx, addr, health.ServiceBridge, 500*time.Millisecond); herr == nil {
			line += " page=" + strings.ToLower(hr.GetStatus().String())
		}
	}
	fmt.Fprintln(r.Stdout, line)
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := ipc.Forward(ctx, socketPath, req, forwardTimeout)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: dictaform daemon is not running (start it with `dictaform serve`)")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	sock, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{ProbeTimeout: 180 * time.Millisecond, Retries: 4})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		if err := sock.Close(); err != nil {
			logger.Debug("close control socket", "error", err.Error())
		}
	}()

	stdin := r.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	d, err := newDaemon(cfg, stdin, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon setup failed", "error", err.Error())
		return 1
	}

	if err := d.run(ctx, sock); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon failed", "error", err.Error())
		return 1
	}
	logger.Info("daemon stopped")
	return 0
}
