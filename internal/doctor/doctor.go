// Package doctor runs readiness diagnostics for config, tools, audio, and
// the daemon's endpoints.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/rbright/dictaform/internal/audio"
	"github.com/rbright/dictaform/internal/config"
	"github.com/rbright/dictaform/internal/health"
	"github.com/rbright/dictaform/internal/hypr"
)

// silenceFloorDBFS is digital silence; a live microphone in a quiet room sits well above it.
const silenceFloorDBFS = -90

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	switch cfg.Engine.Backend {
	case "bridge":
		checks = append(checks, checkListen("bridge.listen", cfg.Bridge.Listen))
	default:
		checks = append(checks, Check{Name: "engine", Pass: true, Message: "console engine reads final transcripts from stdin"})
	}

	switch cfg.Narrator.Backend {
	case "command":
		checks = append(checks, checkCommand(cfg.Narrator.Command.Argv, "narrator.command"))
	case "bridge":
		checks = append(checks, Check{Name: "narrator", Pass: true, Message: "speech synthesized by the browser page"})
	default:
		checks = append(checks, Check{Name: "narrator", Pass: true, Message: "narrator disabled"})
	}

	switch cfg.Indicator.Backend {
	case "hypr":
		checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
		hyprctl := checkBinary("hyprctl", "indicator.backend=hypr requires hyprctl")
		checks = append(checks, hyprctl)
		if hyprctl.Pass {
			checks = append(checks, checkHyprMonitor())
		}
	case "desktop":
		checks = append(checks, checkBinary("busctl", "indicator.backend=desktop requires busctl"))
	}

	checks = append(checks, checkAudio(cfg)...)
	checks = append(checks, checkEditURL(cfg))
	if strings.TrimSpace(cfg.Health.Listen) != "" {
		checks = append(checks, checkHealth(cfg.Health.Listen))
	}

	return Report{Checks: checks}
}

// checkConfig summarizes where config came from and how many warnings it produced.
func checkConfig(loaded config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		message = fmt.Sprintf("no file at %q; using defaults", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 {
		message += fmt.Sprintf(" (%d warning(s))", n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkHyprMonitor confirms hyprctl can talk to the compositor.
func checkHyprMonitor() Check {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	name, err := hypr.QueryFocusedMonitor(ctx)
	if err != nil {
		return Check{Name: "hypr.monitor", Pass: false, Message: err.Error()}
	}
	return Check{Name: "hypr.monitor", Pass: true, Message: fmt.Sprintf("notifications appear on %s", name)}
}

// checkListen verifies the bridge address can be bound. An address already
// held by a running daemon passes.
func checkListen(name string, addr string) Check {
	lis, err := net.Listen("tcp", addr)
	if err == nil {
		_ = lis.Close()
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s is available", addr)}
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		conn, dialErr := net.DialTimeout("tcp", addr, time.Second)
		if dialErr == nil {
			_ = conn.Close()
			return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s is in use (daemon running?)", addr)}
		}
	}
	return Check{Name: name, Pass: false, Message: err.Error()}
}

// checkAudio runs live device selection and, when it succeeds, samples the
// chosen microphone for signal.
func checkAudio(cfg config.Config) []Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return []Check{{Name: "audio.device", Pass: false, Message: err.Error()}}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	checks := []Check{{Name: "audio.device", Pass: true, Message: message}}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	level, err := audio.Probe(ctx, selection.Device, 300*time.Millisecond)
	switch {
	case err != nil:
		checks = append(checks, Check{Name: "audio.level", Pass: false, Message: err.Error()})
	case level.Silent(silenceFloorDBFS):
		checks = append(checks, Check{Name: "audio.level", Pass: false, Message: "no signal from microphone"})
	default:
		checks = append(checks, Check{Name: "audio.level", Pass: true, Message: fmt.Sprintf("peak %.1f dBFS, rms %.1f dBFS", level.PeakDBFS, level.RMSDBFS)})
	}
	return checks
}

// checkEditURL probes the builder page used for save and export.
func checkEditURL(cfg config.Config) Check {
	raw := strings.TrimSpace(cfg.Actions.EditURL)
	if raw == "" {
		if strings.TrimSpace(cfg.Form.Path) != "" {
			return Check{Name: "actions.edit_url", Pass: true, Message: fmt.Sprintf("not set; saving to %q", cfg.Form.Path)}
		}
		return Check{Name: "actions.edit_url", Pass: false, Message: "not set and form.path is empty; save has no destination"}
	}

	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(raw)
	if err != nil {
		return Check{Name: "actions.edit_url", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Check{Name: "actions.edit_url", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, raw)}
	}
	return Check{Name: "actions.edit_url", Pass: true, Message: fmt.Sprintf("reachable (HTTP %d)", resp.StatusCode)}
}

// checkHealth reports the running daemon's health. A daemon that is not
// running is not a failure.
func checkHealth(addr string) Check {
	resp, err := health.Check(context.Background(), addr, health.ServiceDaemon, time.Second)
	if err != nil {
		return Check{Name: "health", Pass: true, Message: "daemon not running"}
	}
	return Check{Name: "health", Pass: health.Serving(resp), Message: health.Render(resp)}
}
