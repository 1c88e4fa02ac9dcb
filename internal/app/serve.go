package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/dictaform/internal/actions"
	"github.com/rbright/dictaform/internal/bridge"
	"github.com/rbright/dictaform/internal/config"
	"github.com/rbright/dictaform/internal/console"
	"github.com/rbright/dictaform/internal/form"
	"github.com/rbright/dictaform/internal/health"
	"github.com/rbright/dictaform/internal/indicator"
	"github.com/rbright/dictaform/internal/ipc"
	"github.com/rbright/dictaform/internal/loop"
	"github.com/rbright/dictaform/internal/narrator"
	"github.com/rbright/dictaform/internal/output"
	"github.com/rbright/dictaform/internal/recognition"
	"github.com/rbright/dictaform/internal/session"
)

// tokenEnv names the builder session token read from the environment or actions.env_file.
const tokenEnv = "DICTAFORM_TOKEN"

const (
	loopBuffer      = 256
	pageCallTimeout = 2 * time.Second
	shutdownTimeout = 3 * time.Second
)

// daemon owns every long-lived component of `dictaform serve`. Document and
// controller state is touched only on the loop goroutine.
type daemon struct {
	cfg    config.Config
	logger *slog.Logger
	loop   *loop.Loop

	doc        *form.Document
	controller *session.Controller
	notifier   *indicator.Notifier
	bridge     *bridge.Server
	console    *console.Engine
	health     *health.Server
}

func newDaemon(cfg config.Config, stdin io.Reader, logger *slog.Logger) (*daemon, error) {
	fsys := afero.NewOsFs()
	d := &daemon{
		cfg:    cfg,
		logger: logger,
		loop:   loop.New(loopBuffer),
	}

	var store *form.Store
	var resume form.Resume
	if path := expandHome(cfg.Form.Path); path != "" {
		store = form.NewStore(fsys, path)
		loaded, exists, err := store.Load()
		if err != nil {
			return nil, err
		}
		if exists {
			logger.Info("resume loaded", "path", path)
		}
		resume = loaded
	}
	d.doc = form.New(resume)

	acts, err := actions.New(actions.Config{
		EditURL:   cfg.Actions.EditURL,
		ExportDir: expandHome(cfg.Actions.ExportDir),
		Token:     loadToken(expandHome(cfg.Actions.EnvFile), logger),
		Timeout:   cfg.Actions.Timeout(),
	}, fsys, store, logger)
	if err != nil {
		return nil, fmt.Errorf("configure actions: %w", err)
	}

	d.notifier = indicator.New(cfg.Indicator, logger)
	surfaces := indicator.Multi{d.notifier}

	var provider recognition.Provider
	switch cfg.Engine.Backend {
	case "console":
		d.console = console.New(stdin, logger)
		provider = d.console
	default:
		d.bridge = bridge.New(bridge.Config{}, bridge.Handlers{
			Connected:    d.pageConnected,
			Disconnected: d.pageDisconnected,
			Focus:        d.pageFocus,
			Input:        d.pageInput,
			Control:      d.pageControl,
		}, logger)
		provider = d.bridge
		surfaces = append(surfaces, d.bridge)
	}

	if strings.TrimSpace(cfg.Health.Listen) != "" {
		d.health = health.NewServer(logger)
		surfaces = append(surfaces, listeningHealth{server: d.health})
	}

	var speaker session.Speaker
	if synth := d.synthesizer(); synth != nil {
		speaker = narrator.New(narrator.Config{
			Enabled: cfg.Narrator.Enable,
			Rate:    cfg.Narrator.Rate,
			Pitch:   cfg.Narrator.Pitch,
			Locale:  cfg.Narrator.Locale,
			Timeout: cfg.Narrator.Timeout(),
		}, synth, d.loop, logger)
	}

	recCfg := recognition.Config{
		Language:     cfg.Engine.Language,
		DedupWindow:  cfg.Recognition.DedupWindow(),
		RestartDelay: cfg.Recognition.RestartDelay(),
	}
	d.controller = session.NewController(session.Options{
		Logger:    logger,
		Scheduler: d.loop,
		Page:      livePage{Document: d.doc, bridge: d.bridge},
		Narrator:  speaker,
		Indicator: surfaces,
		Actions:   acts,
		OpenRecognizer: func(l recognition.Listener, shouldRestart func() bool) (session.Recognizer, error) {
			s, err := recognition.Open(provider, recCfg, d.loop, l, shouldRestart, logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		ResumeDelay:   cfg.Narrator.ResumeDelay(),
		DefaultFields: cfg.Form.DefaultFields,
	})

	d.doc.OnFocus(d.controller.FieldFocused)
	d.doc.OnRender(func(section form.Section) {
		if d.bridge != nil {
			d.bridge.RenderForm(section, d.doc.Nodes())
		}
	})
	if d.bridge != nil {
		d.bridge.RenderForm("", d.doc.Nodes())
	}

	return d, nil
}

func (d *daemon) synthesizer() narrator.Synthesizer {
	switch d.cfg.Narrator.Backend {
	case "bridge":
		if d.bridge != nil {
			return d.bridge
		}
	case "command":
		return output.NewSpeaker(d.cfg.Narrator.Command.Argv, d.logger)
	}
	return nil
}

// run serves every endpoint until ctx is canceled or one of them fails.
func (d *daemon) run(ctx context.Context, ipcListener net.Listener) error {
	var bridgeListener, healthListener net.Listener
	if d.bridge != nil {
		lis, err := net.Listen("tcp", d.cfg.Bridge.Listen)
		if err != nil {
			return fmt.Errorf("listen bridge %s: %w", d.cfg.Bridge.Listen, err)
		}
		bridgeListener = lis
	}
	if d.health != nil {
		lis, err := net.Listen("tcp", d.cfg.Health.Listen)
		if err != nil {
			if bridgeListener != nil {
				_ = bridgeListener.Close()
			}
			return fmt.Errorf("listen health %s: %w", d.cfg.Health.Listen, err)
		}
		healthListener = lis
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.loop.Run(ctx) })
	g.Go(func() error { return ipc.Serve(ctx, ipcListener, d) })

	if bridgeListener != nil {
		mux := http.NewServeMux()
		mux.Handle(d.cfg.Bridge.Path, d.bridge)
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		d.logger.Info("bridge listening",
			"addr", bridgeListener.Addr().String(),
			"path", d.cfg.Bridge.Path,
			"page", "http://"+bridgeListener.Addr().String()+d.cfg.Bridge.Path,
		)

		g.Go(func() error {
			if err := srv.Serve(bridgeListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve bridge: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if d.console != nil {
		g.Go(func() error { return d.console.Run(ctx) })
	}
	if healthListener != nil {
		g.Go(func() error { return d.health.Serve(ctx, healthListener) })
	}

	err := g.Wait()
	d.controller.Close()
	d.notifier.Close()
	return err
}

// Handle runs one control request on the loop.
func (d *daemon) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	var resp ipc.Response
	if err := d.loop.Call(ctx, func() {
		resp = d.controller.Handle(ctx, req)
	}); err != nil {
		return ipc.Response{OK: false, Error: err.Error()}
	}
	return resp
}

func (d *daemon) pageConnected() {
	if d.health != nil {
		d.health.SetServing(health.ServiceBridge, true)
	}
	d.loop.Post(func() {
		d.bridge.RenderForm("", d.doc.Nodes())
		if f, ok := d.doc.Focused(); ok {
			d.bridge.MarkActiveField(f.ID, true)
		}
		d.controller.EngineAvailable()
	})
}

func (d *daemon) pageDisconnected() {
	if d.health != nil {
		d.health.SetServing(health.ServiceBridge, false)
	}
}

func (d *daemon) pageFocus(field string) {
	d.loop.Post(func() {
		if field == "" {
			d.doc.Blur()
			return
		}
		if !d.doc.Focus(field) {
			d.logger.Debug("page focused unknown field", "field", field)
		}
	})
}

func (d *daemon) pageInput(field, value string) {
	d.loop.Post(func() {
		if d.doc.SetValue(field, value) {
			d.doc.InputChanged(field)
		}
	})
}

func (d *daemon) pageControl(req ipc.Request) ipc.Response {
	ctx, cancel := context.WithTimeout(context.Background(), pageCallTimeout)
	defer cancel()
	return d.Handle(ctx, req)
}

// loadToken reads the builder token from the environment after merging envFile.
func loadToken(envFile string, logger *slog.Logger) string {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("load env file failed", "path", envFile, "error", err.Error())
		}
	}
	return strings.TrimSpace(os.Getenv(tokenEnv))
}

func expandHome(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(raw, "~"))
}
