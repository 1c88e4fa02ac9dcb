// Package indicator mirrors controller state onto desktop notifications,
// the log, and short audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/dictaform/internal/config"
	"github.com/rbright/dictaform/internal/hypr"
)

const (
	listeningTimeoutMS = 300000
	caseModeTimeoutMS  = 1200
	dispatchTimeout    = 400 * time.Millisecond
	queueSize          = 32
)

const (
	listeningText  = "Listening…"
	caseModePrefix = "Case: "
	// errorPrefix marks controller statuses that raise a notification.
	errorPrefix    = "Voice error"
)

// Notifier is a controller indicator surface backed by hyprctl, busctl, or
// the logger. Calls never block: notifications run on a single worker
// goroutine in submission order and are dropped when the queue is full.
type Notifier struct {
	cfg     config.IndicatorConfig
	backend string
	logger  *slog.Logger

	queueMu sync.Mutex
	closed  bool
	queue   chan func(context.Context) error
	done    chan struct{}

	mu                    sync.Mutex
	listening             bool
	desktopNotificationID uint32
	soundMu               sync.Mutex

	notifyFn  func(ctx context.Context, icon int, timeoutMS int, color string, text string) error
	dismissFn func(ctx context.Context) error
	cueFn     func(kind cueKind) error
}

// New creates a notifier from config and starts its worker.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n := &Notifier{
		cfg:     cfg,
		backend: strings.ToLower(strings.TrimSpace(cfg.Backend)),
		logger:  logger,
		queue:   make(chan func(context.Context) error, queueSize),
		done:    make(chan struct{}),
		cueFn:   emitCue,
	}
	switch n.backend {
	case "desktop":
		n.notifyFn = n.notifyDesktop
		n.dismissFn = n.dismissDesktop
	case "hypr":
		n.notifyFn = hypr.Notify
		n.dismissFn = hypr.DismissNotify
	}
	go n.work()
	return n
}

// SetStatus surfaces voice errors; other status lines go to the log backend only.
func (n *Notifier) SetStatus(text string) {
	n.logStatus("status", text)
	if !strings.HasPrefix(text, errorPrefix) {
		return
	}
	n.playCue(cueError)
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	n.enqueue(func(ctx context.Context) error {
		return n.notifyFn(ctx, hypr.IconError, timeout, hypr.ColorError, text)
	})
}

// SetLiveTranscript logs interim and final transcripts at debug level.
func (n *Notifier) SetLiveTranscript(text string) {
	if n.backend == "log" && text != "" {
		n.logger.Debug("live transcript", "text", text)
	}
}

// MarkActiveField logs focus changes at debug level.
func (n *Notifier) MarkActiveField(id string, active bool) {
	if n.backend == "log" {
		n.logger.Debug("active field", "field", id, "active", active)
	}
}

// SetListening plays the start or stop cue and shows or dismisses the
// listening notification.
func (n *Notifier) SetListening(on bool) {
	n.mu.Lock()
	changed := n.listening != on
	n.listening = on
	n.mu.Unlock()
	if !changed {
		return
	}

	n.logStatus("listening", boolLabel(on))
	if on {
		n.playCue(cueStart)
		n.enqueue(func(ctx context.Context) error {
			return n.notifyFn(ctx, hypr.IconInfo, listeningTimeoutMS, hypr.ColorActive, listeningText)
		})
		return
	}
	n.playCue(cueStop)
	n.enqueue(func(ctx context.Context) error {
		return n.dismissFn(ctx)
	})
}

// SetCaseMode ticks and briefly shows the new case mode.
func (n *Notifier) SetCaseMode(label string) {
	n.logStatus("case mode", label)
	n.playCue(cueCaseMode)
	text := caseModePrefix + label
	n.enqueue(func(ctx context.Context) error {
		return n.notifyFn(ctx, hypr.IconHint, caseModeTimeoutMS, hypr.ColorInfo, text)
	})
}

// Close stops the worker after draining queued notifications.
func (n *Notifier) Close() {
	n.queueMu.Lock()
	if n.closed {
		n.queueMu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.queueMu.Unlock()
	<-n.done
}

func (n *Notifier) enqueue(fn func(context.Context) error) {
	if n.notifyFn == nil {
		return
	}
	n.queueMu.Lock()
	defer n.queueMu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.queue <- fn:
	default:
		n.logger.Debug("indicator queue full; dropping notification")
	}
}

func (n *Notifier) work() {
	defer close(n.done)
	for fn := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		if err := fn(ctx); err != nil {
			n.logger.Debug("indicator dispatch failed", "backend", n.backend, "error", err.Error())
		}
		cancel()
	}
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (n *Notifier) notifyDesktop(ctx context.Context, _ int, timeoutMS int, _ string, text string) error {
	n.mu.Lock()
	replaceID := n.desktopNotificationID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.cfg.DesktopAppName)
	if appName == "" {
		appName = "dictaform"
	}

	id, err := desktopNotification{app: appName, replaces: replaceID, summary: text, timeoutMS: timeoutMS}.send(ctx)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (n *Notifier) dismissDesktop(ctx context.Context) error {
	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return closeDesktopNotification(ctx, id)
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable || n.backend == "none" {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := n.cueFn(kind); err != nil {
			n.logger.Debug("indicator audio cue failed", "error", err.Error())
		}
	}()
}

func (n *Notifier) logStatus(what string, text string) {
	if n.backend != "log" {
		return
	}
	n.logger.Info("indicator "+what, "text", text)
}

func boolLabel(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
