// Package console is a recognition engine fed by typed lines, one final
// transcript per line. It stands in for a microphone in terminals and tests.
package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/rbright/dictaform/internal/recognition"
)

// Engine reads utterances from an input stream.
type Engine struct {
	in     io.Reader
	logger *slog.Logger

	mu     sync.Mutex
	sink   recognition.Sink
	active bool
	closed bool
}

// New constructs an engine over in. Call Run to start reading.
func New(in io.Reader, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{in: in, logger: logger}
}

// Create implements recognition.Provider.
func (e *Engine) Create(_ recognition.EngineConfig, sink recognition.Sink) (recognition.Engine, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, recognition.ErrUnavailable
	}
	e.sink = sink
	return handle{e: e}, nil
}

// Run reads lines until EOF or ctx cancellation. Lines typed while not
// listening are dropped.
func (e *Engine) Run(ctx context.Context) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(e.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			e.deliver(line)
		case err := <-errc:
			e.shutdown()
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			return nil
		}
	}
}

func (e *Engine) deliver(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	e.mu.Lock()
	sink, active := e.sink, e.active
	e.mu.Unlock()
	if !active || sink == nil {
		e.logger.Debug("console input dropped while not listening", "text", line)
		return
	}
	sink.EngineResult(line, true)
}

// shutdown ends an active session once input is exhausted.
func (e *Engine) shutdown() {
	e.mu.Lock()
	e.closed = true
	sink, active := e.sink, e.active
	e.active = false
	e.mu.Unlock()
	if active && sink != nil {
		sink.EngineEnded()
	}
}

type handle struct {
	e *Engine
}

func (h handle) Start() error {
	h.e.mu.Lock()
	if h.e.closed {
		h.e.mu.Unlock()
		return recognition.ErrUnavailable
	}
	h.e.active = true
	sink := h.e.sink
	h.e.mu.Unlock()
	sink.EngineStarted()
	return nil
}

func (h handle) Stop() error {
	h.e.mu.Lock()
	wasActive := h.e.active
	h.e.active = false
	sink := h.e.sink
	h.e.mu.Unlock()
	if wasActive {
		sink.EngineEnded()
	}
	return nil
}
