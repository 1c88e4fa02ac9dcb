// Package bridge connects the daemon to the browser page that owns the
// microphone, the speech synthesizer, and the rendered form. One page is
// served at a time; a new connection replaces the previous one.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rbright/dictaform/internal/ipc"
	"github.com/rbright/dictaform/internal/recognition"
)

var (
	// ErrNoPage means no browser page is connected.
	ErrNoPage = errors.New("no browser page connected")

	errBackpressure = errors.New("bridge outbound backpressure")
	errDisconnected = errors.New("browser page disconnected")
)

// Config tunes the websocket connection.
type Config struct {
	QueueSize    int
	WriteTimeout time.Duration
	PingInterval time.Duration
	ReadTimeout  time.Duration
	MaxMessage   int64
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 20 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * c.PingInterval
	}
	if c.MaxMessage <= 0 {
		c.MaxMessage = 1 << 16
	}
	return c
}

// Handlers receive page-originated events. They are called from the
// connection's reader goroutine.
type Handlers struct {
	Connected    func()
	Disconnected func()
	Focus        func(field string)
	Input        func(field, value string)
	Control      func(ipc.Request) ipc.Response
}

// Server is an http.Handler that upgrades the page connection.
type Server struct {
	cfg      Config
	handlers Handlers
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	page     *page
	sink     recognition.Sink
	engineOn bool
	speakSeq uint64
	speaking map[uint64]func(error)
	ui       map[string]Message
}

// New constructs a bridge server.
func New(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		cfg:      cfg.withDefaults(),
		handlers: handlers,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		speaking: make(map[uint64]func(error)),
		ui:       make(map[string]Message),
	}
}

// Connected reports whether a page is attached.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page != nil
}

// ServeHTTP upgrades the request and serves the page until it disconnects.
// Requests that are not websocket upgrades get the companion page.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		servePage(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("bridge upgrade failed", "error", err.Error())
		return
	}
	conn.SetReadLimit(s.cfg.MaxMessage)

	ctx, cancel := context.WithCancel(r.Context())
	p := &page{
		conn:   conn,
		out:    make(chan []byte, s.cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	s.attach(p)
	s.logger.Info("browser page connected", "remote", r.RemoteAddr)

	go func() {
		if err := p.writeLoop(s.cfg); err != nil {
			s.logger.Debug("bridge writer stopped", "error", err.Error())
		}
		cancel()
		_ = conn.Close()
	}()

	if s.handlers.Connected != nil {
		s.handlers.Connected()
	}

	err = s.readLoop(p)
	cancel()
	if s.detach(p) && s.handlers.Disconnected != nil {
		s.handlers.Disconnected()
	}
	if err != nil && !isClosed(err) {
		s.logger.Warn("browser page read failed", "error", err.Error())
	}
	s.logger.Info("browser page disconnected", "remote", r.RemoteAddr)
}

// attach installs p as the current page and replays retained UI state.
// A replaced page loses its in-flight speech and recognition.
func (s *Server) attach(p *page) {
	s.mu.Lock()
	prev := s.page
	s.page = p
	var pending map[uint64]func(error)
	var sink recognition.Sink
	engineOn := false
	if prev != nil {
		pending, sink, engineOn = s.takeInFlightLocked()
	}

	keys := make([]string, 0, len(s.ui))
	for k := range s.ui {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	replay := make([]Message, 0, len(keys))
	for _, k := range keys {
		replay = append(replay, s.ui[k])
	}
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
		failInFlight(pending, sink, engineOn)
	}
	for _, msg := range replay {
		if err := p.send(msg); err != nil {
			s.logger.Debug("bridge replay dropped", "type", msg.Type, "error", err.Error())
		}
	}
}

// detach clears p if it is still the current page.
func (s *Server) detach(p *page) bool {
	s.mu.Lock()
	if s.page != p {
		s.mu.Unlock()
		return false
	}
	s.page = nil
	pending, sink, engineOn := s.takeInFlightLocked()
	s.mu.Unlock()

	failInFlight(pending, sink, engineOn)
	return true
}

func (s *Server) takeInFlightLocked() (map[uint64]func(error), recognition.Sink, bool) {
	pending := s.speaking
	s.speaking = make(map[uint64]func(error))
	engineOn := s.engineOn
	s.engineOn = false
	return pending, s.sink, engineOn
}

func failInFlight(pending map[uint64]func(error), sink recognition.Sink, engineOn bool) {
	ids := make([]uint64, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		pending[id](errDisconnected)
	}
	if engineOn && sink != nil {
		sink.EngineError("network")
		sink.EngineEnded()
	}
}

func (s *Server) readLoop(p *page) error {
	_ = p.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for {
		messageType, data, err := p.conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = p.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		if messageType != websocket.TextMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("bridge message decode failed", "error", err.Error())
			continue
		}
		s.dispatch(p, msg)
	}
}

func (s *Server) dispatch(p *page, msg Message) {
	s.mu.Lock()
	current := s.page == p
	s.mu.Unlock()
	if !current {
		return
	}

	switch msg.Type {
	case TypeRecognitionStarted:
		if sink := s.currentSink(); sink != nil {
			sink.EngineStarted()
		}
	case TypeRecognitionEnded:
		s.mu.Lock()
		s.engineOn = false
		sink := s.sink
		s.mu.Unlock()
		if sink != nil {
			sink.EngineEnded()
		}
	case TypeRecognitionError:
		if sink := s.currentSink(); sink != nil {
			sink.EngineError(msg.Error)
		}
	case TypeRecognitionResult:
		if sink := s.currentSink(); sink != nil {
			sink.EngineResult(msg.Text, msg.Final)
		}
	case TypeSpeakDone:
		s.speakDone(msg.ID, msg.Error)
	case TypeFocus:
		if s.handlers.Focus != nil {
			s.handlers.Focus(msg.Field)
		}
	case TypeInput:
		if s.handlers.Input != nil {
			s.handlers.Input(msg.Field, msg.Value)
		}
	case TypeControl:
		if s.handlers.Control == nil || msg.Request == nil {
			return
		}
		resp := s.handlers.Control(*msg.Request)
		if err := p.send(Message{Type: TypeControlResult, Response: &resp}); err != nil {
			s.logger.Debug("bridge control reply dropped", "error", err.Error())
		}
	default:
		s.logger.Debug("bridge message ignored", "type", msg.Type)
	}
}

func (s *Server) currentSink() recognition.Sink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink
}

// send delivers msg to the current page.
func (s *Server) send(msg Message) error {
	s.mu.Lock()
	p := s.page
	s.mu.Unlock()
	if p == nil {
		return ErrNoPage
	}
	return p.send(msg)
}

// retain records msg for replay to the next page and sends it to the current one.
func (s *Server) retain(msg Message) {
	s.mu.Lock()
	s.ui[msg.Type] = msg
	p := s.page
	s.mu.Unlock()
	if p == nil {
		return
	}
	if err := p.send(msg); err != nil {
		s.logger.Debug("bridge ui update dropped", "type", msg.Type, "error", err.Error())
	}
}

type page struct {
	conn   *websocket.Conn
	out    chan []byte
	ctx    context.Context
	cancel context.CancelFunc
}

func (p *page) send(msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	select {
	case <-p.ctx.Done():
		return errDisconnected
	default:
	}
	select {
	case p.out <- payload:
		return nil
	default:
		return errBackpressure
	}
}

func (p *page) writeLoop(cfg Config) error {
	ping := time.NewTicker(cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-p.ctx.Done():
			_ = p.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(cfg.WriteTimeout),
			)
			return nil
		case payload := <-p.out:
			_ = p.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return err
			}
		case <-ping.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(cfg.WriteTimeout)); err != nil {
				return err
			}
		}
	}
}

func isClosed(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) || errors.Is(err, net.ErrClosed)
}
