package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/courtside/internal/application/engine"
	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/google/uuid"
)

const defaultBufferSize = 1024

// Snapshotter exposes the engine state for the final report.
type Snapshotter interface {
	Snapshot() engine.Snapshot
}

// Config holds session-level settings.
type Config struct {
	ID         string // generated when empty
	Instrument domain.Instrument
	BufferSize int
}

// Session pumps events from a source into the engine, one at a time.
// Run is the only consumer of the event channel, so the engine never sees
// overlapping callbacks.
type Session struct {
	cfg      Config
	source   ports.EventSource
	handler  engine.Handler
	recorder *Recorder
	fills    ports.FillSource
	observer ports.MarketObserver
	journal  ports.Journal
	reporter ports.Reporter
	now      func() time.Time

	events map[string]int
	nFills int
	games  int
}

// Option configura un Session.
type Option func(*Session)

// WithRecorder attaches the router decorator whose counters go into the report.
func WithRecorder(r *Recorder) Option { return func(s *Session) { s.recorder = r } }

// WithPaperVenue attaches a venue that mirrors the book and produces fills.
func WithPaperVenue(v interface {
	ports.FillSource
	ports.MarketObserver
}) Option {
	return func(s *Session) {
		s.fills = v
		s.observer = v
	}
}

// WithJournal persists fills and game results.
func WithJournal(j ports.Journal) Option { return func(s *Session) { s.journal = j } }

// WithReporter receives the report when Run returns.
func WithReporter(r ports.Reporter) Option { return func(s *Session) { s.reporter = r } }

// NewID returns a fresh session identifier.
func NewID() string { return uuid.New().String() }

// New crea una sesión.
func New(cfg Config, source ports.EventSource, handler engine.Handler, opts ...Option) *Session {
	if cfg.ID == "" {
		cfg.ID = NewID()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	s := &Session{
		cfg:     cfg,
		source:  source,
		handler: handler,
		now:     time.Now,
		events:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.cfg.ID }

// Run consumes the source until it is exhausted, fails or ctx is canceled,
// then hands the report to the reporter. A canceled context is a clean stop.
func (s *Session) Run(ctx context.Context) error {
	if s.journal != nil {
		if err := s.journal.StartSession(ctx, s.cfg.ID, s.cfg.Instrument, s.now().UTC()); err != nil {
			return fmt.Errorf("session.Run: start journal: %w", err)
		}
	}

	events := make(chan domain.Event, s.cfg.BufferSize)
	srcErr := make(chan error, 1)
	go func() {
		defer close(events)
		srcErr <- s.source.Run(ctx, events)
	}()

	slog.Info("session: started", "id", s.cfg.ID, "instrument", s.cfg.Instrument)
	for ev := range events {
		s.handle(ctx, ev)
	}

	err := <-srcErr

	// context.WithoutCancel: el reporte se escribe aunque ctx ya esté cancelado.
	if rerr := s.report(context.WithoutCancel(ctx)); rerr != nil {
		slog.Warn("session: report failed", "err", rerr)
	}
	slog.Info("session: stopped", "id", s.cfg.ID, "events", s.totalEvents())

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("session.Run: source: %w", err)
	}
	return nil
}

// Handle processes a single event to completion. Exposed for callers that
// drive the engine from their own loop.
func (s *Session) Handle(ctx context.Context, ev domain.Event) {
	s.handle(ctx, ev)
}

func (s *Session) handle(ctx context.Context, ev domain.Event) {
	s.events[eventName(ev)]++

	if s.observer != nil {
		s.observer.Observe(ev)
		// los fills que provoca este evento llegan al engine antes de que decida
		s.drainFills(ctx)
	}

	switch e := ev.(type) {
	case domain.AccountUpdate:
		s.recordFill(ctx, e)
	case domain.GameEvent:
		if e.IsEndGame() {
			s.recordGame(ctx, e)
		}
	}

	engine.Dispatch(ctx, s.handler, ev)
	s.drainFills(ctx)
}

// drainFills feeds locally produced fills back as account updates. A fill
// can cancel a resting order but never places one, so this settles.
func (s *Session) drainFills(ctx context.Context) {
	if s.fills == nil {
		return
	}
	for {
		fills := s.fills.DrainFills()
		if len(fills) == 0 {
			return
		}
		for _, f := range fills {
			s.events[eventName(f)]++
			s.recordFill(ctx, f)
			engine.Dispatch(ctx, s.handler, f)
		}
	}
}

func (s *Session) recordFill(ctx context.Context, f domain.AccountUpdate) {
	if f.Instrument != s.cfg.Instrument {
		return
	}
	s.nFills++
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordFill(ctx, s.cfg.ID, f, s.now().UTC()); err != nil {
		slog.Warn("session: journal fill failed", "err", err)
	}
}

func (s *Session) recordGame(ctx context.Context, ev domain.GameEvent) {
	s.games++
	if s.journal == nil {
		return
	}
	g := ports.GameResult{SessionID: s.cfg.ID, HomeScore: ev.HomeScore, AwayScore: ev.AwayScore, EndedAt: s.now().UTC()}
	if err := s.journal.RecordGame(ctx, g); err != nil {
		slog.Warn("session: journal game failed", "err", err)
	}
}

// Report builds the current session report.
func (s *Session) Report(ctx context.Context) ports.SessionReport {
	r := ports.SessionReport{
		SessionID:      s.cfg.ID,
		Instrument:     s.cfg.Instrument,
		Events:         make(map[string]int, len(s.events)),
		Actions:        map[ports.ActionKind]int{},
		Fills:          s.nFills,
		GamesCompleted: s.games,
	}
	for k, v := range s.events {
		r.Events[k] = v
	}
	if s.recorder != nil {
		r.Actions = s.recorder.Actions()
		r.Rejections = s.recorder.Rejections()
	}
	if snap, ok := s.handler.(Snapshotter); ok {
		st := snap.Snapshot()
		r.Position = st.Position
		r.CapitalRemaining = st.Capital
		r.LastFair = st.LastFair
	}
	if s.journal != nil {
		sum, err := s.journal.Summary(ctx, s.cfg.ID)
		if err != nil {
			slog.Warn("session: journal summary failed", "err", err)
		} else {
			r.Fills = sum.Fills
			r.GamesCompleted = sum.Games
		}
	}
	return r
}

func (s *Session) report(ctx context.Context) error {
	if s.reporter == nil {
		return nil
	}
	return s.reporter.Report(ctx, s.Report(ctx))
}

func (s *Session) totalEvents() int {
	n := 0
	for _, v := range s.events {
		n += v
	}
	return n
}

func eventName(ev domain.Event) string {
	switch ev.(type) {
	case domain.TradePrint:
		return "trade"
	case domain.BookDelta:
		return "book_delta"
	case domain.BookSnapshot:
		return "book_snapshot"
	case domain.AccountUpdate:
		return "account"
	case domain.GameEvent:
		return "game"
	}
	return "unknown"
}
