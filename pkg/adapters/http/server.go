// Package http exposes a presentation over HTTP for browser windows and tools.
//
// Browser audience windows join the presentation channel through Server-Sent Events
// (GET /channel/events) and talk back with POST /channel/messages. Both endpoints
// take a ?peer= id so a window never hears its own messages.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/marquee"
	"github.com/aretw0/marquee/internal/compiler"
	"github.com/aretw0/marquee/internal/preview"
	"github.com/aretw0/marquee/pkg/channel"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports"
	"github.com/aretw0/marquee/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxMessageSize bounds POST bodies; channel messages are tiny.
const maxMessageSize = 4 << 10

// Controller is the part of a running session the HTTP API can drive.
type Controller interface {
	Execute(ctx context.Context, cmd runner.Command) bool
	Frame() (domain.Frame, error)
}

// Server serves the deck and bridges the presentation channel.
type Server struct {
	Deck      ports.DeckSource
	Transport ports.Transport

	topic   string
	control Controller
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithTopic sets the default channel topic.
func WithTopic(topic string) Option {
	return func(s *Server) {
		s.topic = topic
	}
}

// WithController enables GET /state and POST /control.
func WithController(c Controller) Option {
	return func(s *Server) {
		s.control = c
	}
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a server over deck and transport.
func NewServer(deck ports.DeckSource, transport ports.Transport, opts ...Option) *Server {
	s := &Server{
		Deck:      deck,
		Transport: transport,
		topic:     channel.DefaultTopic,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler for deck and transport.
func NewHandler(deck ports.DeckSource, transport ports.Transport, opts ...Option) http.Handler {
	return NewServer(deck, transport, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/", s.audience)
	r.Get("/health", s.health)
	r.Get("/info", s.info)
	r.Get("/events", s.deckEvents)

	r.Route("/slides", func(r chi.Router) {
		r.Get("/", s.listSlides)
		r.Get("/{index}/steps", s.slideSteps)
		r.Get("/{index}/preview", s.slidePreview)
	})

	r.Route("/channel", func(r chi.Router) {
		r.Get("/events", s.channelEvents)
		r.Post("/messages", s.postMessage)
	})

	if s.control != nil {
		r.Get("/state", s.state)
		r.Post("/control", s.controlCommand)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// health handles GET /health.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// info handles GET /info.
func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":     "marquee-http",
		"version": strings.TrimSpace(marquee.Version),
		"topic":   s.topic,
		"slides":  s.Deck.SlideCount(),
	})
}

// SlideSummary is one entry of GET /slides.
type SlideSummary struct {
	Index      int    `json:"index"`
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Animations int    `json:"animations"`
	Steps      int    `json:"steps"`
	Error      string `json:"error,omitempty"`
}

// listSlides handles GET /slides.
func (s *Server) listSlides(w http.ResponseWriter, r *http.Request) {
	out := make([]SlideSummary, 0, s.Deck.SlideCount())
	for i := range s.Deck.SlideCount() {
		slide, err := s.Deck.Slide(i)
		if err != nil {
			s.fail(w, http.StatusInternalServerError, err)
			return
		}
		sum := SlideSummary{Index: i, ID: slide.ID, Title: slide.Title, Animations: len(slide.Animations)}
		steps, err := compiler.CompileSlide(i, slide.Animations)
		if err != nil {
			sum.Error = err.Error()
		}
		sum.Steps = len(steps)
		out = append(out, sum)
	}
	writeJSON(w, http.StatusOK, out)
}

// slideSteps handles GET /slides/{index}/steps.
func (s *Server) slideSteps(w http.ResponseWriter, r *http.Request) {
	idx, slide, ok := s.slide(w, r)
	if !ok {
		return
	}
	steps, err := compiler.CompileSlide(idx, slide.Animations)
	if err != nil {
		s.fail(w, http.StatusUnprocessableEntity, err)
		return
	}
	if steps == nil {
		steps = []domain.AnimationStep{}
	}
	writeJSON(w, http.StatusOK, steps)
}

// slidePreview handles GET /slides/{index}/preview?mode=all|one.
func (s *Server) slidePreview(w http.ResponseWriter, r *http.Request) {
	idx, slide, ok := s.slide(w, r)
	if !ok {
		return
	}

	var sched domain.PreviewSchedule
	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "all":
		var err error
		sched, err = preview.PreviewSlide(idx, slide.Animations)
		if err != nil {
			s.fail(w, http.StatusUnprocessableEntity, err)
			return
		}
	case "one":
		sched = preview.PreviewOne(slide.Animations)
	default:
		s.fail(w, http.StatusBadRequest, fmt.Errorf("unknown preview mode %q", mode))
		return
	}
	if sched.Entries == nil {
		sched.Entries = []domain.ScheduledAnimation{}
	}
	if sched.FlashTimes == nil {
		sched.FlashTimes = []domain.Millis{}
	}
	writeJSON(w, http.StatusOK, sched)
}

func (s *Server) slide(w http.ResponseWriter, r *http.Request) (int, domain.Slide, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid slide index: %w", err))
		return 0, domain.Slide{}, false
	}
	slide, err := s.Deck.Slide(idx)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrSlideOutOfRange) {
			status = http.StatusNotFound
		}
		s.fail(w, status, err)
		return 0, domain.Slide{}, false
	}
	return idx, slide, true
}

// state handles GET /state.
func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	frame, err := s.control.Frame()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

// controlCommand handles POST /control. The body is a command in the
// same form the JSON input handler accepts.
func (s *Server) controlCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	cmd, err := runner.ParseCommand(string(body))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	s.control.Execute(r.Context(), cmd)

	frame, err := s.control.Frame()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) topicOf(r *http.Request) string {
	if t := r.URL.Query().Get("topic"); t != "" {
		return t
	}
	return s.topic
}

// postMessage handles POST /channel/messages.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var msg domain.ChannelMessage
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMessageSize)).Decode(&msg); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		s.logger.Warn("channel: invalid message", "err", err)
		return
	}

	opts := []channel.Option{channel.WithTopic(s.topicOf(r)), channel.WithLogger(s.logger)}
	if id := r.URL.Query().Get("peer"); id != "" {
		opts = append(opts, channel.WithID(id))
	}
	peer := channel.NewPeer(s.Transport, opts...)
	defer peer.Close()

	if err := peer.Send(r.Context(), msg); err != nil {
		s.fail(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// channelEvents handles GET /channel/events (SSE).
// The first event carries the peer id the window should post with.
func (s *Server) channelEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	id := r.URL.Query().Get("peer")
	if id == "" {
		id = uuid.NewString()
	}
	peer := channel.NewPeer(s.Transport,
		channel.WithTopic(s.topicOf(r)),
		channel.WithID(id),
		channel.WithLogger(s.logger),
	)
	defer peer.Close()

	msgs, err := peer.Subscribe(r.Context())
	if err != nil {
		s.fail(w, http.StatusBadGateway, err)
		return
	}

	setSSEHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: %s\n\n", id)
	flusher.Flush()
	s.logger.Info("SSE: audience connected", "peer", id, "topic", peer.Topic())

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: audience disconnected", "peer", id)
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// deckEvents handles GET /events: a "reload" stream of changed slide ids.
func (s *Server) deckEvents(w http.ResponseWriter, r *http.Request) {
	watchable, ok := s.Deck.(ports.Watchable)
	if !ok {
		s.fail(w, http.StatusNotFound, errors.New("deck does not support live reload"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	events, err := watchable.Watch(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	setSSEHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case id, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: %s\n\n", id)
			flusher.Flush()
		}
	}
}

// audience handles GET /, a minimal follower window.
func (s *Server) audience(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, audienceHTML)
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail attributes a compile error to an animation.
type ErrorDetail struct {
	Slide     int    `json:"slide"`
	Animation int    `json:"animation"`
	Target    string `json:"target"`
	Message   string `json:"message"`
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	for _, ce := range domain.CompileErrors(err) {
		resp.Details = append(resp.Details, ErrorDetail{
			Slide:     ce.SlideIndex,
			Animation: ce.AnimationIndex,
			Target:    string(ce.Target),
			Message:   ce.Err.Error(),
		})
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
