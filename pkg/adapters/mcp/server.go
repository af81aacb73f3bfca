// Package mcp exposes the deck and, optionally, a running presentation as
// Model Context Protocol tools, so assistants can inspect steps and drive slides.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/marquee"
	"github.com/aretw0/marquee/internal/compiler"
	"github.com/aretw0/marquee/internal/preview"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/ports"
	"github.com/aretw0/marquee/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// DeckURI is the resource holding the whole deck as JSON.
const DeckURI = "marquee://deck"

// ErrNoPresentation is returned by control tools when no session is attached.
var ErrNoPresentation = errors.New("no presentation is running")

// Controller is the part of a running session the control tools drive.
type Controller interface {
	Execute(ctx context.Context, cmd runner.Command) bool
	Frame() (domain.Frame, error)
}

// Server wraps a deck and exposes it as an MCP Server.
type Server struct {
	deck      ports.DeckSource
	control   Controller
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithController registers the playback tools against c.
func WithController(c Controller) Option {
	return func(s *Server) {
		s.control = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(deck ports.DeckSource, opts ...Option) *Server {
	s := &Server{
		deck:      deck,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("marquee-mcp", strings.TrimSpace(marquee.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SlideInfo summarizes a slide for list_slides.
type SlideInfo struct {
	Index      int    `json:"index"`
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Animations int    `json:"animations"`
	Steps      int    `json:"steps"`
	Error      string `json:"error,omitempty" jsonschema_description:"Compile error, if the animation list is misconfigured"`
}

// SlideList is the result of list_slides.
type SlideList struct {
	Slides []SlideInfo `json:"slides"`
}

// SlideArgs selects a slide.
type SlideArgs struct {
	Slide int `json:"slide"`
}

// PreviewArgs selects a slide and preview mode.
type PreviewArgs struct {
	Slide int    `json:"slide"`
	Mode  string `json:"mode"`
}

// KeyArgs carries a key press.
type KeyArgs struct {
	Key string `json:"key"`
}

// StepsResult is the result of compile_steps.
type StepsResult struct {
	Slide int                    `json:"slide"`
	Steps []domain.AnimationStep `json:"steps"`
}

// PlaybackResult reports the position after a control tool.
type PlaybackResult struct {
	Mode       domain.Mode `json:"mode"`
	SlideIndex int         `json:"slide_index"`
	ActiveStep int         `json:"active_step"`
	Steps      int         `json:"steps"`
	SlideCount int         `json:"slide_count"`
	SlideID    string      `json:"slide_id"`
	Moved      bool        `json:"moved" jsonschema_description:"Whether the command changed the position"`
	NextKey    string      `json:"next_key,omitempty" jsonschema_description:"Key that advances the next step, if it is an on-key step"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_slides",
		mcp.WithDescription("List the slides of the deck with their step counts."),
		mcp.WithOutputSchema[SlideList](),
	), mcp.NewStructuredToolHandler(s.handleListSlides))

	s.mcpServer.AddTool(mcp.NewTool("compile_steps",
		mcp.WithDescription("Compile the animation list of a slide into the discrete steps a presenter advances through."),
		mcp.WithNumber("slide", mcp.Required(), mcp.Description("Zero-based slide index")),
		mcp.WithOutputSchema[StepsResult](),
	), mcp.NewStructuredToolHandler(s.handleCompileSteps))

	s.mcpServer.AddTool(mcp.NewTool("preview_slide",
		mcp.WithDescription("Simulate the playback timeline of a slide as the editor preview does."),
		mcp.WithNumber("slide", mcp.Required(), mcp.Description("Zero-based slide index")),
		mcp.WithString("mode", mcp.Enum("all", "one"), mcp.Description("all: every step back to back (default); one: each animation in sequence")),
		mcp.WithOutputSchema[domain.PreviewSchedule](),
	), mcp.NewStructuredToolHandler(s.handlePreviewSlide))

	if s.control == nil {
		return
	}

	s.mcpServer.AddTool(mcp.NewTool("playback_state",
		mcp.WithDescription("Report the current position of the running presentation."),
		mcp.WithOutputSchema[PlaybackResult](),
	), mcp.NewStructuredToolHandler(func(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (PlaybackResult, error) {
		return s.playback()
	}))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		mcp.WithDescription("Advance one step, or to the next slide when the slide is complete."),
		mcp.WithOutputSchema[PlaybackResult](),
	), mcp.NewStructuredToolHandler(func(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (PlaybackResult, error) {
		return s.run(ctx, runner.Command{Kind: runner.CommandAdvance})
	}))

	s.mcpServer.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Step back, or to the previous slide when at its first step."),
		mcp.WithOutputSchema[PlaybackResult](),
	), mcp.NewStructuredToolHandler(func(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (PlaybackResult, error) {
		return s.run(ctx, runner.Command{Kind: runner.CommandBack})
	}))

	s.mcpServer.AddTool(mcp.NewTool("press_key",
		mcp.WithDescription("Press a key. Only advances when the next step is an on-key step bound to it."),
		mcp.WithString("key", mcp.Required(), mcp.Description("A single character")),
		mcp.WithOutputSchema[PlaybackResult](),
	), mcp.NewStructuredToolHandler(func(ctx context.Context, _ mcp.CallToolRequest, args KeyArgs) (PlaybackResult, error) {
		return s.run(ctx, runner.Command{Kind: runner.CommandKey, Key: args.Key})
	}))

	s.mcpServer.AddTool(mcp.NewTool("go_to_slide",
		mcp.WithDescription("Jump to the first step of a slide."),
		mcp.WithNumber("slide", mcp.Required(), mcp.Description("Zero-based slide index")),
		mcp.WithOutputSchema[PlaybackResult](),
	), mcp.NewStructuredToolHandler(func(ctx context.Context, _ mcp.CallToolRequest, args SlideArgs) (PlaybackResult, error) {
		return s.run(ctx, runner.Command{Kind: runner.CommandGoTo, Slide: args.Slide})
	}))
}

func (s *Server) handleListSlides(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (SlideList, error) {
	list := SlideList{Slides: make([]SlideInfo, 0, s.deck.SlideCount())}
	for i := range s.deck.SlideCount() {
		slide, err := s.deck.Slide(i)
		if err != nil {
			return SlideList{}, err
		}
		info := SlideInfo{Index: i, ID: slide.ID, Title: slide.Title, Animations: len(slide.Animations)}
		steps, err := compiler.CompileSlide(i, slide.Animations)
		if err != nil {
			info.Error = err.Error()
		}
		info.Steps = len(steps)
		list.Slides = append(list.Slides, info)
	}
	return list, nil
}

func (s *Server) handleCompileSteps(ctx context.Context, _ mcp.CallToolRequest, args SlideArgs) (StepsResult, error) {
	slide, err := s.deck.Slide(args.Slide)
	if err != nil {
		return StepsResult{}, err
	}
	steps, err := compiler.CompileSlide(args.Slide, slide.Animations)
	if err != nil {
		return StepsResult{}, err
	}
	if steps == nil {
		steps = []domain.AnimationStep{}
	}
	return StepsResult{Slide: args.Slide, Steps: steps}, nil
}

func (s *Server) handlePreviewSlide(ctx context.Context, _ mcp.CallToolRequest, args PreviewArgs) (domain.PreviewSchedule, error) {
	slide, err := s.deck.Slide(args.Slide)
	if err != nil {
		return domain.PreviewSchedule{}, err
	}
	switch args.Mode {
	case "", "all":
		return preview.PreviewSlide(args.Slide, slide.Animations)
	case "one":
		return preview.PreviewOne(slide.Animations), nil
	}
	return domain.PreviewSchedule{}, fmt.Errorf("unknown preview mode %q", args.Mode)
}

func (s *Server) run(ctx context.Context, cmd runner.Command) (PlaybackResult, error) {
	if s.control == nil {
		return PlaybackResult{}, ErrNoPresentation
	}
	before, err := s.control.Frame()
	if err != nil {
		return PlaybackResult{}, err
	}
	if before.Mode != domain.ModePresenting {
		return PlaybackResult{}, ErrNoPresentation
	}
	s.control.Execute(ctx, cmd)
	res, err := s.playback()
	if err != nil {
		return PlaybackResult{}, err
	}
	res.Moved = res.SlideIndex != before.State.SlideIndex || res.ActiveStep != before.State.ActiveStep
	s.logger.Debug("MCP control", "cmd", cmd.Kind, "moved", res.Moved, "slide", res.SlideIndex, "step", res.ActiveStep)
	return res, nil
}

func (s *Server) playback() (PlaybackResult, error) {
	if s.control == nil {
		return PlaybackResult{}, ErrNoPresentation
	}
	f, err := s.control.Frame()
	if err != nil {
		return PlaybackResult{}, err
	}
	res := PlaybackResult{
		Mode:       f.Mode,
		SlideIndex: f.State.SlideIndex,
		ActiveStep: f.State.ActiveStep,
		Steps:      len(f.Steps),
		SlideCount: f.SlideCount,
		SlideID:    f.Slide.ID,
	}
	if next, ok := f.NextStep(); ok && next.Trigger == domain.TriggerOnKey {
		res.NextKey = next.Key
	}
	return res, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DeckURI, "Current Deck",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := s.deckJSON()
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DeckURI,
				MIMEType: "application/json",
				Text:     text,
			},
		}, nil
	})
}

func (s *Server) deckJSON() (string, error) {
	slides := make([]domain.Slide, 0, s.deck.SlideCount())
	for i := range s.deck.SlideCount() {
		slide, err := s.deck.Slide(i)
		if err != nil {
			return "", fmt.Errorf("failed to read deck: %w", err)
		}
		slides = append(slides, slide)
	}
	data, err := json.Marshal(domain.Deck{Slides: slides})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
