package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	httpAdapter "github.com/aretw0/marquee/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/marquee/pkg/adapters/mcp"
	"github.com/aretw0/marquee/pkg/channel"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/observability"
	"github.com/aretw0/marquee/pkg/runner"
	"github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures the serve command.
type ServeOptions struct {
	// Listener overrides the configured address.
	Listener net.Listener
	// Present starts a driver session that browsers and MCP clients can control.
	Present bool
	Slide   int
	// QR prints the audience URL as a terminal QR code.
	QR  bool
	Out io.Writer
}

// Serve exposes the deck and the presentation channel over HTTP until ctx is done.
func Serve(ctx context.Context, app *App, opts ServeOptions) error {
	if err := app.RequireDeck(); err != nil {
		return err
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	infra, err := app.Connect(ctx)
	if err != nil {
		return err
	}
	defer infra.Close()

	metrics := observability.NewMetrics()
	cfg := app.Config
	httpOpts := []httpAdapter.Option{
		httpAdapter.WithTopic(cfg.Channel.Topic),
		httpAdapter.WithMetrics(metrics.Handler()),
		httpAdapter.WithLogger(app.Logger),
	}

	var session *runner.Session
	if opts.Present {
		session, err = startDriver(ctx, app, infra, metrics, opts.Slide)
		if err != nil {
			return err
		}
		defer session.Exit(context.WithoutCancel(ctx))
		httpOpts = append(httpOpts, httpAdapter.WithController(session))
	}

	ln := opts.Listener
	if ln == nil {
		ln, err = net.Listen("tcp", cfg.HTTP.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.HTTP.Addr, err)
		}
	}

	srv := &http.Server{
		Handler:           httpAdapter.NewHandler(app.Engine.Deck(), infra.Transport, httpOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	url := audienceURL(cfg.HTTP.PublicURL, ln.Addr())
	fmt.Fprintf(out, "Serving %q on %s\n", app.Engine.Name, url)
	if opts.QR {
		if err := printQR(out, url); err != nil {
			app.Logger.Warn("qr code not printed", "err", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("http server listening", "addr", ln.Addr().String(), "topic", cfg.Channel.Topic)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	})
	if session != nil {
		g.Go(func() error {
			select {
			case <-session.Done():
				app.Logger.Info("presentation ended, still serving the deck")
			case <-gctx.Done():
			}
			return nil
		})
	}

	err = g.Wait()
	app.Logger.Info("http server stopped")
	return err
}

// startDriver begins a driver session on the configured topic for remote control.
func startDriver(ctx context.Context, app *App, infra *Infra, metrics *observability.Metrics, slide int) (*runner.Session, error) {
	cfg := app.Config.Channel
	peerOpts := []channel.Option{channel.WithTopic(cfg.Topic), channel.WithLogger(app.Logger)}
	if metrics != nil {
		peerOpts = append(peerOpts, channel.WithObserver(metrics.ObserveMessage))
	}
	peer := channel.NewPeer(infra.Transport, peerOpts...)

	hooks := observability.PresenceHooks(infra.Presence, domain.Presence{
		Topic:      cfg.Topic,
		Title:      app.Engine.Name,
		SlideCount: app.Engine.Deck().SlideCount(),
	}, app.Logger)
	if metrics != nil {
		hooks = hooks.Merge(metrics.Hooks())
	}

	opts := []runner.SessionOption{
		runner.WithPeer(peer),
		runner.WithLiveReload(true),
		runner.WithSessionHooks(hooks),
	}
	if infra.Locker != nil {
		opts = append(opts, runner.WithLease(infra.Locker, cfg.LeaseTTL))
	}

	session := app.Engine.NewSession(opts...)
	if err := session.Start(ctx, slide); err != nil {
		_ = peer.Close()
		return nil, handleRunError(err)
	}
	go func() {
		<-session.Done()
		_ = peer.Close()
	}()
	return session, nil
}

// audienceURL prefers the configured public URL; otherwise it derives one from addr.
func audienceURL(public string, addr net.Addr) string {
	if public != "" {
		return public
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String() + "/"
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func printQR(w io.Writer, url string) error {
	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, strings.TrimRight(qr.ToSmallString(false), "\n")+"\n")
	return err
}

// ServeMCP exposes the deck to MCP clients over stdio, or SSE when port > 0.
// With present set, a driver session is started and the playback tools are enabled.
func ServeMCP(ctx context.Context, app *App, port int, present bool) error {
	if err := app.RequireDeck(); err != nil {
		return err
	}

	opts := []mcpAdapter.Option{mcpAdapter.WithLogger(app.Logger)}
	if present {
		infra, err := app.Connect(ctx)
		if err != nil {
			return err
		}
		defer infra.Close()

		session, err := startDriver(ctx, app, infra, nil, 0)
		if err != nil {
			return err
		}
		defer session.Exit(context.WithoutCancel(ctx))
		opts = append(opts, mcpAdapter.WithController(session))
	}

	srv := mcpAdapter.NewServer(app.Engine.Deck(), opts...)
	if port > 0 {
		return srv.ServeSSE(ctx, port)
	}
	return srv.ServeStdio()
}
