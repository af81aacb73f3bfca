package main

import (
	"os/signal"
	"syscall"

	"github.com/aretw0/marquee/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [deck]",
	Short: "Serve the deck and the presentation channel over HTTP",
	Long: `Starts the HTTP bridge: deck, steps and previews as JSON, the presentation channel
as Server-Sent Events for browser audience windows, and Prometheus metrics. With --present
a presenter session is started that can be driven through POST /control.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd, args)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			app.Config.HTTP.Addr = addr
		}
		opts := cli.ServeOptions{Out: cmd.OutOrStdout()}
		opts.Present, _ = cmd.Flags().GetBool("present")
		opts.QR, _ = cmd.Flags().GetBool("qr")
		slide, _ := cmd.Flags().GetInt("slide")
		opts.Slide = slide - 1

		ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return cli.Serve(ctx, app, opts)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp [deck]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the deck to AI agents as MCP tools (list_slides, compile_steps, preview_slide).
With --present the playback tools (advance, go_back, press_key, go_to_slide, playback_state)
drive a presenter session on the configured topic.

Supported Transports:
- stdio (default): Uses Standard Input/Output.
- sse: set --port to serve Server-Sent Events over HTTP.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd, args)
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetInt("port")
		present, _ := cmd.Flags().GetBool("present")

		ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return cli.ServeMCP(ctx, app, port, present)
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List live presentations announced in Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd, nil)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		f, err := cli.ParseFormat(format)
		if err != nil {
			return err
		}
		return cli.Sessions(commandContext(cmd), cmd.OutOrStdout(), app, f)
	},
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().Bool("present", false, "Start a presenter session controllable over HTTP")
	serveCmd.Flags().Int("slide", 1, "Slide the presenter session starts on (1-based)")
	serveCmd.Flags().Bool("qr", false, "Print the audience URL as a QR code")

	mcpCmd.Flags().Int("port", 0, "Serve MCP over SSE on this port instead of stdio")
	mcpCmd.Flags().Bool("present", false, "Start a presenter session for the playback tools")

	sessionsCmd.Flags().String("format", "text", "Output format: text or json")

	rootCmd.AddCommand(serveCmd, mcpCmd, sessionsCmd)
}
