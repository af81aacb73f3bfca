package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/marquee/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "marquee",
	Short: "Marquee plays animated slide decks in the terminal and the browser",
	Long: `Marquee compiles slide animations into steps, plays them back with a
presenter and an audience window kept in sync, and previews slide timing for authors.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to marquee.yaml (default ./marquee.yaml when present)")
	rootCmd.PersistentFlags().StringP("deck", "d", "", "Deck file (.yaml/.json) or directory of Markdown slides")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("topic", "", "Presentation channel topic")
	rootCmd.PersistentFlags().String("transport", "", "Channel transport: memory or redis")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for the redis transport")
}

// bootstrap builds the command context from the persistent flags.
// A positional argument is accepted as the deck when --deck is not set.
func bootstrap(cmd *cobra.Command, args []string) (*cli.App, error) {
	flags := cmd.Flags()
	opts := cli.Options{}
	opts.ConfigPath, _ = flags.GetString("config")
	opts.DeckPath, _ = flags.GetString("deck")
	opts.LogLevel, _ = flags.GetString("log-level")
	opts.Topic, _ = flags.GetString("topic")
	opts.Transport, _ = flags.GetString("transport")
	opts.RedisAddr, _ = flags.GetString("redis")
	if opts.DeckPath == "" && len(args) > 0 {
		opts.DeckPath = args[0]
	}
	return cli.Bootstrap(commandContext(cmd), opts)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
