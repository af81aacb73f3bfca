package main

import (
	"github.com/aretw0/marquee"
	"github.com/aretw0/marquee/internal/cli"
	"github.com/aretw0/marquee/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var presentCmd = &cobra.Command{
	Use:   "present [deck]",
	Short: "Present a deck from this terminal",
	Long: `Starts the presenter window. Space, Enter and the right arrow advance; Backspace
and the left arrow go back; single characters trigger on-key steps; q or Esc exits.

When an audience command is configured the audience window is opened on the same
topic. Use the redis transport to reach windows in other processes or machines.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd, args)
		if err != nil {
			return err
		}
		opts, err := presentOptions(cmd)
		if err != nil {
			return err
		}
		if !opts.JSON {
			tui.PrintBanner(cmd.ErrOrStderr(), marquee.Version)
		}
		return cli.Present(commandContext(cmd), app, opts)
	},
}

var followCmd = &cobra.Command{
	Use:   "follow [deck]",
	Short: "Open an audience window that follows a presenter",
	Long: `Joins the presentation channel as the audience window. It follows every move of
the presenter and can drive it back with the same keys.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd, args)
		if err != nil {
			return err
		}
		opts, err := presentOptions(cmd)
		if err != nil {
			return err
		}
		return cli.Follow(commandContext(cmd), app, opts)
	},
}

func presentOptions(cmd *cobra.Command) (cli.PresentOptions, error) {
	var opts cli.PresentOptions
	var err error
	if opts.Slide, err = cmd.Flags().GetInt("slide"); err != nil {
		return opts, err
	}
	opts.Slide--
	opts.JSON, _ = cmd.Flags().GetBool("json")
	if cmd.Flags().Lookup("no-window") != nil {
		opts.NoWindow, _ = cmd.Flags().GetBool("no-window")
	}
	opts.In = cmd.InOrStdin()
	opts.Out = cmd.OutOrStdout()
	return opts, nil
}

func init() {
	for _, c := range []*cobra.Command{presentCmd, followCmd} {
		c.Flags().Int("slide", 1, "Slide to start on (1-based)")
		c.Flags().Bool("json", false, "Read JSON commands from stdin and write frames as JSON lines")
		rootCmd.AddCommand(c)
	}
	presentCmd.Flags().Bool("no-window", false, "Do not open the configured audience window")
}
