package main

import (
	"fmt"
	"os"

	"github.com/aretw0/marquee"
	"github.com/aretw0/marquee/internal/cli"
	"github.com/spf13/cobra"
)

var stepsCmd = &cobra.Command{
	Use:   "steps [deck]",
	Short: "Show the compiled animation steps",
	Long:  `Compiles the animation list of each slide into the steps a presenter advances through.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd, args)
		if err != nil {
			return err
		}
		if err := app.RequireDeck(); err != nil {
			return err
		}
		format, err := formatFlag(cmd)
		if err != nil {
			return err
		}
		slide, _ := cmd.Flags().GetInt("slide")
		return cli.PrintSteps(cmd.OutOrStdout(), app.Engine, slide-1, format)
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview [deck]",
	Short: "Simulate the timing of a slide",
	Long: `Computes the editor preview of a slide. Mode "all" plays on-enter animations and
then every step as if clicked the moment the previous one finished; mode "one" plays the
animations one after another. With --play the schedule is printed live.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd, args)
		if err != nil {
			return err
		}
		if err := app.RequireDeck(); err != nil {
			return err
		}
		format, err := formatFlag(cmd)
		if err != nil {
			return err
		}
		slide, _ := cmd.Flags().GetInt("slide")
		mode, _ := cmd.Flags().GetString("mode")

		if play, _ := cmd.Flags().GetBool("play"); play {
			sched, err := app.Engine.Preview(slide-1, marquee.PreviewMode(mode))
			if err != nil {
				return err
			}
			return cli.PlayPreview(commandContext(cmd), cmd.OutOrStdout(), sched, app.Config.Preview.Padding)
		}
		return cli.PrintPreview(cmd.OutOrStdout(), app.Engine, slide-1, marquee.PreviewMode(mode), format)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [deck]",
	Short: "Check the deck for authoring errors",
	Long:  `Compiles every slide and reports orphan chains, bad keys, bad timings, duplicate slide IDs and unknown targets.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, err := bootstrap(cmd, args)
		if err == nil {
			err = app.RequireDeck()
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Validation failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.Validate(cmd.OutOrStdout(), app.Engine); err != nil {
			os.Exit(1)
		}
	},
}

func formatFlag(cmd *cobra.Command) (cli.Format, error) {
	s, _ := cmd.Flags().GetString("format")
	if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
		s = string(cli.FormatMermaid)
	}
	return cli.ParseFormat(s)
}

func init() {
	stepsCmd.Flags().Int("slide", 0, "Only this slide (1-based); 0 for every slide")
	previewCmd.Flags().Int("slide", 1, "Slide to preview (1-based)")
	previewCmd.Flags().String("mode", string(marquee.PreviewModeAll), "Preview mode: all or one")
	previewCmd.Flags().Bool("play", false, "Print the schedule live instead of as a table")

	for _, c := range []*cobra.Command{stepsCmd, previewCmd} {
		c.Flags().String("format", "text", "Output format: text, json or mermaid")
		c.Flags().Bool("mermaid", false, "Shorthand for --format mermaid")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(validateCmd)
}
