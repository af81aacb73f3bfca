package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/aretw0/marquee"
	"github.com/aretw0/marquee/internal/config"
	"github.com/aretw0/marquee/internal/presentation/graph"
	"github.com/aretw0/marquee/internal/preview"
	"github.com/aretw0/marquee/pkg/domain"
)

// Format selects how reports are printed.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatMermaid Format = "mermaid"
)

// ErrNoPresenceRegistry is returned by Sessions for the in-process transport.
var ErrNoPresenceRegistry = errors.New("listing presentations requires the redis transport")

// slideRange returns the slides a report covers: one index, or all of them when slide < 0.
func slideRange(eng *marquee.Engine, slide int) []int {
	if slide >= 0 {
		return []int{slide}
	}
	out := make([]int, eng.Deck().SlideCount())
	for i := range out {
		out[i] = i
	}
	return out
}

// PrintSteps writes the compiled steps of slide, or of every slide when slide < 0.
func PrintSteps(w io.Writer, eng *marquee.Engine, slide int, format Format) error {
	type slideSteps struct {
		Slide int                    `json:"slide"`
		ID    string                 `json:"id"`
		Steps []domain.AnimationStep `json:"steps"`
	}

	var report []slideSteps
	var errs []error
	for _, i := range slideRange(eng, slide) {
		s, err := eng.Deck().Slide(i)
		if err != nil {
			return err
		}
		steps, err := eng.Steps(i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		report = append(report, slideSteps{Slide: i, ID: s.ID, Steps: steps})
	}

	switch format {
	case FormatJSON:
		if err := writeJSON(w, report); err != nil {
			return err
		}
	case FormatMermaid:
		for _, r := range report {
			fmt.Fprintln(w, graph.StepsFlowchart(r.ID, r.Steps, nil))
		}
	default:
		for _, r := range report {
			fmt.Fprintf(w, "slide %d (%s): %d step(s)\n", r.Slide+1, r.ID, len(r.Steps))
			for j, step := range r.Steps {
				trigger := string(step.Trigger)
				if step.Trigger == domain.TriggerOnKey {
					trigger = fmt.Sprintf("%s %q", step.Trigger, step.Key)
				}
				fmt.Fprintf(w, "  %d. %-14s ends at %dms\n", j+1, trigger, step.End())
				for k, a := range step.Animations {
					fmt.Fprintf(w, "       +%-5d %s %s (%dms)\n", step.ResolvedDelay(k), a.Target, a.Effect, a.Duration)
				}
			}
		}
	}
	return domain.Join(errs...)
}

// PrintPreview writes the preview schedule of slide.
func PrintPreview(w io.Writer, eng *marquee.Engine, slide int, mode marquee.PreviewMode, format Format) error {
	sched, err := eng.Preview(slide, mode)
	if err != nil {
		return err
	}
	s, err := eng.Deck().Slide(slide)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, sched)
	case FormatMermaid:
		fmt.Fprintln(w, graph.PreviewGantt(fmt.Sprintf("%s (%s)", s.ID, mode), sched))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tTARGET\tEFFECT")
	for _, e := range sched.Entries {
		fmt.Fprintf(tw, "%dms\t%dms\t%s\t%s\n", e.Delay, e.End(), e.Animation.Target, e.Animation.Effect)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "clicks at %v, ends at %dms\n", sched.FlashTimes, sched.End)
	return nil
}

// PlayPreview prints the schedule live, entry by entry, and returns once the player clears it.
func PlayPreview(ctx context.Context, w io.Writer, sched domain.PreviewSchedule, padding time.Duration) error {
	var mu sync.Mutex
	say := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	cleared := make(chan struct{})
	player := preview.NewPlayer(preview.WithPadding(padding), preview.WithOnClear(func() { close(cleared) }))
	defer player.Close()

	var timers []*time.Timer
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()
	for i, at := range sched.FlashTimes {
		timers = append(timers, time.AfterFunc(at.Duration(), func() { say("%6dms  click %d\n", at, i+1) }))
	}
	for _, e := range sched.Entries {
		timers = append(timers, time.AfterFunc(e.Delay.Duration(), func() {
			say("%6dms  %s %s\n", e.Delay, e.Animation.Target, e.Animation.Effect)
		}))
	}
	player.Play(sched)

	select {
	case <-cleared:
		say("%6dms  cleared\n", sched.End)
		return nil
	case <-ctx.Done():
		player.Stop()
		return ctx.Err()
	}
}

// Validate prints every authoring error of the deck and returns them aggregated.
func Validate(w io.Writer, eng *marquee.Engine) error {
	err := eng.Validate()
	if err == nil {
		fmt.Fprintf(w, "%s: %d slide(s), no errors\n", eng.Name, eng.Deck().SlideCount())
		return nil
	}

	var lines []string
	var agg *domain.AggregateError
	if errors.As(err, &agg) {
		for _, e := range agg.Errors {
			lines = append(lines, describe(eng, e))
		}
	} else {
		lines = append(lines, describe(eng, err))
	}
	fmt.Fprintf(w, "%s: %d error(s)\n", eng.Name, len(lines))
	for _, l := range lines {
		fmt.Fprintf(w, "  - %s\n", l)
	}
	return err
}

func describe(eng *marquee.Engine, err error) string {
	var ce *domain.CompileError
	if !errors.As(err, &ce) || ce.SlideIndex < 0 {
		return err.Error()
	}
	id := ""
	if s, serr := eng.Deck().Slide(ce.SlideIndex); serr == nil {
		id = s.ID
	}
	return fmt.Sprintf("slide %d (%s), animation %d on %q: %v", ce.SlideIndex+1, id, ce.AnimationIndex+1, ce.Target, ce.Err)
}

// Sessions lists the live presentations announced in Redis.
func Sessions(ctx context.Context, w io.Writer, app *App, format Format) error {
	if app.Config.Channel.Transport != config.TransportRedis {
		return ErrNoPresenceRegistry
	}
	infra, err := app.Connect(ctx)
	if err != nil {
		return err
	}
	defer infra.Close()

	topics, err := infra.Presence.List(ctx)
	if err != nil {
		return err
	}
	var live []domain.Presence
	for _, t := range topics {
		p, err := infra.Presence.Lookup(ctx, t)
		if errors.Is(err, domain.ErrPresenceNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		live = append(live, p)
	}

	if format == FormatJSON {
		return writeJSON(w, live)
	}
	if len(live) == 0 {
		fmt.Fprintln(w, "no live presentations")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOPIC\tTITLE\tSLIDE\tSTEP\tUPDATED")
	for _, p := range live {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d\t%s\n", p.Topic, p.Title, p.State.SlideIndex+1, p.SlideCount, p.State.ActiveStep, p.UpdatedAt.Format(time.TimeOnly))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatMermaid:
		return f, nil
	}
	return FormatText, fmt.Errorf("unknown format %q: want text, json or mermaid", s)
}
