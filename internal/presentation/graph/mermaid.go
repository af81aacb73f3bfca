package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/marquee/pkg/domain"
)

// StepsOverlay marks the playback position on a steps flowchart.
type StepsOverlay struct {
	ActiveStep int
}

// StepsFlowchart produces a Mermaid flowchart of a slide's compiled steps.
// Each step is a subgraph whose anchor leads its chained animations:
// - Anchor on-click: ([Stadium])
// - Anchor on-key: {{Hexagon}} labelled with the key
// - Chained with-previous: dotted edge from the anchor
// - Chained after-previous: solid edge from the previous entry
// Consumed steps are styled when overlay is provided.
func StepsFlowchart(slideID string, steps []domain.AnimationStep, overlay *StepsOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	slide := sanitizeMermaidID(slideID)
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", slide, escapeLabel(slideID)))

	prevStep := slide
	for i, step := range steps {
		stepID := fmt.Sprintf("%s_step%d", slide, i+1)
		sb.WriteString(fmt.Sprintf("    subgraph %s[\"step %d\"]\n", stepID, i+1))

		ids := make([]string, len(step.Animations))
		for j, a := range step.Animations {
			ids[j] = fmt.Sprintf("%s_%d", stepID, j)
			label := fmt.Sprintf("%s <br/> %s %dms", escapeLabel(string(a.Target)), escapeLabel(a.Effect), a.Duration)
			if d := step.ResolvedDelay(j); d > 0 {
				label += fmt.Sprintf(" +%dms", d)
			}

			opener, closer := "[", "]"
			if j == 0 {
				opener, closer = "([", "])"
				if step.Trigger == domain.TriggerOnKey {
					opener, closer = "{{", "}}"
					label = fmt.Sprintf("key %s <br/> %s", escapeLabel(step.Key), label)
				}
			}
			sb.WriteString(fmt.Sprintf("        %s%s\"%s\"%s\n", ids[j], opener, label, closer))
		}

		for j := 1; j < len(step.Animations); j++ {
			if step.Animations[j].Trigger == domain.TriggerWithPrevious {
				sb.WriteString(fmt.Sprintf("        %s -.-> %s\n", ids[0], ids[j]))
				continue
			}
			sb.WriteString(fmt.Sprintf("        %s --> %s\n", ids[j-1], ids[j]))
		}
		sb.WriteString("    end\n")

		arrow := "-->"
		if step.Trigger == domain.TriggerOnKey {
			arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(step.Key))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", prevStep, arrow, stepID))
		prevStep = stepID
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef played fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef next fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for i := range steps {
			stepID := fmt.Sprintf("%s_step%d", slide, i+1)
			switch {
			case i < overlay.ActiveStep:
				sb.WriteString(fmt.Sprintf("    class %s played;\n", stepID))
			case i == overlay.ActiveStep:
				sb.WriteString(fmt.Sprintf("    class %s next;\n", stepID))
			}
		}
	}

	return sb.String()
}

// PreviewGantt produces a Mermaid gantt chart of a preview schedule.
// Flash times are drawn as milestones.
func PreviewGantt(title string, sched domain.PreviewSchedule) string {
	var sb strings.Builder
	sb.WriteString("gantt\n")
	sb.WriteString(fmt.Sprintf("    title %s\n", escapeLabel(title)))
	sb.WriteString("    dateFormat x\n")
	sb.WriteString("    axisFormat %S.%Ls\n")

	if len(sched.FlashTimes) > 0 {
		sb.WriteString("    section clicks\n")
		for i, t := range sched.FlashTimes {
			sb.WriteString(fmt.Sprintf("    click %d :milestone, flash%d, %d, 0ms\n", i+1, i, t))
		}
	}

	sb.WriteString("    section animations\n")
	for i, e := range sched.Entries {
		task := fmt.Sprintf("%s %s", e.Animation.Target, e.Animation.Effect)
		// Mermaid rejects zero-length tasks.
		dur := max(e.Animation.Duration, 1)
		sb.WriteString(fmt.Sprintf("    %s :a%d, %d, %dms\n", escapeLabel(task), i, e.Delay, dur))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, ":", "#58;")
	return s
}
