package messages

import (
	"fmt"
	"math"
	"strings"

	"github.com/korjavin/fridgeflow/pkg/ledger"
	"github.com/korjavin/fridgeflow/pkg/models"
	"github.com/korjavin/fridgeflow/pkg/stats"
	"github.com/korjavin/fridgeflow/pkg/timeline"
)

// FormatSeconds renders seconds as m:ss. Fractions are rounded up so a countdown
// never shows 0:00 while time is left.
func FormatSeconds(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	s := int(math.Ceil(sec))
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func stepLine(step models.Step) string {
	return fmt.Sprintf("%s — start @ %s for %s", step.Label, FormatSeconds(step.StartOffsetSec), FormatSeconds(step.DurationSec))
}

// RenderPlan renders a plan with its steps and substitutions
func RenderPlan(plan *models.Plan) string {
	var b strings.Builder
	dish := plan.Dish
	if dish == "" {
		dish = "Plan"
	}
	fmt.Fprintf(&b, "🍳 %s", dish)
	if plan.Provenance == models.ProvenanceFallback {
		b.WriteString(" (fallback plan)")
	}
	b.WriteString("\n\n")

	for i, step := range plan.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, stepLine(step))
	}

	if len(plan.Substitutions) > 0 {
		b.WriteString("\n💡 Substitutions:\n")
		for _, sub := range plan.Substitutions {
			b.WriteString("• " + sub + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusSuffix(st timeline.StepStatus) string {
	switch st.Status {
	case timeline.StatusPending:
		return fmt.Sprintf("⏳ starts in %s", FormatSeconds(st.RemainingSec))
	case timeline.StatusActive:
		return fmt.Sprintf("🔥 time left %s", FormatSeconds(st.RemainingSec))
	default:
		return "✅ done"
	}
}

// RenderStatus renders one line per step with its live countdown
func RenderStatus(plan *models.Plan, statuses []timeline.StepStatus, elapsed float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏱ %s — %s elapsed\n\n", plan.Dish, FormatSeconds(elapsed))
	for _, st := range statuses {
		fmt.Fprintf(&b, "%d. %s (%s)\n", st.Index+1, stepLine(plan.Steps[st.Index]), statusSuffix(st))
	}
	if timeline.Summarize(statuses).Finished() {
		b.WriteString("\n🍽 Everything is done. Enjoy your meal!")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderShift describes a running-behind adjustment
func RenderShift(plan *models.Plan, shift ledger.Shift, delay, extension float64) string {
	if !shift.Changed() {
		return "👌 Nothing left to shift, the plan is unchanged."
	}
	var parts []string
	for _, i := range shift.Extended {
		parts = append(parts, fmt.Sprintf("“%s” gets %s more", plan.Steps[i].Label, FormatSeconds(extension)))
	}
	if n := len(shift.Delayed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d upcoming step(s) pushed back %s", n, FormatSeconds(delay)))
	}
	return "🐢 No rush! " + strings.Join(parts, ", ") + "."
}

// RenderStepStarted announces a step that just became active
func RenderStepStarted(plan *models.Plan, st timeline.StepStatus) string {
	return fmt.Sprintf("▶️ Now: %s (%s)", plan.Steps[st.Index].Label, FormatSeconds(st.RemainingSec))
}

// RenderHistory lists stored plans, newest first
func RenderHistory(records []*models.PlanRecord) string {
	if len(records) == 0 {
		return "📭 No plans yet. Try /plan eggs, spinach, tortillas"
	}
	var b strings.Builder
	b.WriteString("📜 Recent plans:\n")
	for _, r := range records {
		fmt.Fprintf(&b, "• %s — %s, %d steps (%s)\n", r.CreatedAt.Format("Jan 2 15:04"), r.Plan.Dish, len(r.Plan.Steps), r.Plan.Provenance)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderStats renders a chat's cooking statistics
func RenderStats(st *stats.Statistics) string {
	if st.TotalPlans() == 0 && st.CooksStarted == 0 {
		return "📊 Nothing cooked yet. Start with /plan eggs, spinach, tortillas"
	}
	var b strings.Builder
	b.WriteString("📊 Your kitchen so far:\n")
	fmt.Fprintf(&b, "• Plans: %d (%d heuristic, %d AI, %d fallback)\n", st.TotalPlans(),
		st.PlansGenerated[models.ProvenanceHeuristic], st.PlansGenerated[models.ProvenanceLLM], st.PlansGenerated[models.ProvenanceFallback])
	fmt.Fprintf(&b, "• Cooks: %d started, %d finished\n", st.CooksStarted, st.CooksFinished)
	if st.BehindPresses > 0 {
		fmt.Fprintf(&b, "• Ran behind %d time(s), %s of delay in total\n", st.BehindPresses, FormatSeconds(st.TotalDelaySec))
	}
	if top := st.TopDishes(3); len(top) > 0 {
		favourites := make([]string, len(top))
		for i, d := range top {
			favourites[i] = fmt.Sprintf("%s ×%d", d.Dish, d.Count)
		}
		b.WriteString("• Favourites: " + strings.Join(favourites, ", ") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
