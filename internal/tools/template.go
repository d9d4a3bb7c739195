package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/vinayprograms/planner/internal/planning"
)

// ItineraryTemplate renders the itinerary document section: a heading, the
// fenced itinerary payload, one placeholder per day, the fenced checklist and
// a notes footer. Durations are clamped to [1, 14].
func ItineraryTemplate(ctx context.Context, builder *planning.Builder, destination string, durationDays int, travelStyle string) string {
	days := planning.ClampDays(durationDays)
	itinerary := builder.Itinerary(ctx, destination, days, travelStyle)

	var b strings.Builder
	fmt.Fprintf(&b, "## 🗓️ %s Itinerary (%d Days)\n\n", planning.TitleCase(destination), days)
	fmt.Fprintf(&b, "*Travel Style: %s*\n\n", itinerary.Data.TravelStyle.Title())
	b.WriteString(itinerary.Tag + "\n\n")

	for day := 1; day <= days; day++ {
		fmt.Fprintf(&b, "### Day %d\nSummary: See structured itinerary above.\n\n---\n\n", day)
	}

	b.WriteString(planning.Checklist(destination, "Trip").Tag)
	b.WriteString("\n\n## 💡 Tips & Notes\n*Add your own insights and discoveries here...*\n")
	return b.String()
}
