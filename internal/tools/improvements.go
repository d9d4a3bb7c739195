package tools

import (
	"strings"
	"unicode/utf8"
)

const minDetailedLength = 500

var encouragement = []string{
	"✨ **Great work!** Your document is well-structured.",
	"💡 **Consider adding personal notes** - Space for thoughts and experiences during the trip.",
	"🤝 **Collaboration notes** - Areas where team members can add their input.",
}

var focusExtras = map[string][]string{
	"details": {
		"🔍 **Add specific details** - Include addresses, opening hours, and contact information.",
		"📱 **Add useful apps/websites** - List helpful resources for your destination.",
	},
	"practicality": {
		"✅ **Create action items** - Add checkboxes for tasks that need to be completed.",
		"📞 **Emergency contacts** - Include important phone numbers and embassy info.",
	},
}

// keywordChecks flag a missing topic when none of its keywords appear.
var keywordChecks = []struct {
	keywords   []string
	suggestion string
}{
	{[]string{"itinerary", "day"}, "🗓️ **Add an itinerary** - Consider creating a day-by-day schedule for your trip."},
	{[]string{"budget", "cost"}, "💰 **Include budget planning** - Add estimated costs and budget considerations."},
	{[]string{"accommodation", "hotel"}, "🏨 **Add accommodation details** - Include where you plan to stay."},
	{[]string{"transport", "flight"}, "✈️ **Add transportation info** - Include flight details and local transport options."},
}

// Improvements reviews content with fixed heuristics and returns a markdown
// list of suggestions, or encouragement when nothing is flagged.
func Improvements(content, focusArea string) string {
	var suggestions []string

	if utf8.RuneCountInString(content) < minDetailedLength {
		suggestions = append(suggestions, "📝 **Add more detail** - Your document could benefit from more specific information and planning details.")
	}

	lower := strings.ToLower(content)
	for _, check := range keywordChecks {
		found := false
		for _, kw := range check.keywords {
			if strings.Contains(lower, kw) {
				found = true
				break
			}
		}
		if !found {
			suggestions = append(suggestions, check.suggestion)
		}
	}

	if strings.Count(content, "#") < 3 {
		suggestions = append(suggestions, "🏗️ **Improve structure** - Use more headings to organize your content better.")
	}

	suggestions = append(suggestions, focusExtras[focusArea]...)

	if len(suggestions) == 0 {
		suggestions = encouragement
	}

	return "## 💡 Suggested Improvements\n\n" + strings.Join(suggestions, "\n") +
		"\n\n*What would you like me to help you add or improve?*"
}
