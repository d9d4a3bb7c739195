package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinayprograms/agentkit/llm"

	"github.com/vinayprograms/planner/internal/planning"
)

func call(name string, args map[string]interface{}) llm.ToolCallResponse {
	return llm.ToolCallResponse{ID: "call-1", Name: name, Args: args}
}

func TestParse_Variants(t *testing.T) {
	inv, err := Parse(call(NameCreateItinerary, map[string]interface{}{
		"destination":   "Tokyo",
		"duration_days": "5",
	}))
	require.NoError(t, err)
	assert.Equal(t, CreateItinerary{Destination: "Tokyo", DurationDays: 5, TravelStyle: "balanced"}, inv)

	inv, err = Parse(call(NameCreateItinerary, map[string]interface{}{
		"destination":   "Bali",
		"duration_days": 3.0,
		"travel_style":  "relaxed",
	}))
	require.NoError(t, err)
	assert.Equal(t, CreateItinerary{Destination: "Bali", DurationDays: 3, TravelStyle: "relaxed"}, inv)

	inv, err = Parse(call(NameResearchDestination, map[string]interface{}{"destination": "Paris"}))
	require.NoError(t, err)
	assert.Equal(t, ResearchDestination{Destination: "Paris", Interests: "general"}, inv)

	inv, err = Parse(call(NameSuggestImprovements, map[string]interface{}{"current_content": "# x"}))
	require.NoError(t, err)
	assert.Equal(t, SuggestImprovements{CurrentContent: "# x", FocusArea: "general"}, inv)

	inv, err = Parse(call(NameAddPlanningSection, map[string]interface{}{"section_type": "budget", "topic": "Rome"}))
	require.NoError(t, err)
	assert.Equal(t, NameAddPlanningSection, inv.ToolName())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(call("updateDocument", map[string]interface{}{"content": "x"}))
	assert.True(t, errors.Is(err, ErrNotBackendTool))

	_, err = Parse(call(NameCreateItinerary, map[string]interface{}{"destination": "Tokyo"}))
	assert.True(t, errors.Is(err, ErrInvalidArguments))

	_, err = Parse(call(NameCreateItinerary, map[string]interface{}{"destination": "Tokyo", "duration_days": "five"}))
	assert.True(t, errors.Is(err, ErrInvalidArguments))

	_, err = Parse(call(NameAddPlanningSection, nil))
	assert.True(t, errors.Is(err, ErrInvalidArguments))
}

func TestIsBackend(t *testing.T) {
	for _, name := range Names {
		assert.True(t, IsBackend(name))
	}
	assert.False(t, IsBackend("updateDocument"))
	assert.False(t, IsBackend(""))
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 4)
	for i, def := range defs {
		assert.Equal(t, Names[i], def.Name)
		assert.Equal(t, "object", def.Parameters["type"])
		assert.NotEmpty(t, def.Description)
	}
	assert.Equal(t, []string{"destination", "duration_days"}, defs[1].Parameters["required"])
}

func TestResearch_KnowledgeBaseMatch(t *testing.T) {
	out := Research("Tokyo, Japan", "general")
	assert.True(t, strings.HasPrefix(out, "## 📍 Tokyo, Japan Research\n\n"))
	assert.Contains(t, out, "- Senso-ji Temple")
	assert.Contains(t, out, "**🚌 Transportation:** Excellent public transportation")
	assert.NotContains(t, out, "Focus")

	// key contains input
	assert.Contains(t, Research("par", ""), "Eiffel Tower")
}

func TestResearch_Fallback(t *testing.T) {
	out := Research("Atlantis", "food")
	assert.Contains(t, out, "## 📍 Atlantis Research")
	assert.Contains(t, out, "- Popular attractions and landmarks in Atlantis")
	assert.Contains(t, out, "- Local cuisine and specialties of Atlantis")
	assert.Contains(t, out, "**🎯 Focus:**")
	assert.Contains(t, out, "food")
}

func TestItineraryTemplate_Structure(t *testing.T) {
	out := ItineraryTemplate(context.Background(), planning.NewBuilder(nil), "paris", 3, "cultural")

	assert.True(t, strings.HasPrefix(out, "## 🗓️ Paris Itinerary (3 Days)\n\n*Travel Style: Cultural*\n\n```json itinerary\n"))
	assert.Equal(t, 3, strings.Count(out, "Summary: See structured itinerary above."))
	assert.Contains(t, out, "### Day 3\n")
	assert.True(t, strings.HasSuffix(out, "## 💡 Tips & Notes\n*Add your own insights and discoveries here...*\n"))

	body, ok := planning.ExtractFenced(out, planning.TagItinerary)
	require.True(t, ok)
	var payload planning.ItineraryPayload
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Len(t, payload.Days, 3)
	assert.Equal(t, "EUR", payload.Currency.Code)

	checklists := planning.ExtractAllFenced(out, planning.TagChecklist)
	assert.Len(t, checklists, 1)
}

func TestItineraryTemplate_ClampIsIdempotent(t *testing.T) {
	builder := planning.NewBuilder(nil)
	ctx := context.Background()
	assert.Equal(t,
		ItineraryTemplate(ctx, builder, "Lisbon", 14, "food"),
		ItineraryTemplate(ctx, builder, "Lisbon", 20, "food"))
	assert.Contains(t, ItineraryTemplate(ctx, builder, "Lisbon", 20, "food"), "(14 Days)")
}

func TestImprovements(t *testing.T) {
	out := Improvements("short", "general")
	assert.True(t, strings.HasPrefix(out, "## 💡 Suggested Improvements\n\n"))
	for _, want := range []string{"Add more detail", "Add an itinerary", "Include budget planning",
		"Add accommodation details", "Add transportation info", "Improve structure"} {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasSuffix(out, "*What would you like me to help you add or improve?*"))

	complete := "# Trip\n## Day 1\n## Budget and cost\nHotel booked. Flight booked.\n" + strings.Repeat("x", 500)
	out = Improvements(complete, "general")
	assert.Contains(t, out, "Great work!")
	assert.NotContains(t, out, "Add more detail")

	out = Improvements(complete, "details")
	assert.Contains(t, out, "Add specific details")
	assert.NotContains(t, out, "Great work!")

	out = Improvements(complete, "practicality")
	assert.Contains(t, out, "Emergency contacts")
}

func TestSection(t *testing.T) {
	assert.True(t, strings.HasPrefix(Section("budget", ""), "## 💰 Trip Budget\n"))
	assert.True(t, strings.HasPrefix(Section("budget", "Rome"), "## 💰 Rome Budget\n"))
	assert.True(t, strings.HasPrefix(Section("packing", ""), "## 🎒 Trip Packing List"))
	assert.True(t, strings.HasPrefix(Section("research", ""), "## 📚 Destination Research Notes"))
	assert.True(t, strings.HasPrefix(Section("contacts", ""), "## 📞 Emergency Contacts"))
	assert.Contains(t, Section("research", "Peru"), "**Language:** \n")

	assert.Equal(t, "# Visa Notes\n\n*Add your content here...*", Section("visa", "Visa Notes"))
	assert.Equal(t, "# Day Trips\n\n*Add your content here...*", Section("day trips", ""))

	out := Section("checklist", "bali")
	assert.True(t, strings.HasPrefix(out, "## ✅ Bali Trip Checklist"))
	body, ok := planning.ExtractFenced(out, planning.TagChecklist)
	require.True(t, ok)
	var payload planning.ChecklistPayload
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, "bali", payload.Destination)
}

type slowSource struct{}

func (slowSource) Activities(ctx context.Context, _ planning.ActivityQuery) planning.ActivityResult {
	<-ctx.Done()
	return planning.Unavailable("timeout")
}

func TestToolset_TimeoutDegradesToCatalog(t *testing.T) {
	ts := NewToolset(planning.NewBuilder(slowSource{}), 20*time.Millisecond)
	out, err := ts.Run(context.Background(), call(NameCreateItinerary, map[string]interface{}{
		"destination": "Oslo", "duration_days": 1, "travel_style": "adventure",
	}))
	require.NoError(t, err)
	assert.Contains(t, out, "Scenic Hiking Trail")
}

func TestToolset_Execute(t *testing.T) {
	ts := NewToolset(nil, 0)
	out, err := ts.Execute(context.Background(), ResearchDestination{Destination: "Bali"})
	require.NoError(t, err)
	assert.Contains(t, out, "Uluwatu Temple")

	_, err = ts.Execute(context.Background(), nil)
	assert.Error(t, err)

	_, err = ts.Run(context.Background(), call("addSection", nil))
	assert.True(t, errors.Is(err, ErrNotBackendTool))
}
