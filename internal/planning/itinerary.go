package planning

import (
	"context"
	"strings"
)

// Duration bounds for an itinerary.
const (
	MinDays = 1
	MaxDays = 14
)

// ClampDays bounds n to [MinDays, MaxDays].
func ClampDays(n int) int {
	if n < MinDays {
		return MinDays
	}
	if n > MaxDays {
		return MaxDays
	}
	return n
}

// ActivityQuery describes a lookup against a live activity source.
type ActivityQuery struct {
	Destination string
	Style       TravelStyle
	Limit       int
}

// ActivityResult is either a list of activities or an explicit
// unavailable marker carrying the reason.
type ActivityResult struct {
	Activities  []Activity
	Unavailable bool
	Reason      string
}

// Unavailable builds an unavailable result.
func Unavailable(reason string) ActivityResult {
	return ActivityResult{Unavailable: true, Reason: reason}
}

// ActivitySource finds activities for a destination. Implementations
// never fail; problems are reported through ActivityResult.Unavailable.
type ActivitySource interface {
	Activities(ctx context.Context, q ActivityQuery) ActivityResult
}

// TimeOfDay labels the three slots of a day.
var TimeOfDay = [3]string{"Morning", "Afternoon", "Evening"}

// PartActivity is an activity placed in a day slot.
type PartActivity struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Category    Category `json:"category" yaml:"category"`
	Location    string   `json:"location" yaml:"location"`
}

// Part is one time-of-day slot.
type Part struct {
	TimeOfDay string       `json:"timeOfDay" yaml:"timeOfDay"`
	Activity  PartActivity `json:"activity" yaml:"activity"`
	Cost      Money        `json:"cost" yaml:"cost"`
}

// DayPlan is a single day of the itinerary.
type DayPlan struct {
	Day   int      `json:"day" yaml:"day"`
	Parts []Part   `json:"parts" yaml:"parts"`
	Notes []string `json:"notes" yaml:"notes"`
}

// Breakdown itemizes the estimated total.
type Breakdown struct {
	Flights               Money `json:"flights" yaml:"flights"`
	AccommodationPerNight Money `json:"accommodationPerNight" yaml:"accommodationPerNight"`
	Activities            Money `json:"activities" yaml:"activities"`
	LocalTransportPerDay  Money `json:"localTransportPerDay" yaml:"localTransportPerDay"`
	FoodPerDay            Money `json:"foodPerDay" yaml:"foodPerDay"`
}

// Summary carries the trip-level cost estimate.
type Summary struct {
	EstimatedTotalCost Money     `json:"estimatedTotalCost" yaml:"estimatedTotalCost"`
	Breakdown          Breakdown `json:"breakdown" yaml:"breakdown"`
}

// ItineraryPayload is the payload carried in a "json itinerary" block.
type ItineraryPayload struct {
	Type         string           `json:"type" yaml:"type"`
	Version      int              `json:"version" yaml:"version"`
	Destination  string           `json:"destination" yaml:"destination"`
	DurationDays int              `json:"durationDays" yaml:"durationDays"`
	TravelStyle  TravelStyle      `json:"travelStyle" yaml:"travelStyle"`
	Currency     Currency         `json:"currency" yaml:"currency"`
	Days         []DayPlan        `json:"days" yaml:"days"`
	Summary      Summary          `json:"summary" yaml:"summary"`
	Checklist    ChecklistPayload `json:"checklist" yaml:"checklist"`
}

// ItineraryResult bundles the payload with its fenced rendering.
type ItineraryResult struct {
	Data ItineraryPayload
	Tag  string
	// Live reports whether the activity pool came from the source rather
	// than the static catalog.
	Live bool
}

// Builder assembles itineraries from an optional live activity source.
type Builder struct {
	source ActivitySource
}

// NewBuilder returns a builder. A nil source always uses the static catalog.
func NewBuilder(source ActivitySource) *Builder {
	return &Builder{source: source}
}

// Itinerary builds a day-by-day plan. It never fails: an unknown style
// resolves to balanced, an unknown destination prices in USD, and an
// unavailable source falls back to the static catalog.
func (b *Builder) Itinerary(ctx context.Context, destination string, durationDays int, style string) ItineraryResult {
	days := ClampDays(durationDays)
	resolved, _ := ParseTravelStyle(style)

	currency := CurrencyFor(destination)
	conv := NewConverter(currency)

	pool, live := b.pool(ctx, destination, resolved, days)
	notes := Notes(resolved)

	activitiesTotal := 0
	plans := make([]DayPlan, 0, days)
	for i := 0; i < days; i++ {
		picks := pickDay(pool, i)
		parts := make([]Part, 0, len(TimeOfDay))
		for slot, act := range picks {
			cost := conv.FromUSD(BaselineCost(act.Category))
			activitiesTotal += cost.Estimate
			parts = append(parts, Part{
				TimeOfDay: TimeOfDay[slot],
				Activity: PartActivity{
					Name:        act.Name,
					Description: act.Description,
					Category:    act.Category,
					Location:    destination,
				},
				Cost: cost,
			})
		}
		plans = append(plans, DayPlan{
			Day:   i + 1,
			Parts: parts,
			Notes: append([]string(nil), notes...),
		})
	}

	breakdown := Breakdown{
		Flights:               conv.FromUSD(flightsUSD),
		AccommodationPerNight: conv.FromUSD(accommodationNightly),
		Activities:            conv.Amount(activitiesTotal),
		LocalTransportPerDay:  conv.FromUSD(localTransportDaily),
		FoodPerDay:            conv.FromUSD(foodDaily),
	}
	total := breakdown.Flights.Estimate +
		breakdown.AccommodationPerNight.Estimate*days +
		breakdown.Activities.Estimate +
		breakdown.LocalTransportPerDay.Estimate*days +
		breakdown.FoodPerDay.Estimate*days

	data := ItineraryPayload{
		Type:         "itinerary",
		Version:      1,
		Destination:  destination,
		DurationDays: days,
		TravelStyle:  resolved,
		Currency:     currency,
		Days:         plans,
		Summary: Summary{
			EstimatedTotalCost: conv.Amount(total),
			Breakdown:          breakdown,
		},
		Checklist: Checklist(destination, "Trip").Data,
	}

	return ItineraryResult{
		Data: data,
		Tag:  Fence(TagItinerary, data),
		Live: live,
	}
}

func (b *Builder) pool(ctx context.Context, destination string, style TravelStyle, days int) ([]Activity, bool) {
	if b != nil && b.source != nil && strings.TrimSpace(destination) != "" {
		res := b.source.Activities(ctx, ActivityQuery{
			Destination: destination,
			Style:       style,
			Limit:       max(6, days*3),
		})
		if !res.Unavailable && len(res.Activities) > 0 {
			return res.Activities, true
		}
	}
	return Catalog(style), false
}

// pickDay chooses three activities for day index i. Slot j starts at
// (i*3 + j) mod len(pool) and steps forward past names already used that
// day, giving up after one full lap.
func pickDay(pool []Activity, i int) []Activity {
	n := len(pool)
	if n == 0 {
		return nil
	}
	start := (i * len(TimeOfDay)) % n
	used := make(map[string]bool, len(TimeOfDay))
	picks := make([]Activity, 0, len(TimeOfDay))
	for j := range TimeOfDay {
		k := (start + j) % n
		for spins := 0; used[pool[k].Name] && spins < n; spins++ {
			k = (k + 1) % n
		}
		used[pool[k].Name] = true
		picks = append(picks, pool[k])
	}
	return picks
}
