// Package planning builds the structured checklist and itinerary payloads
// rendered by the front end.
package planning

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TravelStyle selects the activity catalog and note set for an itinerary.
type TravelStyle string

const (
	StyleAdventure TravelStyle = "adventure"
	StyleRelaxed   TravelStyle = "relaxed"
	StyleCultural  TravelStyle = "cultural"
	StyleFood      TravelStyle = "food"
	StyleBalanced  TravelStyle = "balanced"
)

// TravelStyles lists every known style in display order.
var TravelStyles = []TravelStyle{StyleAdventure, StyleRelaxed, StyleCultural, StyleFood, StyleBalanced}

// ParseTravelStyle resolves s case-insensitively. Unknown or empty input
// resolves to StyleBalanced with ok=false.
func ParseTravelStyle(s string) (TravelStyle, bool) {
	candidate := TravelStyle(strings.ToLower(strings.TrimSpace(s)))
	for _, style := range TravelStyles {
		if style == candidate {
			return style, true
		}
	}
	return StyleBalanced, false
}

// Title returns the style name title-cased for headings.
func (s TravelStyle) Title() string {
	return TitleCase(string(s))
}

// Category is the fixed activity classification.
type Category string

const (
	CategoryMuseum      Category = "Museum"
	CategoryArts        Category = "Arts"
	CategoryHistory     Category = "History"
	CategoryFood        Category = "Food"
	CategoryHiking      Category = "Hiking"
	CategoryWaterSports Category = "Water Sports"
	CategoryParks       Category = "Parks"
	CategorySightseeing Category = "Sightseeing"
	CategoryWellness    Category = "Wellness"
	CategoryLeisure     Category = "Leisure"
	CategoryOutdoors    Category = "Outdoors"
	CategoryClass       Category = "Class"
)

// Activity is a single thing to do at the destination.
type Activity struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Category    Category `json:"category" yaml:"category"`
}

// catalog is the static per-style fallback used when no live source answers.
var catalog = map[TravelStyle][]Activity{
	StyleAdventure: {
		{Name: "Scenic Hiking Trail", Description: "Half-day hike with panoramic views.", Category: CategoryHiking},
		{Name: "Kayaking Experience", Description: "Guided paddle through calm waters.", Category: CategoryWaterSports},
		{Name: "Sunset Viewpoint", Description: "Short climb to catch golden hour.", Category: CategoryOutdoors},
	},
	StyleRelaxed: {
		{Name: "Spa & Wellness Session", Description: "45–60 min massage or spa treatment.", Category: CategoryWellness},
		{Name: "Cafe Hopping", Description: "Leisurely cafes with pastries and coffee.", Category: CategoryLeisure},
		{Name: "Park Stroll", Description: "Light walk under trees and gardens.", Category: CategoryParks},
	},
	StyleCultural: {
		{Name: "Heritage Museum Visit", Description: "Explore key exhibits and galleries.", Category: CategoryMuseum},
		{Name: "Historic District Walk", Description: "Streets with architecture and landmarks.", Category: CategoryHistory},
		{Name: "Theater or Live Show", Description: "Local performance for an evening.", Category: CategoryArts},
	},
	StyleFood: {
		{Name: "Market Food Tour", Description: "Taste local bites and specialties.", Category: CategoryFood},
		{Name: "Cooking Class", Description: "Hands-on class making regional dishes.", Category: CategoryClass},
		{Name: "Street Eats Crawl", Description: "Popular snacks across a few blocks.", Category: CategoryFood},
	},
	StyleBalanced: {
		{Name: "City Highlights Walk", Description: "Iconic spots in a compact route.", Category: CategorySightseeing},
		{Name: "Local Lunch Spot", Description: "Casual eatery with regional flavors.", Category: CategoryFood},
		{Name: "Riverside Evening", Description: "Sunset views and light snacks.", Category: CategoryLeisure},
	},
}

var styleNotes = map[TravelStyle][]string{
	StyleAdventure: {
		"Check trail conditions and permits",
		"Pack sufficient water and snacks",
		"Consider sunrise/sunset timing for views",
	},
	StyleRelaxed: {
		"Reserve spa/tea time in advance",
		"Plan for cafe breaks nearby",
		"Leave buffer time between activities",
	},
	StyleCultural: {
		"Verify museum closing days and hours",
		"Buy skip-the-line tickets if available",
		"Learn a few local phrases",
	},
	StyleFood: {
		"Book popular restaurants ahead",
		"List local specialties to try",
		"Check market opening hours",
	},
	StyleBalanced: {
		"Pre-book one key activity",
		"Group nearby sights to minimize transit",
		"Consider a day transit pass",
	},
}

// Catalog returns a copy of the static activities for style.
func Catalog(style TravelStyle) []Activity {
	src, ok := catalog[style]
	if !ok {
		src = catalog[StyleBalanced]
	}
	return append([]Activity(nil), src...)
}

// Notes returns a copy of the day notes for style.
func Notes(style TravelStyle) []string {
	src, ok := styleNotes[style]
	if !ok {
		src = styleNotes[StyleBalanced]
	}
	return append([]string(nil), src...)
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
// A Caser is stateful, so each call gets its own.
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}
