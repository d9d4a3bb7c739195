package planning

import (
	"strings"
)

// ChecklistItem is a single checkbox line.
type ChecklistItem struct {
	Label   string `json:"label" yaml:"label"`
	Checked bool   `json:"checked" yaml:"checked"`
}

// ChecklistSection groups items under a heading.
type ChecklistSection struct {
	Title string          `json:"title" yaml:"title"`
	Items []ChecklistItem `json:"items" yaml:"items"`
}

// ChecklistPayload is the payload carried in a "json checklist" block.
type ChecklistPayload struct {
	Type        string             `json:"type" yaml:"type"`
	Version     int                `json:"version" yaml:"version"`
	Title       string             `json:"title" yaml:"title"`
	Destination string             `json:"destination" yaml:"destination"`
	Context     string             `json:"context" yaml:"context"`
	Sections    []ChecklistSection `json:"sections" yaml:"sections"`
}

// ChecklistResult bundles the payload with its two renderings.
type ChecklistResult struct {
	Data     ChecklistPayload
	Markdown string
	Tag      string
}

var checklistTemplate = []struct {
	title  string
	labels []string
}{
	{"Before You Go", []string{
		"Book flights",
		"Reserve accommodation",
		"Check passport validity (>6 months)",
		"Apply for visa if needed",
		"Get travel insurance",
		"Notify bank of travel plans",
		"Check vaccination requirements",
	}},
	{"Pack & Prepare", []string{
		"Pack according to weather",
		"Bring necessary adapters",
		"Download offline maps",
		"Learn basic local phrases",
		"Research local customs",
		"Exchange currency or get travel card",
	}},
	{"During Trip", []string{
		"Check in for flights",
		"Confirm accommodations",
		"Keep important documents safe",
		"Stay hydrated and healthy",
	}},
}

// DefaultChecklistContext is used when the caller gives no context.
const DefaultChecklistContext = "trip"

// Checklist builds the fixed three-section checklist for destination.
// It performs no I/O and always returns the same sections.
func Checklist(destination, context string) ChecklistResult {
	if strings.TrimSpace(context) == "" {
		context = DefaultChecklistContext
	}

	title := TitleCase(context) + " Checklist"
	if destination != "" {
		title = TitleCase(destination) + " " + title
	}

	sections := make([]ChecklistSection, 0, len(checklistTemplate))
	for _, tmpl := range checklistTemplate {
		items := make([]ChecklistItem, 0, len(tmpl.labels))
		for _, label := range tmpl.labels {
			items = append(items, ChecklistItem{Label: label})
		}
		sections = append(sections, ChecklistSection{Title: tmpl.title, Items: items})
	}

	data := ChecklistPayload{
		Type:        "checklist",
		Version:     1,
		Title:       title,
		Destination: destination,
		Context:     context,
		Sections:    sections,
	}

	return ChecklistResult{
		Data:     data,
		Markdown: data.Markdown(),
		Tag:      Fence(TagChecklist, data),
	}
}

// Markdown renders the checklist as headings with checkbox lines, for
// renderers that do not parse the fenced JSON.
func (c ChecklistPayload) Markdown() string {
	var b strings.Builder
	b.WriteString("## ✅ " + c.Title)
	for _, section := range c.Sections {
		b.WriteString("\n\n### " + section.Title)
		for _, item := range section.Items {
			box := "[ ]"
			if item.Checked {
				box = "[x]"
			}
			b.WriteString("\n- " + box + " " + item.Label)
		}
	}
	return b.String()
}
