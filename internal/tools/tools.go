// Package tools implements the backend content tools the model may call.
//
// The set is closed: every call the model makes is parsed into one of the
// Invocation variants below before it runs, so an unknown name or a malformed
// argument map is rejected up front instead of at execution time.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/samber/lo"
	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"

	"github.com/vinayprograms/planner/internal/planning"
)

// Backend tool names.
const (
	NameResearchDestination = "research_destination"
	NameCreateItinerary     = "create_itinerary_template"
	NameSuggestImprovements = "suggest_improvements"
	NameAddPlanningSection  = "add_planning_section"
)

// Names lists the backend tools in binding order.
var Names = []string{
	NameResearchDestination,
	NameCreateItinerary,
	NameSuggestImprovements,
	NameAddPlanningSection,
}

var (
	// ErrNotBackendTool is returned by Parse for names outside the closed set.
	ErrNotBackendTool = errors.New("not a backend tool")
	// ErrInvalidArguments is returned by Parse when arguments are missing or mistyped.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// IsBackend reports whether name is one of the backend tools.
func IsBackend(name string) bool {
	return lo.Contains(Names, name)
}

// Invocation is a parsed backend tool call.
type Invocation interface {
	ToolName() string
}

// ResearchDestination looks a destination up in the knowledge base.
type ResearchDestination struct {
	Destination string `mapstructure:"destination"`
	Interests   string `mapstructure:"interests"`
}

// CreateItinerary renders an itinerary template with structured payloads.
type CreateItinerary struct {
	Destination  string `mapstructure:"destination"`
	DurationDays int    `mapstructure:"duration_days"`
	TravelStyle  string `mapstructure:"travel_style"`
}

// SuggestImprovements reviews document content.
type SuggestImprovements struct {
	CurrentContent string `mapstructure:"current_content"`
	FocusArea      string `mapstructure:"focus_area"`
}

// AddPlanningSection renders a fixed section template.
type AddPlanningSection struct {
	SectionType string `mapstructure:"section_type"`
	Topic       string `mapstructure:"topic"`
}

func (ResearchDestination) ToolName() string { return NameResearchDestination }
func (CreateItinerary) ToolName() string     { return NameCreateItinerary }
func (SuggestImprovements) ToolName() string { return NameSuggestImprovements }
func (AddPlanningSection) ToolName() string  { return NameAddPlanningSection }

// Parse converts a model tool call into its typed invocation. Arguments are
// decoded with weak typing so "5" is accepted for an integer. Optional
// arguments take their documented defaults.
func Parse(call llm.ToolCallResponse) (Invocation, error) {
	switch call.Name {
	case NameResearchDestination:
		inv := ResearchDestination{Interests: "general"}
		if err := decodeArgs(call.Args, &inv, "destination"); err != nil {
			return nil, err
		}
		return inv, nil
	case NameCreateItinerary:
		inv := CreateItinerary{TravelStyle: string(planning.StyleBalanced)}
		if err := decodeArgs(call.Args, &inv, "destination", "duration_days"); err != nil {
			return nil, err
		}
		return inv, nil
	case NameSuggestImprovements:
		inv := SuggestImprovements{FocusArea: "general"}
		if err := decodeArgs(call.Args, &inv, "current_content"); err != nil {
			return nil, err
		}
		return inv, nil
	case NameAddPlanningSection:
		inv := AddPlanningSection{}
		if err := decodeArgs(call.Args, &inv, "section_type"); err != nil {
			return nil, err
		}
		return inv, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrNotBackendTool, call.Name)
	}
}

func decodeArgs(args map[string]interface{}, out any, required ...string) error {
	for _, key := range required {
		if v, ok := args[key]; !ok || v == nil {
			return fmt.Errorf("%w: missing %q", ErrInvalidArguments, key)
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

// Toolset executes parsed invocations.
type Toolset struct {
	builder *planning.Builder
	timeout time.Duration
	logger  *logging.Logger
}

// NewToolset creates a toolset. builder may be nil, in which case itineraries
// always use the static catalog. A zero timeout disables the per-call deadline.
func NewToolset(builder *planning.Builder, timeout time.Duration) *Toolset {
	if builder == nil {
		builder = planning.NewBuilder(nil)
	}
	return &Toolset{
		builder: builder,
		timeout: timeout,
		logger:  logging.New().WithComponent("tools"),
	}
}

// Execute runs inv and returns the markdown tool result.
func (t *Toolset) Execute(ctx context.Context, inv Invocation) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	switch v := inv.(type) {
	case ResearchDestination:
		return Research(v.Destination, v.Interests), nil
	case CreateItinerary:
		return ItineraryTemplate(ctx, t.builder, v.Destination, v.DurationDays, v.TravelStyle), nil
	case SuggestImprovements:
		return Improvements(v.CurrentContent, v.FocusArea), nil
	case AddPlanningSection:
		return Section(v.SectionType, v.Topic), nil
	case nil:
		return "", fmt.Errorf("%w: nil invocation", ErrInvalidArguments)
	default:
		return "", fmt.Errorf("%w: %q", ErrNotBackendTool, inv.ToolName())
	}
}

// Run parses and executes call in one step. Parse failures are returned
// unwrapped so callers can turn them into tool error results.
func (t *Toolset) Run(ctx context.Context, call llm.ToolCallResponse) (string, error) {
	inv, err := Parse(call)
	if err != nil {
		t.logger.Warn("tool call rejected", map[string]interface{}{
			"tool":  call.Name,
			"error": err.Error(),
		})
		return "", err
	}
	start := time.Now()
	out, err := t.Execute(ctx, inv)
	t.logger.Debug("tool executed", map[string]interface{}{
		"tool":        inv.ToolName(),
		"duration_ms": time.Since(start).Milliseconds(),
		"result_len":  len(out),
	})
	return out, err
}

// Definitions returns the backend tool schemas in binding order.
func (t *Toolset) Definitions() []llm.ToolDef {
	return Definitions()
}

// Definitions returns the backend tool schemas in binding order.
func Definitions() []llm.ToolDef {
	styles := lo.Map(planning.TravelStyles, func(s planning.TravelStyle, _ int) string { return string(s) })
	return []llm.ToolDef{
		{
			Name:        NameResearchDestination,
			Description: "Research a travel destination with key information for planning.",
			Parameters: schema(map[string]interface{}{
				"destination": prop("string", "The city, country, or region to research"),
				"interests":   prop("string", "Specific interests like 'food', 'culture', 'adventure', 'relaxation', etc."),
			}, "destination"),
		},
		{
			Name:        NameCreateItinerary,
			Description: "Create a structured itinerary template for a destination.",
			Parameters: schema(map[string]interface{}{
				"destination":   prop("string", "The destination for the itinerary"),
				"duration_days": prop("integer", "Number of days for the trip"),
				"travel_style": map[string]interface{}{
					"type":        "string",
					"description": "'" + strings.Join(styles, "', '") + "'",
					"enum":        styles,
				},
			}, "destination", "duration_days"),
		},
		{
			Name:        NameSuggestImprovements,
			Description: "Analyze current document content and suggest improvements.",
			Parameters: schema(map[string]interface{}{
				"current_content": prop("string", "The current markdown content of the document"),
				"focus_area":      prop("string", "What to focus on - 'structure', 'details', 'practicality', or 'general'"),
			}, "current_content"),
		},
		{
			Name:        NameAddPlanningSection,
			Description: "Add a new structured section to the planning document.",
			Parameters: schema(map[string]interface{}{
				"section_type": prop("string", "Type of section - 'checklist', 'budget', 'packing', 'research', 'contacts'"),
				"topic":        prop("string", "Specific topic for the section (optional)"),
			}, "section_type"),
		},
	}
}

func schema(properties map[string]interface{}, required ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}
