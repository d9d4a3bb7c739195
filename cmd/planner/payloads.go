package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/vinayprograms/planner/internal/config"
	"github.com/vinayprograms/planner/internal/metrics"
	"github.com/vinayprograms/planner/internal/planning"
	"github.com/vinayprograms/planner/internal/tools"
)

// Run prints an itinerary in the requested format. Markdown output is the
// same template the create_itinerary_template tool returns.
func (c *ItineraryCmd) Run(a *app) error {
	builder, err := newBuilder(a.cfg, metrics.Default(), c.Offline)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if d := config.Seconds(a.cfg.Dispatch.ToolTimeout); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	if c.Format == "markdown" {
		_, err := fmt.Fprintln(a.out, tools.ItineraryTemplate(ctx, builder, c.Destination, c.Days, c.Style))
		return err
	}
	return writePayload(a.out, c.Format, builder.Itinerary(ctx, c.Destination, c.Days, c.Style).Data)
}

// Run prints a checklist in the requested format.
func (c *ChecklistCmd) Run(a *app) error {
	res := planning.Checklist(c.Destination, c.Context)
	if c.Format == "markdown" {
		_, err := fmt.Fprintln(a.out, res.Markdown)
		return err
	}
	return writePayload(a.out, c.Format, res.Data)
}

// Run prints the research report.
func (c *ResearchCmd) Run(a *app) error {
	_, err := fmt.Fprintln(a.out, tools.Research(c.Destination, c.Interests))
	return err
}

var toolNameStyle = lipgloss.NewStyle().Bold(true)

// Run lists the backend tools.
func (ToolsCmd) Run(a *app) error {
	for _, def := range tools.Definitions() {
		fmt.Fprintf(a.out, "%s\n  %s\n", toolNameStyle.Render(def.Name), def.Description)
	}
	return nil
}

// writePayload encodes v as indented JSON or YAML.
func writePayload(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
