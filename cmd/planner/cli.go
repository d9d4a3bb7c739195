// Package main defines the CLI structure using kong.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Config string `short:"c" help:"Config file path (default: ./planner.toml if present)"`

	Serve     ServeCmd     `cmd:"" help:"Serve turns over HTTP (and NATS when configured)"`
	Turn      TurnCmd      `cmd:"" help:"Run one conversation turn"`
	Itinerary ItineraryCmd `cmd:"" help:"Build an itinerary payload"`
	Checklist ChecklistCmd `cmd:"" help:"Build a checklist payload"`
	Research  ResearchCmd  `cmd:"" help:"Show destination research"`
	Tools     ToolsCmd     `cmd:"" help:"List backend tool definitions"`
	Version   VersionCmd   `cmd:"" help:"Show version information"`
}

// ServeCmd runs the HTTP server and, if configured, the NATS responder.
type ServeCmd struct {
	Addr  string `help:"Listen address (overrides config)"`
	Watch bool   `default:"true" negatable:"" help:"Reload dispatch limits when the config file changes"`
}

// TurnCmd runs a single turn locally or against a remote responder.
type TurnCmd struct {
	Message  []string `arg:"" optional:"" help:"User message (read from stdin when omitted)"`
	Document string   `short:"d" type:"existingfile" help:"Shared document to include as context"`
	Group    string   `short:"g" help:"Planning group id"`
	NATS     string   `name:"nats" help:"Send the turn to a NATS responder at this URL instead of running locally"`
	JSON     bool     `name:"json" help:"Print the raw turn response as JSON"`
	Width    int      `default:"100" help:"Wrap width for pretty output"`
}

// ItineraryCmd prints an itinerary payload.
type ItineraryCmd struct {
	Destination string `arg:"" help:"Destination"`
	Days        int    `short:"n" default:"3" help:"Trip length in days (1-14)"`
	Style       string `short:"s" default:"balanced" enum:"adventure,relaxed,cultural,food,balanced" help:"Travel style"`
	Format      string `short:"o" default:"json" enum:"json,yaml,markdown" help:"Output format"`
	Offline     bool   `help:"Skip live activity lookup"`
}

// ChecklistCmd prints a checklist payload.
type ChecklistCmd struct {
	Destination string `arg:"" help:"Destination"`
	Context     string `default:"trip" help:"Checklist context, e.g. trip or weekend"`
	Format      string `short:"o" default:"markdown" enum:"json,yaml,markdown" help:"Output format"`
}

// ResearchCmd prints the destination research report.
type ResearchCmd struct {
	Destination string `arg:"" help:"Destination"`
	Interests   string `default:"general" help:"Focus interests"`
}

// ToolsCmd lists backend tool definitions.
type ToolsCmd struct{}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
