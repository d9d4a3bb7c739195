// Package main is the entry point for the planner CLI.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/vinayprograms/agentkit/credentials"

	"github.com/vinayprograms/planner/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// globalCreds holds loaded credentials (file > env fallback happens in apiKey)
var globalCreds *credentials.Credentials

func init() {
	// Priority: credentials.toml > env vars
	if creds, _, err := credentials.Load(); err == nil && creds != nil {
		globalCreds = creds
	}

	// Load .env for any additional env vars
	_ = godotenv.Load()
}

// app carries what every command needs.
type app struct {
	configPath string
	cfg        *config.Config
	out        io.Writer
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("planner"),
		kong.Description("Collaborative trip-planning assistant."),
		kong.UsageOnError(),
		kongVars(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	a := &app{configPath: cli.Config, cfg: cfg, out: os.Stdout}
	ctx.FatalIfErrorf(ctx.Run(a))
}

// Run prints version information.
func (VersionCmd) Run(a *app) error {
	fmt.Fprintf(a.out, "planner version %s (commit: %s, built: %s)\n", version, commit, buildTime)
	return nil
}
