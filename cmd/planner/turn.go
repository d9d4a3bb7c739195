package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/nats-io/nats.go"

	"github.com/vinayprograms/planner/internal/bus"
	"github.com/vinayprograms/planner/internal/config"
	"github.com/vinayprograms/planner/internal/dispatch"
	"github.com/vinayprograms/planner/internal/planning"
)

var (
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	toolStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tagStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Run executes one turn and prints the result.
func (c *TurnCmd) Run(a *app) error {
	req, err := c.request(os.Stdin)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var resp *dispatch.TurnResponse
	if c.NATS != "" {
		resp, err = c.remote(ctx, a.cfg, req)
	} else {
		resp, err = local(ctx, a.cfg, req)
	}
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(resp)
	}
	renderTurn(a.out, resp, c.Width)
	return nil
}

func (c *TurnCmd) request(stdin *os.File) (dispatch.TurnRequest, error) {
	req := dispatch.TurnRequest{GroupID: c.Group}
	text := strings.Join(c.Message, " ")
	if text == "" && !isTerminal(stdin) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return req, fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		return req, fmt.Errorf("no message given")
	}
	req.Messages = []dispatch.Message{{Role: dispatch.RoleUser, Content: text}}
	if c.Document != "" {
		data, err := os.ReadFile(c.Document)
		if err != nil {
			return req, fmt.Errorf("read document: %w", err)
		}
		req.Content = string(data)
	}
	return req, nil
}

func local(ctx context.Context, cfg *config.Config, req dispatch.TurnRequest) (*dispatch.TurnResponse, error) {
	rt, err := newRuntime(cfg)
	if err != nil {
		return nil, err
	}
	return rt.dispatcher.Turn(ctx, req)
}

func (c *TurnCmd) remote(ctx context.Context, cfg *config.Config, req dispatch.TurnRequest) (*dispatch.TurnResponse, error) {
	nc, err := nats.Connect(c.NATS, nats.Name("planner-cli"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	defer nc.Close()

	timeout := config.Seconds(cfg.Dispatch.TurnTimeout)
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return bus.Request(ctx, nc, cfg.NATS.Subject, req)
}

// renderTurn prints the messages produced by the turn, skipping the input.
func renderTurn(w io.Writer, resp *dispatch.TurnResponse, width int) {
	if width <= 0 {
		width = 100
	}
	start := 0
	for i, m := range resp.Messages {
		if m.Role == dispatch.RoleUser {
			start = i + 1
		}
	}

	for _, m := range resp.Messages[start:] {
		switch m.Role {
		case dispatch.RoleAssistant:
			for _, tc := range m.ToolCalls {
				fmt.Fprintln(w, toolStyle.Render("→ "+tc.Name))
			}
			if m.Content != "" {
				fmt.Fprintln(w, assistantStyle.Render("Frizzle"))
				fmt.Fprintln(w, renderContent(m.Content, width))
			}
		case dispatch.RoleTool:
			fmt.Fprintln(w, infoStyle.Render(fmt.Sprintf("← tool result (%d chars)", len(m.Content))))
		}
	}

	for _, tc := range resp.PendingToolCalls {
		fmt.Fprintln(w, pendingStyle.Render("pending frontend action: "+tc.Name))
	}
	fmt.Fprintln(w, infoStyle.Render(fmt.Sprintf("%s after %d iteration(s)", resp.StopReason, resp.Iterations)))
}

// renderContent wraps prose and summarizes fenced payload blocks.
func renderContent(content string, width int) string {
	for _, tag := range []string{planning.TagItinerary, planning.TagChecklist} {
		summary := tagStyle.Render("[" + tag + " payload]")
		content = planning.ReplaceFenced(content, tag, func(string) string { return summary })
	}
	return wordwrap.String(content, width)
}
