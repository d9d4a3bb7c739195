// Package dispatch runs one conversation turn: it asks the model for a reply,
// executes at most one backend tool per model response, and loops until the
// model answers without requesting a backend tool.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"

	"github.com/vinayprograms/planner/internal/metrics"
	"github.com/vinayprograms/planner/internal/tools"
)

// ErrNoProvider is returned by New when no model provider is given.
var ErrNoProvider = errors.New("dispatch: no model provider")

// Phase is the loop state.
type Phase int

const (
	PhaseDispatching Phase = iota
	PhaseTerminal
)

func (p Phase) String() string {
	switch p {
	case PhaseDispatching:
		return "dispatching"
	case PhaseTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Options bound the work done per turn.
type Options struct {
	// MaxDocumentChars caps the document snapshot in the system prompt, in runes.
	MaxDocumentChars int
	// MaxHistory is how many trailing messages are sent to the model.
	MaxHistory int
	// MaxIterations caps backend tool round trips per turn; 0 means no cap.
	MaxIterations int
	// MaxTokens is passed through to the model; 0 uses the provider default.
	MaxTokens int
	// TurnTimeout bounds a whole turn; 0 means no deadline.
	TurnTimeout time.Duration
}

// DefaultOptions returns the stock limits.
func DefaultOptions() Options {
	return Options{
		MaxDocumentChars: 8000,
		MaxHistory:       6,
		MaxIterations:    10,
		TurnTimeout:      120 * time.Second,
	}
}

// Executor runs backend tool calls.
type Executor interface {
	Run(ctx context.Context, call llm.ToolCallResponse) (string, error)
}

// Dispatcher drives turns against a model provider.
type Dispatcher struct {
	provider llm.Provider
	name     string
	tools    Executor
	opts     atomic.Pointer[Options]
	metrics  *metrics.Metrics
	logger   *logging.Logger
	newID    func() string
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics attaches collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithProviderName labels model spans with the configured provider.
func WithProviderName(name string) Option {
	return func(d *Dispatcher) { d.name = name }
}

// WithExecutor replaces the backend tool executor.
func WithExecutor(e Executor) Option {
	return func(d *Dispatcher) { d.tools = e }
}

// New creates a dispatcher for provider. Backend tools run through a default
// toolset unless WithExecutor is given.
func New(provider llm.Provider, opts Options, options ...Option) (*Dispatcher, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	d := &Dispatcher{
		provider: provider,
		name:     "unknown",
		tools:    tools.NewToolset(nil, 0),
		logger:   logging.New().WithComponent("dispatch"),
		newID:    uuid.NewString,
	}
	d.opts.Store(&opts)
	for _, o := range options {
		o(d)
	}
	return d, nil
}

// SetOptions swaps the limits used by subsequent turns.
func (d *Dispatcher) SetOptions(opts Options) {
	d.opts.Store(&opts)
}

// Options returns the limits currently in effect.
func (d *Dispatcher) Options() Options {
	return *d.opts.Load()
}

// state is the transient per-turn data.
type state struct {
	history  []Message
	document string
	groupID  string
	frontend []ToolDescriptor
	toolDefs []llm.ToolDef
}

// Turn runs one conversation turn. Model failures are returned wrapped;
// tool failures become tool result messages the model can react to.
func (d *Dispatcher) Turn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	opts := d.Options()
	if opts.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TurnTimeout)
		defer cancel()
	}

	traceID := d.newID()
	ctx, span := startTurnSpan(ctx, traceID, req.GroupID)

	st := newState(req)
	d.logger.Info("turn started", map[string]interface{}{
		"trace_id":       traceID,
		"messages":       len(st.history),
		"document_bytes": len(st.document),
		"frontend_tools": len(st.frontend),
	})

	var (
		phase      = PhaseDispatching
		iterations int
		roundTrips int
		stopReason string
		final      Message
		pending    []ToolCall
	)

	for phase == PhaseDispatching {
		iterations++
		resp, err := d.callModel(ctx, st, opts)
		if err != nil {
			d.logger.Error("model call failed", map[string]interface{}{
				"trace_id":  traceID,
				"iteration": iterations,
				"error":     err.Error(),
			})
			endTurnSpan(span, "error", iterations, err)
			d.metrics.ObserveTurn("error")
			return nil, fmt.Errorf("model call (iteration %d): %w", iterations, err)
		}

		calls := make([]ToolCall, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			call := fromLLMCall(tc)
			if call.ID == "" {
				call.ID = d.newID()
			}
			calls = append(calls, call)
		}

		backend, ok := firstBackendCall(calls)
		if !ok {
			final = Message{Role: RoleAssistant, Content: resp.Content, ToolCalls: calls}
			st.history = append(st.history, final)
			pending = calls
			stopReason = StopComplete
			if len(pending) > 0 {
				stopReason = StopFrontendTool
			}
			phase = PhaseTerminal
			continue
		}

		final = Message{Role: RoleAssistant, Content: resp.Content, ToolCalls: []ToolCall{backend}}
		st.history = append(st.history, final)
		st.history = append(st.history, d.runTool(ctx, traceID, backend))
		roundTrips++

		if opts.MaxIterations > 0 && roundTrips >= opts.MaxIterations {
			d.logger.Warn("iteration limit reached", map[string]interface{}{
				"trace_id":       traceID,
				"max_iterations": opts.MaxIterations,
			})
			stopReason = StopIterationLimit
			phase = PhaseTerminal
		}
	}

	d.logger.Info("turn complete", map[string]interface{}{
		"trace_id":    traceID,
		"iterations":  iterations,
		"tool_calls":  roundTrips,
		"stop_reason": stopReason,
	})
	endTurnSpan(span, stopReason, iterations, nil)
	d.metrics.ObserveTurn(stopReason)

	return &TurnResponse{
		Messages:         st.history,
		Final:            final,
		Iterations:       iterations,
		StopReason:       stopReason,
		PendingToolCalls: pending,
	}, nil
}

func newState(req TurnRequest) *state {
	st := &state{
		document: req.Content,
		groupID:  req.GroupID,
		history:  make([]Message, 0, len(req.Messages)+2),
	}
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			continue
		}
		st.history = append(st.history, m)
	}

	st.toolDefs = tools.Definitions()
	seen := make(map[string]bool, len(req.Tools))
	for _, td := range req.Tools {
		if td.Name == "" || tools.IsBackend(td.Name) || seen[td.Name] {
			continue
		}
		seen[td.Name] = true
		st.frontend = append(st.frontend, td)
		params := td.Parameters
		if params == nil {
			params = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
		}
		st.toolDefs = append(st.toolDefs, llm.ToolDef{
			Name:        td.Name,
			Description: td.Description,
			Parameters:  params,
		})
	}
	return st
}

func (d *Dispatcher) callModel(ctx context.Context, st *state, opts Options) (*llm.ChatResponse, error) {
	window := historyWindow(st.history, opts.MaxHistory)
	messages := make([]llm.Message, 0, len(window)+1)
	messages = append(messages, llm.Message{
		Role:    RoleSystem,
		Content: BuildSystemPrompt(st.groupID, st.document, opts.MaxDocumentChars, st.frontend),
	})
	for _, m := range window {
		messages = append(messages, toLLMMessage(m))
	}

	ctx, span := startModelSpan(ctx, d.name, len(messages))
	start := time.Now()
	resp, err := d.provider.Chat(ctx, llm.ChatRequest{
		Messages:  messages,
		Tools:     st.toolDefs,
		MaxTokens: opts.MaxTokens,
	})
	d.metrics.ObserveModelCall(time.Since(start))
	endModelSpan(span, resp, err)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("empty model response")
	}
	return resp, nil
}

func (d *Dispatcher) runTool(ctx context.Context, traceID string, call ToolCall) Message {
	ctx, span := startToolSpan(ctx, call.Name, call.ID)
	out, err := d.tools.Run(ctx, toLLMCall(call))
	status := "ok"
	if err != nil {
		status = "error"
		out = "Error: " + err.Error()
		d.logger.Warn("tool call failed", map[string]interface{}{
			"trace_id": traceID,
			"tool":     call.Name,
			"error":    err.Error(),
		})
	}
	endToolSpan(span, status, len(out), err)
	d.metrics.ObserveToolCall(call.Name, status)

	return Message{
		Role:       RoleTool,
		Content:    out,
		ToolCallID: call.ID,
		Name:       call.Name,
	}
}

// firstBackendCall returns the first call naming a backend tool. Only one
// backend call is acted on per model response.
func firstBackendCall(calls []ToolCall) (ToolCall, bool) {
	for _, c := range calls {
		if tools.IsBackend(c.Name) {
			return c, true
		}
	}
	return ToolCall{}, false
}

// historyWindow returns the last n messages, dropping leading tool results
// whose originating assistant message fell outside the window. n <= 0 keeps
// everything.
func historyWindow(history []Message, n int) []Message {
	window := history
	if n > 0 && len(window) > n {
		window = window[len(window)-n:]
	}
	for len(window) > 0 && window[0].Role == RoleTool {
		window = window[1:]
	}
	return window
}
