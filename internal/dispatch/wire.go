package dispatch

import (
	"encoding/json"

	"github.com/vinayprograms/agentkit/llm"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a tool request attached to an assistant message.
type ToolCall struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// Message is a chat message on the wire.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolDescriptor is a caller-supplied tool the front end executes itself.
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// TurnRequest is one conversation turn as submitted by a caller.
type TurnRequest struct {
	Messages []Message        `json:"messages"`
	Content  string           `json:"content"`
	GroupID  string           `json:"groupId"`
	Tools    []ToolDescriptor `json:"tools,omitempty"`
}

// UnmarshalJSON accepts group_id as an alias for groupId.
func (r *TurnRequest) UnmarshalJSON(data []byte) error {
	type plain TurnRequest
	var aux struct {
		plain
		GroupIDSnake string `json:"group_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = TurnRequest(aux.plain)
	if r.GroupID == "" {
		r.GroupID = aux.GroupIDSnake
	}
	return nil
}

// Stop reasons reported in TurnResponse.
const (
	StopComplete       = "complete"
	StopFrontendTool   = "frontend_tool"
	StopIterationLimit = "iteration_limit"
)

// TurnResponse is the result of a turn. Messages is the full updated history
// and Final is its last assistant message.
type TurnResponse struct {
	Messages         []Message  `json:"messages"`
	Final            Message    `json:"final"`
	Iterations       int        `json:"iterations"`
	StopReason       string     `json:"stopReason"`
	PendingToolCalls []ToolCall `json:"pendingToolCalls,omitempty"`
}

func toLLMMessage(m Message) llm.Message {
	out := llm.Message{
		Role:       m.Role,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCallResponse{ID: tc.ID, Name: tc.Name, Args: tc.Args})
	}
	return out
}

func fromLLMCall(tc llm.ToolCallResponse) ToolCall {
	return ToolCall{ID: tc.ID, Name: tc.Name, Args: tc.Args}
}

func toLLMCall(tc ToolCall) llm.ToolCallResponse {
	return llm.ToolCallResponse{ID: tc.ID, Name: tc.Name, Args: tc.Args}
}
