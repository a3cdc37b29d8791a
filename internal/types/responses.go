package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ResponsesRequest is the unified request shape accepted by the bridge,
// modeled on the OpenAI Responses API. Input stays raw until ParseInput so
// both the bare-string and the item-list form decode through one path.
type ResponsesRequest struct {
	Model              string          `json:"model,omitempty"`
	Input              json.RawMessage `json:"input,omitempty"`
	Instructions       string          `json:"instructions,omitempty"`
	PreviousResponseID string          `json:"previous_response_id,omitempty"`
	Stream             bool            `json:"stream,omitempty"`

	// Messages is the legacy chat-completions field. It is consulted only
	// when Input is absent: requests logged before the Responses API shape
	// replay through the same translation path.
	Messages json.RawMessage `json:"messages,omitempty"`
}

// ResponsesInputItem represents a single item in the Responses API input array.
// Uses a flat discriminated union pattern: Type determines which fields are
// relevant ("message", "function_call", "function_call_output", "reasoning").
type ResponsesInputItem struct {
	Type    string             `json:"type"`
	ID      string             `json:"id,omitempty"`
	Status  string             `json:"status,omitempty"`
	Role    string             `json:"role,omitempty"`
	Content []ResponsesContent `json:"content,omitempty"`

	// function_call fields
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	CallID    string `json:"call_id,omitempty"`

	// function_call_output payload, normalized to a string at parse time
	Output string `json:"output,omitempty"`
}

// ResponsesContent is one content block of a Responses input message.
// CacheControl is carried through verbatim; see ContentPart.
type ResponsesContent struct {
	Type         string        `json:"type"`
	Text         string        `json:"text,omitempty"`
	ImageURL     string        `json:"image_url,omitempty"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// rawInputItem is the permissive decode target for one input array entry.
// It also accepts chat-completion-shaped messages (string content, tool_calls,
// tool role) so stored legacy requests replay through the same path.
type rawInputItem struct {
	Type       string          `json:"type"`
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content"`
	Name       string          `json:"name"`
	Arguments  string          `json:"arguments"`
	CallID     string          `json:"call_id"`
	Output     json.RawMessage `json:"output"`
	ToolCalls  []ToolCall      `json:"tool_calls"`
	ToolCallID string          `json:"tool_call_id"`
}

// ParseInput decodes the raw input field into input items. A bare string
// becomes a single user message; a null input yields nil items.
func (r *ResponsesRequest) ParseInput() ([]ResponsesInputItem, error) {
	if len(r.Input) == 0 {
		return nil, nil
	}
	return ParseInputValue(r.Input)
}

// ParseMessages decodes the legacy messages field through the same item
// translation as input.
func (r *ResponsesRequest) ParseMessages() ([]ResponsesInputItem, error) {
	if len(r.Messages) == 0 {
		return nil, nil
	}
	return ParseInputValue(r.Messages)
}

// ParseInputValue decodes a raw Responses input value (string or item array)
// into input items.
func ParseInputValue(raw json.RawMessage) ([]ResponsesInputItem, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []ResponsesInputItem{{
			Type:    "message",
			Role:    "user",
			Content: []ResponsesContent{{Type: "input_text", Text: s}},
		}}, nil
	}

	var rawItems []rawInputItem
	if err := json.Unmarshal(raw, &rawItems); err != nil {
		return nil, &InputShapeError{Detail: "input must be a string or an array of input items"}
	}

	var items []ResponsesInputItem
	for _, ri := range rawItems {
		converted, err := ri.toInputItems()
		if err != nil {
			return nil, err
		}
		items = append(items, converted...)
	}
	return items, nil
}

// InputShapeError reports a structurally invalid input value.
type InputShapeError struct {
	Detail string
}

func (e *InputShapeError) Error() string {
	return e.Detail
}

func (ri rawInputItem) toInputItems() ([]ResponsesInputItem, error) {
	switch ri.Type {
	case "function_call":
		return []ResponsesInputItem{{
			Type:      "function_call",
			ID:        ri.ID,
			Status:    ri.Status,
			Name:      ri.Name,
			Arguments: ri.Arguments,
			CallID:    ri.CallID,
		}}, nil

	case "function_call_output":
		output, err := normalizeOutputValue(ri.Output)
		if err != nil {
			return nil, err
		}
		return []ResponsesInputItem{{
			Type:   "function_call_output",
			ID:     ri.ID,
			CallID: ri.CallID,
			Output: output,
		}}, nil

	case "reasoning":
		// Opaque: preserved as an item so callers can see it, never translated.
		return []ResponsesInputItem{{Type: "reasoning", ID: ri.ID, Status: ri.Status}}, nil

	case "", "message":
		return ri.messageToInputItems()

	default:
		return nil, &InputShapeError{Detail: "unknown input item type " + strconv.Quote(ri.Type)}
	}
}

// messageToInputItems handles both genuine Responses message items and
// chat-shaped legacy messages. A chat tool message becomes a
// function_call_output; assistant tool_calls become function_call items that
// follow the (possibly empty) message content.
func (ri rawInputItem) messageToInputItems() ([]ResponsesInputItem, error) {
	if ri.Role == "tool" {
		output, err := normalizeOutputValue(ri.Content)
		if err != nil {
			return nil, err
		}
		callID := ri.ToolCallID
		if callID == "" {
			callID = ri.Name
		}
		return []ResponsesInputItem{{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		}}, nil
	}

	content, err := parseMessageContent(ri.Content, ri.Role)
	if err != nil {
		return nil, err
	}

	var items []ResponsesInputItem
	items = append(items, ResponsesInputItem{
		Type:    "message",
		ID:      ri.ID,
		Status:  ri.Status,
		Role:    defaultRole(ri.Role),
		Content: content,
	})
	for _, tc := range ri.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			continue
		}
		items = append(items, ResponsesInputItem{
			Type:      "function_call",
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
			CallID:    tc.ID,
		})
	}
	return items, nil
}

// parseMessageContent accepts a string, an array of blocks, or null.
// Anything else is a shape error that must propagate, not be swallowed.
func parseMessageContent(raw json.RawMessage, role string) ([]ResponsesContent, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil, nil
		}
		kind := "input_text"
		if role == "assistant" {
			kind = "output_text"
		}
		return []ResponsesContent{{Type: kind, Text: s}}, nil
	}

	var blocks []ResponsesContent
	if err := json.Unmarshal(raw, &blocks); err == nil {
		return blocks, nil
	}

	return nil, &InputShapeError{Detail: "message content must be a string or an array of content blocks, got " + truncateForError(trimmed)}
}

// normalizeOutputValue flattens a function_call_output payload to a plain
// string. Block lists are concatenated in order with no separator: several
// providers (the Gemini family in particular) reject tool results that are
// not a single string part.
func normalizeOutputValue(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var blocks []ResponsesContent
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var b strings.Builder
		for _, block := range blocks {
			b.WriteString(block.Text)
		}
		return b.String(), nil
	}

	return "", &InputShapeError{Detail: "function call output must be a string or a list of text blocks, got " + truncateForError(trimmed)}
}

func defaultRole(role string) string {
	if role == "" {
		return "user"
	}
	return role
}
