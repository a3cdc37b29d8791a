package types

import "encoding/json"

// Stream event types emitted by the bridge. The non-reasoning types are a
// public wire contract and must stay field-compatible with the OpenAI
// Responses API streaming shape.
const (
	EventResponseCreated    = "response.created"
	EventResponseInProgress = "response.in_progress"
	EventResponseCompleted  = "response.completed"
	EventResponseFailed     = "response.failed"

	EventOutputItemAdded = "response.output_item.added"
	EventOutputItemDone  = "response.output_item.done"

	EventContentPartAdded = "response.content_part.added"
	EventContentPartDone  = "response.content_part.done"

	EventOutputTextDelta      = "response.output_text.delta"
	EventOutputTextDone       = "response.output_text.done"
	EventOutputTextAnnotation = "response.output_text.annotation.added"

	EventReasoningSummaryPartAdded = "response.reasoning_summary_part.added"
	EventReasoningSummaryPartDone  = "response.reasoning_summary_part.done"
	EventReasoningSummaryTextDelta = "response.reasoning_summary_text.delta"
	EventReasoningSummaryTextDone  = "response.reasoning_summary_text.done"

	EventFunctionCallArgumentsDelta = "response.function_call_arguments.delta"
	EventFunctionCallArgumentsDone  = "response.function_call_arguments.done"

	// Emitted by the Gemini/Vertex realtime variant, whose protocol has a
	// conversation handshake before the first response.
	EventSessionCreated = "session.created"
)

// StreamEvent is one SSE event of the outbound streaming contract.
// Flat discriminated union: Type determines which fields are populated.
// SequenceNumber is strictly increasing across all events of one response.
type StreamEvent struct {
	Type           string `json:"type"`
	SequenceNumber int    `json:"sequence_number"`

	ItemID          string `json:"item_id,omitempty"`
	OutputIndex     *int   `json:"output_index,omitempty"`
	ContentIndex    *int   `json:"content_index,omitempty"`
	SummaryIndex    *int   `json:"summary_index,omitempty"`
	AnnotationIndex *int   `json:"annotation_index,omitempty"`

	Delta     *string `json:"delta,omitempty"`
	Text      *string `json:"text,omitempty"`
	Arguments *string `json:"arguments,omitempty"`

	Part       *PartPayload         `json:"part,omitempty"`
	Item       *ResponsesOutputItem `json:"item,omitempty"`
	Annotation *Annotation          `json:"annotation,omitempty"`
	Response   *ResponsesResponse   `json:"response,omitempty"`
	Session    *SessionPayload      `json:"session,omitempty"`
}

// PartPayload is the part object of content_part and reasoning_summary_part
// events: an output_text part for message items, a summary_text part for
// reasoning items.
type PartPayload struct {
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	Annotations []Annotation `json:"-"`
}

// MarshalJSON emits the OpenAI part shape: output_text parts always carry
// annotations and logprobs arrays, summary_text parts carry text only.
func (p PartPayload) MarshalJSON() ([]byte, error) {
	if p.Type == "summary_text" {
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{p.Type, p.Text})
	}
	annotations := p.Annotations
	if annotations == nil {
		annotations = []Annotation{}
	}
	return json.Marshal(struct {
		Type        string       `json:"type"`
		Annotations []Annotation `json:"annotations"`
		Logprobs    []any        `json:"logprobs"`
		Text        string       `json:"text"`
	}{p.Type, annotations, []any{}, p.Text})
}

// Annotation is a flat Responses-shaped citation bound to a text content part.
type Annotation struct {
	Type       string `json:"type"`
	URL        string `json:"url,omitempty"`
	Title      string `json:"title,omitempty"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// SessionPayload identifies a realtime conversation session.
type SessionPayload struct {
	ID string `json:"id"`
}

// ResponsesResponse is the fully-materialized unified response object carried
// by the terminal response.completed event (and by non-streaming replies).
type ResponsesResponse struct {
	ID        string                `json:"id"`
	Object    string                `json:"object"`
	CreatedAt int64                 `json:"created_at"`
	Model     string                `json:"model,omitempty"`
	Status    string                `json:"status"`
	Output    []ResponsesOutputItem `json:"output"`
	Usage     *ResponsesUsage       `json:"usage,omitempty"`
	Error     *ErrorDetail          `json:"error,omitempty"`
}

// ResponsesOutputItem is one output item of a materialized response.
// Flat discriminated union over "message", "reasoning", and "function_call".
type ResponsesOutputItem struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`

	// message fields
	Role    string          `json:"role,omitempty"`
	Content []OutputContent `json:"content,omitempty"`

	// reasoning fields
	Summary []SummaryPart `json:"summary,omitempty"`

	// function_call fields
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// MarshalJSON emits only the fields of the active variant. Message items
// always carry role and a content array, reasoning items a summary array,
// function_call items their call fields; empty slices stay arrays, not null.
func (i ResponsesOutputItem) MarshalJSON() ([]byte, error) {
	switch i.Type {
	case "message":
		content := i.Content
		if content == nil {
			content = []OutputContent{}
		}
		return json.Marshal(struct {
			ID      string          `json:"id"`
			Type    string          `json:"type"`
			Status  string          `json:"status,omitempty"`
			Role    string          `json:"role"`
			Content []OutputContent `json:"content"`
		}{i.ID, i.Type, i.Status, i.Role, content})
	case "reasoning":
		summary := i.Summary
		if summary == nil {
			summary = []SummaryPart{}
		}
		return json.Marshal(struct {
			ID      string        `json:"id"`
			Type    string        `json:"type"`
			Status  string        `json:"status,omitempty"`
			Summary []SummaryPart `json:"summary"`
		}{i.ID, i.Type, i.Status, summary})
	case "function_call":
		return json.Marshal(struct {
			ID        string `json:"id"`
			Type      string `json:"type"`
			Status    string `json:"status,omitempty"`
			CallID    string `json:"call_id"`
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		}{i.ID, i.Type, i.Status, i.CallID, i.Name, i.Arguments})
	default:
		type plain ResponsesOutputItem
		return json.Marshal(plain(i))
	}
}

// OutputContent is one content entry of a message output item.
type OutputContent struct {
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	Annotations []Annotation `json:"annotations"`
}

// SummaryPart is one summary entry of a reasoning output item.
type SummaryPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ResponsesUsage holds token usage in the Responses API naming.
type ResponsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// UsageFromChat converts chat-completion usage counters to Responses naming.
func UsageFromChat(u *Usage) *ResponsesUsage {
	if u == nil {
		return nil
	}
	total := u.TotalTokens
	if total == 0 {
		total = u.PromptTokens + u.CompletionTokens
	}
	return &ResponsesUsage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  total,
	}
}
