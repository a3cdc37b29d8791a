package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChatMessage is the canonical chat-completion message every provider call is
// built from. It is the normalized output of the Responses input translation:
// one entry per system/user/assistant/tool turn, in provider order.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    Content    `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Content models chat message content, which on the wire is either a JSON
// string or an array of typed parts. The representation is decided once at
// parse time; consumers switch on IsParts instead of re-sniffing shapes.
type Content struct {
	Text    string
	Parts   []ContentPart
	IsParts bool
}

// TextContent builds a plain-string Content.
func TextContent(s string) Content {
	return Content{Text: s}
}

// PartsContent builds a block-list Content.
func PartsContent(parts []ContentPart) Content {
	return Content{Parts: parts, IsParts: true}
}

// Empty reports whether the content carries no text and no non-empty parts.
// This is the merge-eligibility notion of "empty": an absent content field,
// an empty string, an empty list, and a list of blank text parts all count.
func (c Content) Empty() bool {
	if c.IsParts {
		for _, p := range c.Parts {
			if strings.TrimSpace(p.Text) != "" || p.ImageURL != nil {
				return false
			}
		}
		return true
	}
	return c.Text == ""
}

// MarshalJSON emits a string for plain text content and an array otherwise.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsParts {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts a string, an array of parts, or null.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*c = Content{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Content{Text: s}
		return nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err == nil {
		*c = Content{Parts: parts, IsParts: true}
		return nil
	}
	return fmt.Errorf("content must be a string or an array of content parts, got %s", truncateForError(trimmed))
}

// ContentPart is one block of a multimodal content array. CacheControl, when
// present, must survive every translation unchanged: it activates prompt
// caching on providers that support it.
type ContentPart struct {
	Type         string        `json:"type"`
	Text         string        `json:"text,omitempty"`
	ImageURL     *ImageURL     `json:"image_url,omitempty"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// ImageURL holds an image URL reference.
type ImageURL struct {
	URL string `json:"url"`
}

// CacheControl is a provider cache directive attached to a content block.
type CacheControl struct {
	Type string `json:"type"`
	TTL  string `json:"ttl,omitempty"`
}

// ToolCall is one tool invocation on an assistant message. Index is the
// zero-based position within the message's tool_calls list and is strictly
// increasing there.
type ToolCall struct {
	Index    int          `json:"index"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds the function name and raw JSON arguments string.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func truncateForError(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
