// Package normalize converts Responses API input into the canonical ordered
// chat-completion message list sent to providers.
package normalize

import (
	"errors"
	"strings"

	"github.com/oxmal/go-llmbridge/internal/types"
)

// ValidationError reports malformed input shape. It propagates to the caller
// immediately and is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Normalize translates a Responses request into an ordered chat message list.
//
// A bare-string input yields a single user message. An item list is processed
// strictly in order; consecutive function_call items from one assistant turn
// coalesce into a single assistant message (see mergeRun), and each
// function_call_output lands immediately after the run that produced its call.
// Top-level instructions become a leading system message. When the request
// carries only the legacy messages field, that field replays through the same
// translation path.
func Normalize(req *types.ResponsesRequest) ([]types.ChatMessage, error) {
	items, err := req.ParseInput()
	if err != nil {
		return nil, asValidationError(err)
	}
	if len(req.Input) == 0 && len(req.Messages) > 0 {
		items, err = req.ParseMessages()
		if err != nil {
			return nil, asValidationError(err)
		}
	}

	var out []types.ChatMessage
	if instructions := strings.TrimSpace(req.Instructions); instructions != "" {
		out = append(out, types.ChatMessage{
			Role:    "system",
			Content: types.TextContent(instructions),
		})
	}

	run := mergeRun{open: -1}
	for _, item := range items {
		switch item.Type {
		case "message":
			msg := translateMessageItem(item)
			out = append(out, msg)
			// An empty assistant message opens a merge run: function_call
			// items that follow attach their tool calls to it.
			if msg.Role == "assistant" && msg.Content.Empty() && len(msg.ToolCalls) == 0 {
				run.open = len(out) - 1
			} else {
				run.open = -1
			}

		case "function_call":
			call := types.ToolCall{
				ID:   item.CallID,
				Type: "function",
				Function: types.FunctionCall{
					Name:      item.Name,
					Arguments: item.Arguments,
				},
			}
			if run.open >= 0 {
				call.Index = len(out[run.open].ToolCalls)
				out[run.open].ToolCalls = append(out[run.open].ToolCalls, call)
			} else {
				call.Index = 0
				out = append(out, types.ChatMessage{
					Role:      "assistant",
					ToolCalls: []types.ToolCall{call},
				})
				run.open = len(out) - 1
			}

		case "function_call_output":
			// The output must stay adjacent to its invoking call; it also
			// breaks the consecutive run, so later calls start a new message.
			out = append(out, types.ChatMessage{
				Role:       "tool",
				Content:    types.TextContent(item.Output),
				ToolCallID: item.CallID,
			})
			run.open = -1

		case "reasoning":
			// Opaque to providers; never translated.

		default:
			return nil, &ValidationError{Message: "unsupported input item type " + item.Type}
		}
	}

	return out, nil
}

// mergeRun tracks the assistant message, if any, that the current consecutive
// run of function_call items appends to.
type mergeRun struct {
	open int // index into the output list, -1 when no run is open
}

// translateMessageItem converts one message input item to a chat message.
// Content blocks keep every field verbatim apart from the stripped
// input_/output_ type prefix; in particular cache_control directives survive.
// A single plain text block collapses to string content, the superset shape
// providers accept for simple messages.
func translateMessageItem(item types.ResponsesInputItem) types.ChatMessage {
	msg := types.ChatMessage{Role: item.Role}
	if len(item.Content) == 0 {
		return msg
	}

	parts := make([]types.ContentPart, 0, len(item.Content))
	for _, block := range item.Content {
		part := types.ContentPart{
			Type:         stripDirectionPrefix(block.Type),
			Text:         block.Text,
			CacheControl: block.CacheControl,
		}
		if part.Type == "image" {
			part.Type = "image_url"
		}
		if block.ImageURL != "" {
			part.ImageURL = &types.ImageURL{URL: block.ImageURL}
		}
		parts = append(parts, part)
	}

	if len(parts) == 1 && parts[0].Type == "text" && parts[0].ImageURL == nil && parts[0].CacheControl == nil {
		msg.Content = types.TextContent(parts[0].Text)
		return msg
	}
	msg.Content = types.PartsContent(parts)
	return msg
}

// stripDirectionPrefix maps Responses content types onto the canonical ones:
// input_text and output_text both become text, input_image becomes image_url,
// and types with no direction prefix pass through.
func stripDirectionPrefix(t string) string {
	switch {
	case strings.HasPrefix(t, "input_"):
		return strings.TrimPrefix(t, "input_")
	case strings.HasPrefix(t, "output_"):
		return strings.TrimPrefix(t, "output_")
	default:
		return t
	}
}

func asValidationError(err error) error {
	var shapeErr *types.InputShapeError
	if errors.As(err, &shapeErr) {
		return &ValidationError{Message: shapeErr.Detail}
	}
	return &ValidationError{Message: err.Error()}
}
