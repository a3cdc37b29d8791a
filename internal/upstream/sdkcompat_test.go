package upstream

import (
	"testing"

	"github.com/oxmal/go-llmbridge/internal/types"
)

func TestChatParams(t *testing.T) {
	params := ChatParams("gpt-4o", []types.ChatMessage{
		{Role: "system", Content: types.TextContent("be terse")},
		{Role: "user", Content: types.TextContent("hi")},
		{Role: "assistant", Content: types.TextContent("hello")},
	})

	if params.Model != "gpt-4o" {
		t.Fatalf("unexpected model: %q", params.Model)
	}
	if len(params.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil {
		t.Fatalf("expected system message, got %+v", params.Messages[0])
	}
	if params.Messages[1].OfUser == nil {
		t.Fatalf("expected user message, got %+v", params.Messages[1])
	}
	if params.Messages[2].OfAssistant == nil {
		t.Fatalf("expected assistant message, got %+v", params.Messages[2])
	}
}

func TestChatParamsAssistantToolCalls(t *testing.T) {
	params := ChatParams("gpt-4o", []types.ChatMessage{
		{
			Role: "assistant",
			ToolCalls: []types.ToolCall{
				{Index: 0, ID: "call_1", Type: "function", Function: types.FunctionCall{Name: "ls", Arguments: "{}"}},
				{Index: 1, ID: "call_2", Type: "function", Function: types.FunctionCall{Name: "cat", Arguments: `{"p":"a"}`}},
			},
		},
		{Role: "tool", ToolCallID: "call_1", Content: types.TextContent("a.txt")},
	})

	asst := params.Messages[0].OfAssistant
	if asst == nil || len(asst.ToolCalls) != 2 {
		t.Fatalf("unexpected assistant message: %+v", params.Messages[0])
	}
	fn := asst.ToolCalls[0].OfFunction
	if fn == nil || fn.ID != "call_1" || fn.Function.Name != "ls" {
		t.Fatalf("unexpected first tool call: %+v", asst.ToolCalls[0])
	}

	tool := params.Messages[1].OfTool
	if tool == nil || tool.ToolCallID != "call_1" {
		t.Fatalf("unexpected tool message: %+v", params.Messages[1])
	}
}

func TestChatParamsMultimodalUser(t *testing.T) {
	params := ChatParams("gpt-4o", []types.ChatMessage{
		{
			Role: "user",
			Content: types.PartsContent([]types.ContentPart{
				{Type: "text", Text: "what is this"},
				{Type: "image_url", ImageURL: &types.ImageURL{URL: "https://example.com/x.png"}},
			}),
		},
	})

	user := params.Messages[0].OfUser
	if user == nil {
		t.Fatalf("expected user message, got %+v", params.Messages[0])
	}
	parts := user.Content.OfArrayOfContentParts
	if len(parts) != 2 {
		t.Fatalf("expected 2 content parts, got %+v", user.Content)
	}
	if parts[1].OfImageURL == nil || parts[1].OfImageURL.ImageURL.URL != "https://example.com/x.png" {
		t.Fatalf("unexpected image part: %+v", parts[1])
	}
}

func TestChatParamsSkipsEmptyMessages(t *testing.T) {
	params := ChatParams("gpt-4o", []types.ChatMessage{
		{Role: "user", Content: types.TextContent("")},
		{Role: "assistant"},
		{Role: "user", Content: types.TextContent("kept")},
	})

	if len(params.Messages) != 1 {
		t.Fatalf("empty messages should be skipped, got %d", len(params.Messages))
	}
}

func TestChatParamsFlattensAssistantParts(t *testing.T) {
	params := ChatParams("gpt-4o", []types.ChatMessage{
		{
			Role: "assistant",
			Content: types.PartsContent([]types.ContentPart{
				{Type: "text", Text: "one "},
				{Type: "text", Text: "two"},
			}),
		},
	})

	asst := params.Messages[0].OfAssistant
	if asst == nil || asst.Content.OfString.Value != "one two" {
		t.Fatalf("unexpected assistant content: %+v", params.Messages[0])
	}
}
