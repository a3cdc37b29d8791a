package upstream

import (
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/oxmal/go-llmbridge/internal/types"
)

// ChatParams builds SDK chat-completion params from canonical messages.
func ChatParams(model string, messages []types.ChatMessage) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: chatMessagesToSDK(messages),
	}
}

// chatMessagesToSDK converts canonical messages to the SDK union type.
// Provider-specific content extensions (cache_control) have no SDK
// representation and ride only the raw wire path; they are dropped here.
func chatMessagesToSDK(messages []types.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		if sdkMsg, ok := chatMessageToSDK(m); ok {
			out = append(out, sdkMsg)
		}
	}
	return out
}

func chatMessageToSDK(m types.ChatMessage) (openai.ChatCompletionMessageParamUnion, bool) {
	switch m.Role {
	case "system", "developer":
		text := flattenText(m.Content)
		if text == "" {
			return openai.ChatCompletionMessageParamUnion{}, false
		}
		return openai.SystemMessage(text), true

	case "assistant":
		return assistantMessageToSDK(m)

	case "tool":
		if m.ToolCallID == "" {
			return openai.ChatCompletionMessageParamUnion{}, false
		}
		return openai.ToolMessage(flattenText(m.Content), m.ToolCallID), true

	default:
		if m.Content.IsParts {
			parts := contentPartsToSDK(m.Content.Parts)
			if len(parts) == 0 {
				return openai.ChatCompletionMessageParamUnion{}, false
			}
			return openai.UserMessage(parts), true
		}
		if m.Content.Text == "" {
			return openai.ChatCompletionMessageParamUnion{}, false
		}
		return openai.UserMessage(m.Content.Text), true
	}
}

func assistantMessageToSDK(m types.ChatMessage) (openai.ChatCompletionMessageParamUnion, bool) {
	text := flattenText(m.Content)
	if len(m.ToolCalls) == 0 {
		if text == "" {
			return openai.ChatCompletionMessageParamUnion{}, false
		}
		return openai.AssistantMessage(text), true
	}

	msg := openai.ChatCompletionAssistantMessageParam{}
	if text != "" {
		msg.Content.OfString = openai.String(text)
	}
	for _, tc := range m.ToolCalls {
		if tc.ID == "" || tc.Function.Name == "" {
			continue
		}
		msg.ToolCalls = append(msg.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			},
		})
	}
	if msg.Content.OfString.Value == "" && len(msg.ToolCalls) == 0 {
		return openai.ChatCompletionMessageParamUnion{}, false
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &msg}, true
}

func contentPartsToSDK(parts []types.ContentPart) []openai.ChatCompletionContentPartUnionParam {
	out := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case "text":
			if p.Text != "" {
				out = append(out, openai.TextContentPart(p.Text))
			}
		case "image_url":
			if p.ImageURL != nil && p.ImageURL.URL != "" {
				out = append(out, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: p.ImageURL.URL,
				}))
			}
		}
	}
	return out
}

// flattenText collapses canonical content to plain text, concatenating text
// parts in order.
func flattenText(c types.Content) string {
	if !c.IsParts {
		return c.Text
	}
	var text string
	for _, p := range c.Parts {
		if p.Type == "text" {
			text += p.Text
		}
	}
	return text
}
