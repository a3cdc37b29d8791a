package stream

import (
	"github.com/oxmal/go-llmbridge/internal/types"
)

func (t *Transformer) reasoningOutputItem(st *itemState) *types.ResponsesOutputItem {
	return &types.ResponsesOutputItem{
		ID:     st.itemID,
		Type:   "reasoning",
		Status: "completed",
		Summary: []types.SummaryPart{
			{Type: "summary_text", Text: st.text.String()},
		},
	}
}

func (t *Transformer) messageOutputItem(st *itemState) *types.ResponsesOutputItem {
	annotations := st.annotations
	if annotations == nil {
		annotations = []types.Annotation{}
	}
	return &types.ResponsesOutputItem{
		ID:     st.itemID,
		Type:   "message",
		Status: "completed",
		Role:   "assistant",
		Content: []types.OutputContent{
			{Type: "output_text", Text: st.text.String(), Annotations: annotations},
		},
	}
}

func (t *Transformer) toolCallOutputItem(st *itemState) *types.ResponsesOutputItem {
	return &types.ResponsesOutputItem{
		ID:        st.itemID,
		Type:      "function_call",
		Status:    "completed",
		CallID:    st.callID,
		Name:      st.name,
		Arguments: st.text.String(),
	}
}

// MaterializeChat reassembles the collected deltas into one non-streaming
// chat-completion response, the intermediate shape the final Responses object
// is translated from. It is valid once the stream has ended.
func (t *Transformer) MaterializeChat() *types.ChatCompletionResponse {
	msg := types.ChatResponseMsg{Role: "assistant"}
	var toolCalls []types.ToolCall

	for _, st := range t.openOrder {
		switch st.kind {
		case kindReasoning:
			msg.ReasoningContent = st.text.String()
		case kindMessage:
			msg.Content = st.text.String()
		case kindToolCall:
			toolCalls = append(toolCalls, types.ToolCall{
				Index: len(toolCalls),
				ID:    st.callID,
				Type:  "function",
				Function: types.FunctionCall{
					Name:      st.name,
					Arguments: st.text.String(),
				},
			})
		}
	}
	msg.ToolCalls = toolCalls

	finish := t.finishReason
	if finish == "" {
		if len(toolCalls) > 0 {
			finish = "tool_calls"
		} else {
			finish = "stop"
		}
	}

	return &types.ChatCompletionResponse{
		ID:      t.responseID,
		Object:  "chat.completion",
		Created: t.createdAt,
		Model:   t.model,
		Choices: []types.ChatChoice{
			{Index: 0, Message: msg, FinishReason: types.StringPtr(finish)},
		},
		Usage: t.usage,
	}
}

// materialize translates the aggregated result into the unified Responses
// shape carried by the terminal response.completed event.
func (t *Transformer) materialize() *types.ResponsesResponse {
	output := make([]types.ResponsesOutputItem, 0, len(t.openOrder))
	for _, st := range t.openOrder {
		switch st.kind {
		case kindReasoning:
			output = append(output, *t.reasoningOutputItem(st))
		case kindMessage:
			output = append(output, *t.messageOutputItem(st))
		case kindToolCall:
			output = append(output, *t.toolCallOutputItem(st))
		}
	}

	return &types.ResponsesResponse{
		ID:        t.responseID,
		Object:    "response",
		CreatedAt: t.createdAt,
		Model:     t.model,
		Status:    "completed",
		Output:    output,
		Usage:     types.UsageFromChat(t.usage),
	}
}
