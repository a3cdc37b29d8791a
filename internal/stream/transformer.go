// Package stream rebuilds Responses API streaming events from provider-native
// chat-completion chunk streams.
package stream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oxmal/go-llmbridge/internal/types"
)

// TranslationError reports a recognized-but-unparsable provider stream
// message, or per-item state missing when constructing a done event. It is
// fatal to the one response stream it occurs on.
type TranslationError struct {
	Reason string
	Raw    string
}

func (e *TranslationError) Error() string {
	if e.Raw == "" {
		return "stream translation: " + e.Reason
	}
	return fmt.Sprintf("stream translation: %s (payload: %s)", e.Reason, truncatePayload(e.Raw))
}

// Options configures a Transformer.
type Options struct {
	// ResponseID overrides the response id; when empty the id comes from the
	// first chunk, or is synthesized if the provider sends none.
	ResponseID string
	Model      string
	CreatedAt  int64
}

// Transformer is the streaming reconstruction state machine for one response.
// It consumes provider chunks one Transform call at a time and emits typed
// Responses events in the contract order: created and in_progress first, then
// per-item added/delta sequences with kind switches closing the previous item
// before the next one is announced, then the terminal completed event from
// Flush. A Transformer serves exactly one logical response stream and is not
// safe for concurrent use.
type Transformer struct {
	model      string
	responseID string
	createdAt  int64

	seq     int
	started bool

	reasoning *itemState
	message   *itemState
	tools     map[string]*itemState
	toolIndex map[int]string // provider tool_calls index -> call id

	// messageItemID overrides the message item id when the caller allocates
	// ids itself (the realtime variant synthesizes item_<uuid> ids).
	messageItemID string

	// openOrder records every item in the order it was opened; closing on
	// kind switch and at end-of-stream follows this order.
	openOrder       []*itemState
	nextOutputIndex int

	// annotations that arrived before any message item opened; an
	// annotation-only chunk must not force a close, so they wait here.
	pendingAnnotations []types.Annotation

	usage        *types.Usage
	finishReason string
}

// NewTransformer creates a state machine for one response stream.
func NewTransformer(opts Options) *Transformer {
	createdAt := opts.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	return &Transformer{
		model:      opts.Model,
		responseID: opts.ResponseID,
		createdAt:  createdAt,
		tools:      make(map[string]*itemState),
		toolIndex:  make(map[int]string),
	}
}

// Transform processes one raw provider chunk and returns the events it
// produces, which may be none. Malformed provider output is not a transient
// condition: errors here end the stream.
func (t *Transformer) Transform(raw []byte) ([]types.StreamEvent, error) {
	var chunk types.ChatCompletionChunk
	if err := json.Unmarshal(raw, &chunk); err != nil {
		return nil, &TranslationError{Reason: "unparsable provider chunk: " + err.Error(), Raw: string(raw)}
	}
	if chunk.ID == "" && len(chunk.Choices) == 0 && chunk.Usage == nil {
		return nil, &TranslationError{Reason: "provider chunk has no recognized fields", Raw: string(raw)}
	}
	return t.transformChunk(&chunk)
}

func (t *Transformer) transformChunk(chunk *types.ChatCompletionChunk) ([]types.StreamEvent, error) {
	var events []types.StreamEvent

	if t.responseID == "" {
		t.responseID = chunk.ID
	}
	events = append(events, t.ensureStarted()...)

	if chunk.Usage != nil {
		t.usage = chunk.Usage
	}
	if len(chunk.Choices) == 0 {
		return events, nil
	}

	choice := chunk.Choices[0]
	if choice.FinishReason != nil && *choice.FinishReason != "" {
		t.finishReason = *choice.FinishReason
	}
	delta := choice.Delta

	if delta.ReasoningContent != "" {
		events = append(events, t.onReasoningDelta(delta.ReasoningContent)...)
	}
	if delta.Content != "" {
		events = append(events, t.onTextDelta(delta.Content)...)
	}
	for _, tc := range delta.ToolCalls {
		toolEvents, err := t.onToolCallDelta(tc)
		if err != nil {
			return nil, err
		}
		events = append(events, toolEvents...)
	}
	for _, ann := range delta.Annotations {
		events = append(events, t.onAnnotation(ann)...)
	}

	return events, nil
}

// Flush ends the stream: it closes every still-open item in the order the
// items were opened, materializes the aggregate response, and emits the
// terminal response.completed event.
func (t *Transformer) Flush() ([]types.StreamEvent, error) {
	events := t.ensureStarted()
	events = append(events, t.closeOpen(kindReasoning, kindMessage, kindToolCall)...)

	resp := t.materialize()
	events = append(events, types.StreamEvent{
		Type:           types.EventResponseCompleted,
		SequenceNumber: t.nextSeq(),
		Response:       resp,
	})
	return events, nil
}

func (t *Transformer) ensureStarted() []types.StreamEvent {
	if t.started {
		return nil
	}
	t.started = true
	if t.responseID == "" {
		t.responseID = "resp_" + uuid.NewString()
	}
	snapshot := &types.ResponsesResponse{
		ID:        t.responseID,
		Object:    "response",
		CreatedAt: t.createdAt,
		Model:     t.model,
		Status:    "in_progress",
		Output:    []types.ResponsesOutputItem{},
	}
	return []types.StreamEvent{
		{Type: types.EventResponseCreated, SequenceNumber: t.nextSeq(), Response: snapshot},
		{Type: types.EventResponseInProgress, SequenceNumber: t.nextSeq(), Response: snapshot},
	}
}

func (t *Transformer) onReasoningDelta(delta string) []types.StreamEvent {
	var events []types.StreamEvent
	if t.reasoning == nil || t.reasoning.closed {
		events = append(events, t.closeOpen(kindMessage, kindToolCall)...)

		st := &itemState{
			kind:        kindReasoning,
			itemID:      reasoningItemID(delta),
			outputIndex: t.nextOutputIndex,
		}
		t.nextOutputIndex++
		t.reasoning = st
		t.openOrder = append(t.openOrder, st)

		events = append(events, types.StreamEvent{
			Type:           types.EventOutputItemAdded,
			SequenceNumber: t.nextSeq(),
			OutputIndex:    types.IntPtr(st.outputIndex),
			Item: &types.ResponsesOutputItem{
				ID:     st.itemID,
				Type:   "reasoning",
				Status: "in_progress",
			},
		})
		events = append(events, types.StreamEvent{
			Type:           types.EventReasoningSummaryPartAdded,
			SequenceNumber: t.nextSeq(),
			ItemID:         st.itemID,
			OutputIndex:    types.IntPtr(st.outputIndex),
			SummaryIndex:   types.IntPtr(0),
			Part:           &types.PartPayload{Type: "summary_text"},
		})
	}

	st := t.reasoning
	st.text.WriteString(delta)
	events = append(events, types.StreamEvent{
		Type:           types.EventReasoningSummaryTextDelta,
		SequenceNumber: t.nextSeq(),
		ItemID:         st.itemID,
		OutputIndex:    types.IntPtr(st.outputIndex),
		SummaryIndex:   types.IntPtr(0),
		Delta:          types.StringPtr(delta),
	})
	return events
}

func (t *Transformer) onTextDelta(delta string) []types.StreamEvent {
	var events []types.StreamEvent
	if t.message == nil || t.message.closed {
		events = append(events, t.closeOpen(kindReasoning, kindToolCall)...)
		events = append(events, t.openMessageItem()...)
	}

	st := t.message
	st.text.WriteString(delta)
	events = append(events, types.StreamEvent{
		Type:           types.EventOutputTextDelta,
		SequenceNumber: t.nextSeq(),
		ItemID:         st.itemID,
		OutputIndex:    types.IntPtr(st.outputIndex),
		ContentIndex:   types.IntPtr(0),
		Delta:          types.StringPtr(delta),
	})
	return events
}

// openMessageItem announces the message item and its text content part, then
// drains any annotations that were waiting for the item to exist.
func (t *Transformer) openMessageItem() []types.StreamEvent {
	itemID := t.messageItemID
	if itemID == "" {
		itemID = "msg_" + t.responseID
	}
	st := &itemState{
		kind:        kindMessage,
		itemID:      itemID,
		outputIndex: t.nextOutputIndex,
	}
	t.nextOutputIndex++
	t.message = st
	t.openOrder = append(t.openOrder, st)

	events := []types.StreamEvent{
		{
			Type:           types.EventOutputItemAdded,
			SequenceNumber: t.nextSeq(),
			OutputIndex:    types.IntPtr(st.outputIndex),
			Item: &types.ResponsesOutputItem{
				ID:     st.itemID,
				Type:   "message",
				Status: "in_progress",
				Role:   "assistant",
			},
		},
		{
			Type:           types.EventContentPartAdded,
			SequenceNumber: t.nextSeq(),
			ItemID:         st.itemID,
			OutputIndex:    types.IntPtr(st.outputIndex),
			ContentIndex:   types.IntPtr(0),
			Part:           &types.PartPayload{Type: "output_text"},
		},
	}

	for _, ann := range t.pendingAnnotations {
		events = append(events, t.emitAnnotation(st, ann))
	}
	t.pendingAnnotations = nil
	return events
}

func (t *Transformer) onToolCallDelta(tc types.ToolCall) ([]types.StreamEvent, error) {
	callID := tc.ID
	if callID == "" {
		mapped, ok := t.toolIndex[tc.Index]
		if !ok {
			return nil, &TranslationError{
				Reason: fmt.Sprintf("tool call delta for index %d arrived before its opening chunk", tc.Index),
			}
		}
		callID = mapped
	} else {
		t.toolIndex[tc.Index] = callID
	}

	var events []types.StreamEvent
	st, ok := t.tools[callID]
	if !ok {
		// A new tool call closes the open reasoning/message item but leaves
		// sibling tool calls streaming.
		events = append(events, t.closeOpen(kindReasoning, kindMessage)...)

		st = &itemState{
			kind:        kindToolCall,
			itemID:      "fc_" + callID,
			outputIndex: t.nextOutputIndex,
			callID:      callID,
			name:        tc.Function.Name,
		}
		t.nextOutputIndex++
		t.tools[callID] = st
		t.openOrder = append(t.openOrder, st)

		events = append(events, types.StreamEvent{
			Type:           types.EventOutputItemAdded,
			SequenceNumber: t.nextSeq(),
			OutputIndex:    types.IntPtr(st.outputIndex),
			Item: &types.ResponsesOutputItem{
				ID:     st.itemID,
				Type:   "function_call",
				Status: "in_progress",
				CallID: st.callID,
				Name:   st.name,
			},
		})
	}
	if st.closed {
		return nil, &TranslationError{
			Reason: fmt.Sprintf("tool call delta for closed call %s", callID),
		}
	}
	if st.name == "" && tc.Function.Name != "" {
		st.name = tc.Function.Name
	}

	if tc.Function.Arguments != "" {
		st.text.WriteString(tc.Function.Arguments)
		events = append(events, types.StreamEvent{
			Type:           types.EventFunctionCallArgumentsDelta,
			SequenceNumber: t.nextSeq(),
			ItemID:         st.itemID,
			OutputIndex:    types.IntPtr(st.outputIndex),
			Delta:          types.StringPtr(tc.Function.Arguments),
		})
	}
	return events, nil
}

func (t *Transformer) onAnnotation(ann types.ChatAnnotation) []types.StreamEvent {
	converted := flattenAnnotation(ann)
	if t.message == nil || t.message.closed {
		// No open message item yet; hold the annotation rather than forcing
		// an item transition for a content-free chunk.
		t.pendingAnnotations = append(t.pendingAnnotations, converted)
		return nil
	}
	return []types.StreamEvent{t.emitAnnotation(t.message, converted)}
}

func (t *Transformer) emitAnnotation(st *itemState, ann types.Annotation) types.StreamEvent {
	evt := types.StreamEvent{
		Type:            types.EventOutputTextAnnotation,
		SequenceNumber:  t.nextSeq(),
		ItemID:          st.itemID,
		OutputIndex:     types.IntPtr(st.outputIndex),
		ContentIndex:    types.IntPtr(0),
		AnnotationIndex: types.IntPtr(len(st.annotations)),
		Annotation:      &ann,
	}
	st.annotations = append(st.annotations, ann)
	return evt
}

func flattenAnnotation(ann types.ChatAnnotation) types.Annotation {
	out := types.Annotation{Type: ann.Type}
	if ann.URLCitation != nil {
		out.URL = ann.URLCitation.URL
		out.Title = ann.URLCitation.Title
		out.StartIndex = ann.URLCitation.StartIndex
		out.EndIndex = ann.URLCitation.EndIndex
	}
	return out
}

// closeOpen closes every still-open item of the given kinds, in the order the
// items were opened.
func (t *Transformer) closeOpen(kinds ...itemKind) []types.StreamEvent {
	var events []types.StreamEvent
	for _, st := range t.openOrder {
		if st.closed || !kindIn(st.kind, kinds) {
			continue
		}
		events = append(events, t.closeItem(st)...)
	}
	return events
}

func (t *Transformer) closeItem(st *itemState) []types.StreamEvent {
	st.closed = true
	full := st.text.String()

	switch st.kind {
	case kindReasoning:
		return []types.StreamEvent{
			{
				Type:           types.EventReasoningSummaryTextDone,
				SequenceNumber: t.nextSeq(),
				ItemID:         st.itemID,
				OutputIndex:    types.IntPtr(st.outputIndex),
				SummaryIndex:   types.IntPtr(0),
				Text:           types.StringPtr(full),
			},
			{
				Type:           types.EventReasoningSummaryPartDone,
				SequenceNumber: t.nextSeq(),
				ItemID:         st.itemID,
				OutputIndex:    types.IntPtr(st.outputIndex),
				SummaryIndex:   types.IntPtr(0),
				Part:           &types.PartPayload{Type: "summary_text", Text: full},
			},
			{
				Type:           types.EventOutputItemDone,
				SequenceNumber: t.nextSeq(),
				OutputIndex:    types.IntPtr(st.outputIndex),
				Item:           t.reasoningOutputItem(st),
			},
		}

	case kindMessage:
		return []types.StreamEvent{
			{
				Type:           types.EventOutputTextDone,
				SequenceNumber: t.nextSeq(),
				ItemID:         st.itemID,
				OutputIndex:    types.IntPtr(st.outputIndex),
				ContentIndex:   types.IntPtr(0),
				Text:           types.StringPtr(full),
			},
			{
				Type:           types.EventContentPartDone,
				SequenceNumber: t.nextSeq(),
				ItemID:         st.itemID,
				OutputIndex:    types.IntPtr(st.outputIndex),
				ContentIndex:   types.IntPtr(0),
				Part:           &types.PartPayload{Type: "output_text", Text: full, Annotations: st.annotations},
			},
			{
				Type:           types.EventOutputItemDone,
				SequenceNumber: t.nextSeq(),
				OutputIndex:    types.IntPtr(st.outputIndex),
				Item:           t.messageOutputItem(st),
			},
		}

	default: // kindToolCall
		return []types.StreamEvent{
			{
				Type:           types.EventFunctionCallArgumentsDone,
				SequenceNumber: t.nextSeq(),
				ItemID:         st.itemID,
				OutputIndex:    types.IntPtr(st.outputIndex),
				Arguments:      types.StringPtr(full),
			},
			{
				Type:           types.EventOutputItemDone,
				SequenceNumber: t.nextSeq(),
				OutputIndex:    types.IntPtr(st.outputIndex),
				Item:           t.toolCallOutputItem(st),
			},
		}
	}
}

func (t *Transformer) nextSeq() int {
	n := t.seq
	t.seq++
	return n
}

func kindIn(k itemKind, kinds []itemKind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func truncatePayload(s string) string {
	const max = 300
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
