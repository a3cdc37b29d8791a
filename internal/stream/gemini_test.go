package stream

import (
	"strings"
	"testing"

	"github.com/oxmal/go-llmbridge/internal/types"
)

func feedGemini(t *testing.T, g *GeminiTransformer, messages ...string) []types.StreamEvent {
	t.Helper()
	var events []types.StreamEvent
	for _, msg := range messages {
		out, err := g.Transform([]byte(msg))
		if err != nil {
			t.Fatalf("transform failed on %s: %v", msg, err)
		}
		events = append(events, out...)
	}
	return events
}

func TestGeminiSetupCompleteCreatesSession(t *testing.T) {
	g := NewGeminiTransformer(GeminiOptions{Model: "gemini-2.0-flash", CreatedAt: 1})
	events := feedGemini(t, g, `{"setupComplete":{}}`)

	if len(events) != 1 || events[0].Type != types.EventSessionCreated {
		t.Fatalf("unexpected events: %+v", events)
	}
	if !strings.HasPrefix(events[0].Session.ID, "conv_") {
		t.Fatalf("session id prefix: %q", events[0].Session.ID)
	}
	if events[0].Session.ID != g.ConversationID() {
		t.Fatal("session event should carry the synthesized conversation id")
	}

	// Duplicate handshake is idempotent.
	if again := feedGemini(t, g, `{"setupComplete":{}}`); len(again) != 0 {
		t.Fatalf("second setupComplete should emit nothing: %+v", again)
	}
}

func TestGeminiModelTurnToCompletion(t *testing.T) {
	g := NewGeminiTransformer(GeminiOptions{Model: "gemini-2.0-flash", CreatedAt: 1})
	events := feedGemini(t, g,
		`{"setupComplete":{}}`,
		`{"serverContent":{"modelTurn":{"parts":[{"text":"Hel"}]}}}`,
		`{"serverContent":{"modelTurn":{"parts":[{"text":"lo"}]},"generationComplete":true}}`,
		`{"serverContent":{"turnComplete":true},"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":2,"totalTokenCount":7}}`,
	)

	want := []string{
		types.EventSessionCreated,
		types.EventResponseCreated,
		types.EventResponseInProgress,
		types.EventOutputItemAdded,
		types.EventContentPartAdded,
		types.EventOutputTextDelta,
		types.EventOutputTextDelta,
		types.EventOutputTextDone,
		types.EventContentPartDone,
		types.EventOutputItemDone,
		types.EventResponseCompleted,
	}
	got := eventTypes(events)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("event order:\n got %v\nwant %v", got, want)
	}

	if !strings.HasPrefix(events[1].Response.ID, "resp_") {
		t.Fatalf("response id prefix: %q", events[1].Response.ID)
	}
	if !strings.HasPrefix(events[3].Item.ID, "item_") {
		t.Fatalf("item id prefix: %q", events[3].Item.ID)
	}

	final := events[len(events)-1].Response
	if final.Output[0].Content[0].Text != "Hello" {
		t.Fatalf("unexpected final text: %+v", final.Output[0])
	}
	if final.Usage == nil || final.Usage.InputTokens != 5 || final.Usage.OutputTokens != 2 || final.Usage.TotalTokens != 7 {
		t.Fatalf("unexpected usage: %+v", final.Usage)
	}
}

func TestGeminiEachTurnGetsFreshIDs(t *testing.T) {
	g := NewGeminiTransformer(GeminiOptions{Model: "gemini-2.0-flash", CreatedAt: 1})
	first := feedGemini(t, g,
		`{"serverContent":{"modelTurn":{"parts":[{"text":"one"}]}}}`,
		`{"serverContent":{"turnComplete":true}}`,
	)
	second := feedGemini(t, g,
		`{"serverContent":{"modelTurn":{"parts":[{"text":"two"}]}}}`,
		`{"serverContent":{"turnComplete":true}}`,
	)

	firstID := first[0].Response.ID
	secondID := second[0].Response.ID
	if firstID == secondID {
		t.Fatalf("turns share a response id: %q", firstID)
	}
	// Sequence numbers restart with each response.
	if second[0].SequenceNumber != 0 {
		t.Fatalf("second turn should restart sequence numbers, got %d", second[0].SequenceNumber)
	}
}

func TestGeminiUnrecognizedKeyFails(t *testing.T) {
	g := NewGeminiTransformer(GeminiOptions{CreatedAt: 1})
	_, err := g.Transform([]byte(`{"toolCall":{"functionCalls":[]}}`))
	if err == nil {
		t.Fatal("expected error for unmapped provider message")
	}
	terr, ok := err.(*TranslationError)
	if !ok {
		t.Fatalf("expected *TranslationError, got %T", err)
	}
	if terr.Raw == "" {
		t.Fatal("translation error should carry the raw payload")
	}
}

func TestGeminiInvalidJSONFails(t *testing.T) {
	g := NewGeminiTransformer(GeminiOptions{CreatedAt: 1})
	if _, err := g.Transform([]byte(`{broken`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestGeminiFlushClosesOpenTurn(t *testing.T) {
	g := NewGeminiTransformer(GeminiOptions{Model: "gemini-2.0-flash", CreatedAt: 1})
	feedGemini(t, g, `{"serverContent":{"modelTurn":{"parts":[{"text":"dangling"}]}}}`)

	events, err := g.Flush()
	if err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	last := events[len(events)-1]
	if last.Type != types.EventResponseCompleted {
		t.Fatalf("expected terminal completed event, got %q", last.Type)
	}
	if last.Response.Output[0].Content[0].Text != "dangling" {
		t.Fatalf("unexpected output: %+v", last.Response.Output)
	}

	// Nothing left to close afterwards.
	if again, _ := g.Flush(); len(again) != 0 {
		t.Fatalf("second flush should emit nothing: %+v", again)
	}
}
