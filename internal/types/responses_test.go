package types

import (
	"encoding/json"
	"testing"
)

func parseInput(t *testing.T, raw string) []ResponsesInputItem {
	t.Helper()
	items, err := ParseInputValue(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return items
}

func TestParseInputBareString(t *testing.T) {
	items := parseInput(t, `"hello"`)

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Type != "message" || item.Role != "user" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if len(item.Content) != 1 || item.Content[0].Type != "input_text" || item.Content[0].Text != "hello" {
		t.Fatalf("unexpected content: %+v", item.Content)
	}
}

func TestParseInputNull(t *testing.T) {
	items := parseInput(t, `null`)
	if items != nil {
		t.Fatalf("expected nil items, got %+v", items)
	}
}

func TestParseInputItemList(t *testing.T) {
	items := parseInput(t, `[
		{"type":"message","role":"user","content":[{"type":"input_text","text":"hi"}]},
		{"type":"function_call","call_id":"call_1","name":"ls","arguments":"{}"},
		{"type":"function_call_output","call_id":"call_1","output":"a.txt"}
	]`)

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[1].Type != "function_call" || items[1].CallID != "call_1" || items[1].Name != "ls" {
		t.Fatalf("unexpected function_call: %+v", items[1])
	}
	if items[2].Type != "function_call_output" || items[2].Output != "a.txt" {
		t.Fatalf("unexpected output item: %+v", items[2])
	}
}

func TestParseInputItemWithoutTypeDefaultsToMessage(t *testing.T) {
	items := parseInput(t, `[{"role":"user","content":"untyped"}]`)

	if len(items) != 1 || items[0].Type != "message" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].Content[0].Type != "input_text" {
		t.Fatalf("unexpected content kind: %+v", items[0].Content)
	}
}

func TestParseInputAssistantStringContentBecomesOutputText(t *testing.T) {
	items := parseInput(t, `[{"type":"message","role":"assistant","content":"done"}]`)

	if items[0].Content[0].Type != "output_text" {
		t.Fatalf("assistant string content should be output_text: %+v", items[0].Content)
	}
}

func TestParseInputChatShapedAssistantToolCalls(t *testing.T) {
	items := parseInput(t, `[{"role":"assistant","content":null,"tool_calls":[
		{"id":"call_1","type":"function","function":{"name":"read","arguments":"{\"p\":1}"}},
		{"id":"call_2","type":"function","function":{"name":"write","arguments":"{}"}}
	]}]`)

	if len(items) != 3 {
		t.Fatalf("expected message + 2 calls, got %d: %+v", len(items), items)
	}
	if items[0].Type != "message" || len(items[0].Content) != 0 {
		t.Fatalf("unexpected leading message: %+v", items[0])
	}
	if items[1].Type != "function_call" || items[1].CallID != "call_1" || items[1].Name != "read" {
		t.Fatalf("unexpected first call: %+v", items[1])
	}
	if items[2].CallID != "call_2" {
		t.Fatalf("unexpected second call: %+v", items[2])
	}
}

func TestParseInputChatShapedToolMessage(t *testing.T) {
	items := parseInput(t, `[{"role":"tool","tool_call_id":"call_9","content":"result text"}]`)

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Type != "function_call_output" || items[0].CallID != "call_9" || items[0].Output != "result text" {
		t.Fatalf("unexpected item: %+v", items[0])
	}
}

func TestParseInputFunctionCallOutputBlockList(t *testing.T) {
	items := parseInput(t, `[{"type":"function_call_output","call_id":"c","output":[
		{"type":"output_text","text":"part one"},
		{"type":"output_text","text":" part two"}
	]}]`)

	if items[0].Output != "part one part two" {
		t.Fatalf("blocks should concatenate in order: %q", items[0].Output)
	}
}

func TestParseInputUnknownItemType(t *testing.T) {
	_, err := ParseInputValue(json.RawMessage(`[{"type":"widget"}]`))
	if err == nil {
		t.Fatal("expected error for unknown item type")
	}
	if _, ok := err.(*InputShapeError); !ok {
		t.Fatalf("expected *InputShapeError, got %T", err)
	}
}

func TestParseInputRejectsObjects(t *testing.T) {
	_, err := ParseInputValue(json.RawMessage(`{"not":"a list"}`))
	if err == nil {
		t.Fatal("expected error for object input")
	}
}

func TestParseInputReasoningItemPreserved(t *testing.T) {
	items := parseInput(t, `[{"type":"reasoning","id":"rs_1","status":"completed"}]`)

	if len(items) != 1 || items[0].Type != "reasoning" || items[0].ID != "rs_1" {
		t.Fatalf("unexpected items: %+v", items)
	}
}
