package sse

import (
	"strings"
	"testing"

	"github.com/oxmal/go-llmbridge/internal/types"
)

func TestWriterFraming(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf)

	err := w.WriteEvent(types.StreamEvent{
		Type:           types.EventOutputTextDelta,
		SequenceNumber: 4,
		ItemID:         "msg_1",
		OutputIndex:    types.IntPtr(0),
		ContentIndex:   types.IntPtr(0),
		Delta:          types.StringPtr("hi"),
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.WriteDone(); err != nil {
		t.Fatalf("write done failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "event: response.output_text.delta\ndata: {") {
		t.Fatalf("unexpected framing: %q", out)
	}
	if !strings.Contains(out, `"sequence_number":4`) {
		t.Fatalf("sequence number missing: %q", out)
	}
	if !strings.Contains(out, `"output_index":0`) {
		t.Fatalf("zero output_index must serialize: %q", out)
	}
	if !strings.HasSuffix(out, "data: [DONE]\n\n") {
		t.Fatalf("missing terminal marker: %q", out)
	}
}

func TestWriterOmitsInactiveUnionFields(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf)

	if err := w.WriteEvent(types.StreamEvent{Type: types.EventResponseCreated}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := buf.String()
	for _, field := range []string{"item_id", "delta", "arguments", "summary_index"} {
		if strings.Contains(out, field) {
			t.Fatalf("inactive field %q leaked into frame: %q", field, out)
		}
	}
}
