package stream

import (
	"io"
	"strings"
	"testing"
)

func TestReaderSSEFraming(t *testing.T) {
	input := "event: chunk\ndata: {\"a\":1}\n\n: keep-alive\ndata: {\"b\":2}\n\ndata: [DONE]\n"
	r := NewReader(strings.NewReader(input))

	first, err := r.Next()
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	if string(first) != `{"a":1}` {
		t.Fatalf("unexpected first chunk: %s", first)
	}

	second, err := r.Next()
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if string(second) != `{"b":2}` {
		t.Fatalf("unexpected second chunk: %s", second)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF at [DONE], got %v", err)
	}
}

func TestReaderBareNDJSON(t *testing.T) {
	r := NewReader(strings.NewReader("{\"a\":1}\n{\"b\":2}\n"))

	for _, want := range []string{`{"a":1}`, `{"b":2}`} {
		chunk, err := r.Next()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(chunk) != want {
			t.Fatalf("got %s want %s", chunk, want)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF at end of input, got %v", err)
	}
}
