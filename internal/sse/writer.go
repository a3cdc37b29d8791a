// Package sse frames stream events for Server-Sent-Event transports.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/oxmal/go-llmbridge/internal/types"
)

// Writer serializes stream events as SSE frames. Each event is written as an
// event: line naming the type plus a data: line with the JSON payload, and
// flushed immediately when the underlying writer supports it.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

// NewWriter creates an SSE writer over w.
func NewWriter(w io.Writer) *Writer {
	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher}
}

// WriteHeaders sets SSE response headers when w is an http.ResponseWriter.
func (s *Writer) WriteHeaders() {
	rw, ok := s.w.(http.ResponseWriter)
	if !ok {
		return
	}
	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
}

// WriteEvent writes one event frame.
func (s *Writer) WriteEvent(evt types.StreamEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", evt.Type, data); err != nil {
		return err
	}
	s.flush()
	return nil
}

// WriteEvents writes a batch of frames in order.
func (s *Writer) WriteEvents(events []types.StreamEvent) error {
	for _, evt := range events {
		if err := s.WriteEvent(evt); err != nil {
			return err
		}
	}
	return nil
}

// WriteDone writes the terminal [DONE] marker.
func (s *Writer) WriteDone() error {
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *Writer) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
