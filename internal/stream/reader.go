package stream

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// Reader yields raw provider chunks from a byte stream. It accepts both SSE
// framing ("data: {...}" lines) and bare NDJSON, which covers every provider
// transport the bridge consumes.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader creates a chunk reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next raw chunk. Returns io.EOF when the stream ends or a
// terminal [DONE] marker arrives. Non-data SSE lines (event names, comments,
// blank keep-alives) are skipped.
func (r *Reader) Next() (json.RawMessage, error) {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") || strings.HasPrefix(line, "event:") {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			line = strings.TrimSpace(line[5:])
		}
		if line == "" {
			continue
		}
		if line == "[DONE]" {
			return nil, io.EOF
		}
		return json.RawMessage(line), nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
