package logstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/oxmal/go-llmbridge/internal/session"
)

// LoadJSONL reads spend log rows from a JSONL file and appends them to the
// store. Blank lines are skipped; malformed lines are logged and skipped so
// one bad row does not poison a replay. Returns the number of rows loaded.
func LoadJSONL(path string, store *Memory, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 4*1024*1024)

	loaded := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row session.SpendLogRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			logger.Warn("skipping malformed log line", "path", path, "line", lineNo, "error", err)
			continue
		}
		if row.SessionID == "" {
			logger.Warn("skipping log line without session id", "path", path, "line", lineNo)
			continue
		}
		store.Append(row)
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("scan log file: %w", err)
	}
	return loaded, nil
}
