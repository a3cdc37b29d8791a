package session

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oxmal/go-llmbridge/internal/normalize"
	"github.com/oxmal/go-llmbridge/internal/types"
)

// SpendLogRow is one logged request/response pair belonging to a session.
type SpendLogRow struct {
	RequestID          string          `json:"request_id"`
	SessionID          string          `json:"session_id"`
	ProxyServerRequest json.RawMessage `json:"proxy_server_request,omitempty"`
	Response           json.RawMessage `json:"response,omitempty"`
	Metadata           json.RawMessage `json:"metadata,omitempty"`
	StartTime          time.Time       `json:"start_time"`
	EndTime            time.Time       `json:"end_time"`
}

// rowMetadata is the subset of row metadata the resolver cares about.
type rowMetadata struct {
	ColdStorageObjectKey string `json:"cold_storage_object_key"`
	RequestTruncated     bool   `json:"proxy_server_request_truncated"`
}

// LogStore looks up logged rows by request and by session.
type LogStore interface {
	// SessionForRequest returns the session id that the given request id
	// belongs to, or "" when the request id is unknown.
	SessionForRequest(ctx context.Context, requestID string) (string, error)
	// RowsForSession returns every logged row for the session.
	RowsForSession(ctx context.Context, sessionID string) ([]SpendLogRow, error)
}

// ColdStorage fetches full request payloads that were truncated at log-write
// time and offloaded under an object key.
type ColdStorage interface {
	Fetch(ctx context.Context, objectKey string) (json.RawMessage, error)
}

// Session is the reconstructed conversation history for a session id.
type Session struct {
	SessionID string              `json:"session_id"`
	Messages  []types.ChatMessage `json:"messages"`
}

// Resolver turns a previous_response_id into the full message history of the
// session that response belonged to.
type Resolver struct {
	store  LogStore
	cold   ColdStorage
	logger *slog.Logger
}

// NewResolver builds a Resolver. cold may be nil when no cold storage is
// configured; truncated rows then degrade to whatever payload was logged.
func NewResolver(store LogStore, cold ColdStorage, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, cold: cold, logger: logger}
}

// Resolve reconstructs the session history for previousResponseID. A missing
// or unknown id yields an empty session rather than an error so the caller
// can fall back to treating the request as the start of a new conversation.
func (r *Resolver) Resolve(ctx context.Context, previousResponseID string) (*Session, error) {
	if previousResponseID == "" {
		return &Session{}, nil
	}
	decoded := DecodeResponseID(previousResponseID)

	sessionID, err := r.store.SessionForRequest(ctx, decoded.ResponseID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		r.logger.Warn("previous response id not found", "response_id", decoded.ResponseID)
		return &Session{}, nil
	}

	rows, err := r.store.RowsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// Chronological order is load-bearing for the rebuilt conversation.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].EndTime.Before(rows[j].EndTime)
	})

	r.rehydrate(ctx, rows)

	sess := &Session{SessionID: sessionID}
	for _, row := range rows {
		sess.Messages = append(sess.Messages, r.rowMessages(row)...)
	}
	return sess, nil
}

// rehydrate replaces truncated request payloads with their cold-storage
// originals. Fetches run concurrently; a failed or keyless fetch leaves the
// truncated payload in place.
func (r *Resolver) rehydrate(ctx context.Context, rows []SpendLogRow) {
	if r.cold == nil {
		return
	}
	var wg sync.WaitGroup
	for i := range rows {
		meta := rows[i].metadata()
		if !rows[i].requestTruncated(meta) {
			continue
		}
		if meta.ColdStorageObjectKey == "" {
			r.logger.Warn("truncated request has no cold storage key", "request_id", rows[i].RequestID)
			continue
		}
		wg.Add(1)
		go func(row *SpendLogRow, key string) {
			defer wg.Done()
			payload, err := r.cold.Fetch(ctx, key)
			if err != nil {
				r.logger.Warn("cold storage fetch failed", "request_id", row.RequestID, "object_key", key, "error", err)
				return
			}
			row.ProxyServerRequest = payload
		}(&rows[i], meta.ColdStorageObjectKey)
	}
	wg.Wait()
}

func (row *SpendLogRow) metadata() rowMetadata {
	var meta rowMetadata
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			return rowMetadata{}
		}
	}
	return meta
}

func (row *SpendLogRow) requestTruncated(meta rowMetadata) bool {
	if meta.RequestTruncated {
		return true
	}
	return len(bytes.TrimSpace(row.ProxyServerRequest)) == 0
}

// rowMessages converts one logged row into chat messages: the request side
// through input normalization, then the assistant turn extracted from the
// stored response. Malformed rows degrade to whatever parses.
func (r *Resolver) rowMessages(row SpendLogRow) []types.ChatMessage {
	var msgs []types.ChatMessage

	if len(bytes.TrimSpace(row.ProxyServerRequest)) > 0 {
		var req types.ResponsesRequest
		if err := json.Unmarshal(row.ProxyServerRequest, &req); err != nil {
			r.logger.Warn("skipping malformed logged request", "request_id", row.RequestID, "error", err)
		} else if normalized, err := normalize.Normalize(&req); err != nil {
			r.logger.Warn("skipping unnormalizable logged request", "request_id", row.RequestID, "error", err)
		} else {
			msgs = append(msgs, normalized...)
		}
	}

	msgs = append(msgs, r.assistantMessages(row)...)
	return msgs
}

// assistantMessages extracts the assistant turn from a logged
// chat-completion response payload. Empty objects are placeholder rows and
// contribute nothing.
func (r *Resolver) assistantMessages(row SpendLogRow) []types.ChatMessage {
	trimmed := bytes.TrimSpace(row.Response)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var resp types.ChatCompletionResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		r.logger.Warn("skipping malformed logged response", "request_id", row.RequestID, "error", err)
		return nil
	}

	var msgs []types.ChatMessage
	for _, choice := range resp.Choices {
		m := choice.Message
		if m.Content == "" && len(m.ToolCalls) == 0 {
			continue
		}
		role := m.Role
		if role == "" {
			role = "assistant"
		}
		msg := types.ChatMessage{Role: role}
		if m.Content != "" {
			msg.Content = types.TextContent(m.Content)
		}
		for i, tc := range m.ToolCalls {
			tc.Index = i
			msg.ToolCalls = append(msg.ToolCalls, tc)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
