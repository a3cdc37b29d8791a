package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/oxmal/go-llmbridge/internal/config"
	"github.com/oxmal/go-llmbridge/internal/logstore"
	"github.com/oxmal/go-llmbridge/internal/normalize"
	"github.com/oxmal/go-llmbridge/internal/session"
	"github.com/oxmal/go-llmbridge/internal/sse"
	"github.com/oxmal/go-llmbridge/internal/stream"
	"github.com/oxmal/go-llmbridge/internal/types"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: go-llmbridge <command> [flags]")
		fmt.Fprintln(os.Stderr, "Commands: translate, normalize, session")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "translate":
		os.Exit(cmdTranslate())
	case "normalize":
		os.Exit(cmdNormalize())
	case "session":
		os.Exit(cmdSession())
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Commands: translate, normalize, session")
		os.Exit(1)
	}
}

// cmdTranslate reads a provider stream and writes translated SSE events to
// stdout.
func cmdTranslate() int {
	cfg := config.DefaultFromEnv()

	fs := flag.NewFlagSet("translate", flag.ExitOnError)
	model := fs.String("model", cfg.Model, "Model name to report in translated events")
	gemini := fs.Bool("gemini", false, "Treat input as a Gemini realtime stream")
	inPath := fs.String("in", "", "Provider stream file (defaults to stdin)")
	responseID := fs.String("response-id", "", "Response id to report (default: generated)")
	fs.Parse(os.Args[2:])

	setupLogging(cfg.Debug)

	in, closeIn, err := openInput(*inPath)
	if err != nil {
		slog.Error("failed to open input", "error", err)
		return 1
	}
	defer closeIn()

	transform := newTransformFunc(*gemini, *model, *responseID)

	reader := stream.NewReader(in)
	writer := sse.NewWriter(os.Stdout)
	for {
		raw, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Error("failed to read provider stream", "error", err)
			return 1
		}
		events, err := transform.Transform(raw)
		if err != nil {
			slog.Error("translation failed", "error", err)
			return 1
		}
		if err := writer.WriteEvents(events); err != nil {
			slog.Error("failed to write events", "error", err)
			return 1
		}
	}

	events, err := transform.Flush()
	if err != nil {
		slog.Error("translation failed", "error", err)
		return 1
	}
	if err := writer.WriteEvents(events); err != nil {
		slog.Error("failed to write events", "error", err)
		return 1
	}
	if err := writer.WriteDone(); err != nil {
		slog.Error("failed to write events", "error", err)
		return 1
	}
	return 0
}

// transformFunc is the common surface of the two stream translators.
type transformFunc interface {
	Transform(raw []byte) ([]types.StreamEvent, error)
	Flush() ([]types.StreamEvent, error)
}

func newTransformFunc(gemini bool, model, responseID string) transformFunc {
	now := time.Now().Unix()
	if gemini {
		return stream.NewGeminiTransformer(stream.GeminiOptions{
			Model:     model,
			CreatedAt: now,
		})
	}
	if responseID == "" {
		responseID = "resp_" + uuid.NewString()
	}
	return stream.NewTransformer(stream.Options{
		ResponseID: responseID,
		Model:      model,
		CreatedAt:  now,
	})
}

// cmdNormalize reads a request body and prints the canonical messages.
func cmdNormalize() int {
	cfg := config.DefaultFromEnv()

	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	inPath := fs.String("in", "", "Request body file (defaults to stdin)")
	fs.Parse(os.Args[2:])

	setupLogging(cfg.Debug)

	in, closeIn, err := openInput(*inPath)
	if err != nil {
		slog.Error("failed to open input", "error", err)
		return 1
	}
	defer closeIn()

	body, err := io.ReadAll(in)
	if err != nil {
		slog.Error("failed to read request body", "error", err)
		return 1
	}

	var req types.ResponsesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		slog.Error("invalid request body", "error", err)
		return 1
	}

	messages, err := normalize.Normalize(&req)
	if err != nil {
		var verr *normalize.ValidationError
		if errors.As(err, &verr) {
			slog.Error("request failed validation", "error", verr)
			return 1
		}
		slog.Error("normalization failed", "error", err)
		return 1
	}

	return printJSON(messages)
}

// cmdSession resolves a previous response id against a JSONL log file.
func cmdSession() int {
	cfg := config.DefaultFromEnv()

	fs := flag.NewFlagSet("session", flag.ExitOnError)
	logFile := fs.String("log", cfg.LogFile, "Spend log JSONL file")
	coldDir := fs.String("cold-dir", cfg.ColdStorageDir, "Cold storage directory for truncated payloads")
	id := fs.String("id", "", "Previous response id to resolve")
	fs.Parse(os.Args[2:])

	setupLogging(cfg.Debug)

	if *logFile == "" {
		slog.Error("no log file given; use -log or LLMBRIDGE_LOG_FILE")
		return 1
	}
	if *id == "" {
		slog.Error("no previous response id given; use -id")
		return 1
	}

	store := logstore.NewMemory(cfg.SessionTTL, cfg.SessionCapacity)
	defer store.Close()

	loaded, err := logstore.LoadJSONL(*logFile, store, slog.Default())
	if err != nil {
		slog.Error("failed to load log file", "error", err)
		return 1
	}
	slog.Debug("loaded spend log", "path", *logFile, "rows", loaded)

	var cold session.ColdStorage
	if *coldDir != "" {
		cold = logstore.NewDirectoryColdStorage(*coldDir)
	}

	resolver := session.NewResolver(store, cold, slog.Default())
	sess, err := resolver.Resolve(context.Background(), *id)
	if err != nil {
		slog.Error("failed to resolve session", "error", err)
		return 1
	}

	return printJSON(sess)
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("failed to encode output", "error", err)
		return 1
	}
	return 0
}
