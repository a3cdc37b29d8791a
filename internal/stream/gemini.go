package stream

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/oxmal/go-llmbridge/internal/types"
)

// GeminiOptions configures a GeminiTransformer.
type GeminiOptions struct {
	Model     string
	CreatedAt int64
}

// GeminiTransformer maps the Gemini/Vertex realtime protocol onto the same
// event vocabulary as Transformer. Gemini's bidi protocol allocates no
// conversation, response, or item identifiers, so they are synthesized
// locally; the provider-native keys are looked up by field path:
//
//	setupComplete                   -> session.created
//	serverContent.modelTurn         -> text deltas
//	serverContent.generationComplete -> message item close
//	serverContent.turnComplete       -> response completed
type GeminiTransformer struct {
	model     string
	createdAt int64

	conversationID string
	sessionSent    bool

	inner *Transformer
}

// NewGeminiTransformer creates a realtime-variant state machine.
func NewGeminiTransformer(opts GeminiOptions) *GeminiTransformer {
	createdAt := opts.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	return &GeminiTransformer{
		model:          opts.Model,
		createdAt:      createdAt,
		conversationID: "conv_" + uuid.NewString(),
	}
}

// ConversationID returns the locally-synthesized conversation identifier.
func (g *GeminiTransformer) ConversationID() string {
	return g.conversationID
}

// Transform processes one raw provider message. Unrecognized top-level keys
// with no mapping are a translation error, not a skip: malformed provider
// output ends the stream.
func (g *GeminiTransformer) Transform(raw []byte) ([]types.StreamEvent, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &TranslationError{Reason: "unparsable provider message", Raw: string(raw)}
	}
	root := gjson.ParseBytes(raw)

	if root.Get("setupComplete").Exists() {
		return g.onSetupComplete(), nil
	}

	if sc := root.Get("serverContent"); sc.Exists() {
		return g.onServerContent(sc, root)
	}

	if root.Get("usageMetadata").Exists() {
		g.captureUsage(root.Get("usageMetadata"))
		return nil, nil
	}

	return nil, &TranslationError{Reason: "unrecognized provider message key", Raw: string(raw)}
}

// Flush closes any open turn at end-of-stream.
func (g *GeminiTransformer) Flush() ([]types.StreamEvent, error) {
	if g.inner == nil {
		return nil, nil
	}
	events, err := g.inner.Flush()
	g.inner = nil
	return events, err
}

func (g *GeminiTransformer) onSetupComplete() []types.StreamEvent {
	if g.sessionSent {
		return nil
	}
	g.sessionSent = true
	return []types.StreamEvent{{
		Type:           types.EventSessionCreated,
		SequenceNumber: 0,
		Session:        &types.SessionPayload{ID: g.conversationID},
	}}
}

func (g *GeminiTransformer) onServerContent(sc, root gjson.Result) ([]types.StreamEvent, error) {
	var events []types.StreamEvent

	if turn := sc.Get("modelTurn"); turn.Exists() {
		g.ensureTurn()
		for _, part := range turn.Get("parts").Array() {
			text := part.Get("text").String()
			if text == "" {
				continue
			}
			events = append(events, g.inner.ensureStarted()...)
			events = append(events, g.inner.onTextDelta(text)...)
		}
	}

	if um := root.Get("usageMetadata"); um.Exists() {
		g.captureUsage(um)
	}

	if sc.Get("generationComplete").Bool() && g.inner != nil {
		events = append(events, g.inner.closeOpen(kindMessage)...)
	}

	if sc.Get("turnComplete").Bool() {
		g.ensureTurn()
		flushed, err := g.inner.Flush()
		if err != nil {
			return nil, err
		}
		events = append(events, flushed...)
		// The realtime session may carry further turns; each one becomes its
		// own response with fresh synthesized ids.
		g.inner = nil
	}

	return events, nil
}

// ensureTurn lazily opens the per-turn state machine with synthesized ids.
func (g *GeminiTransformer) ensureTurn() {
	if g.inner != nil {
		return
	}
	g.inner = NewTransformer(Options{
		ResponseID: "resp_" + uuid.NewString(),
		Model:      g.model,
		CreatedAt:  g.createdAt,
	})
	// Realtime item ids are synthesized too; override the chat-derived form.
	g.inner.messageItemID = "item_" + uuid.NewString()
}

func (g *GeminiTransformer) captureUsage(um gjson.Result) {
	g.ensureTurn()
	g.inner.usage = &types.Usage{
		PromptTokens:     int(um.Get("promptTokenCount").Int()),
		CompletionTokens: int(um.Get("candidatesTokenCount").Int()),
		TotalTokens:      int(um.Get("totalTokenCount").Int()),
	}
}
