package stream

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/oxmal/go-llmbridge/internal/types"
)

// itemKind classifies the logically-open output items of one response.
type itemKind int

const (
	kindReasoning itemKind = iota
	kindMessage
	kindToolCall
)

// itemState is one open output item. The item id is assigned when the item
// opens and every later event for the item carries it unchanged until the
// item's done event.
type itemState struct {
	kind        itemKind
	itemID      string
	outputIndex int
	text        strings.Builder
	closed      bool

	// tool-call fields
	callID string
	name   string

	// message fields
	annotations []types.Annotation
}

// reasoningItemID derives a stable reasoning item id from the first delta's
// content. The hash keeps the id deterministic across retries of the same
// stream while staying unique per response content.
func reasoningItemID(firstDelta string) string {
	sum := sha256.Sum256([]byte(firstDelta))
	return "rs_" + hex.EncodeToString(sum[:])[:24]
}
