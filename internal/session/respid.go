package session

import (
	"encoding/base64"
	"strings"
)

// DecodedResponseID is the result of unpacking a previous-response identifier.
// Client-facing response ids embed provider routing metadata next to the
// provider's native response id so a follow-up request can be routed without
// a lookup; the metadata rides as ;-separated k=v pairs.
type DecodedResponseID struct {
	ResponseID string
	Metadata   map[string]string
}

// DecodeResponseID unpacks an encoded previous-response id. Identifiers that
// do not carry an encoded payload pass through unchanged as native response
// ids: an undecodable id is not an error, it is simply not composite.
func DecodeResponseID(encoded string) DecodedResponseID {
	payload := strings.TrimPrefix(encoded, "resp_")
	decoded, err := decodeBase64(payload)
	if err != nil {
		return DecodedResponseID{ResponseID: encoded}
	}

	fields := strings.Split(decoded, ";")
	meta := make(map[string]string, len(fields))
	for _, field := range fields {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	native, ok := meta["response_id"]
	if !ok || native == "" {
		return DecodedResponseID{ResponseID: encoded}
	}
	delete(meta, "response_id")
	return DecodedResponseID{ResponseID: native, Metadata: meta}
}

func decodeBase64(s string) (string, error) {
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding,
		base64.RawURLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return string(b), nil
		}
	}
	return "", base64.CorruptInputError(0)
}

// EncodeResponseID packs a native response id and routing metadata into the
// opaque client-facing form. Inverse of DecodeResponseID; used by tests and
// by callers that mint ids.
func EncodeResponseID(responseID string, metadata map[string]string) string {
	var b strings.Builder
	b.WriteString("response_id=")
	b.WriteString(responseID)
	for k, v := range metadata {
		b.WriteString(";")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(v)
	}
	return "resp_" + base64.URLEncoding.EncodeToString([]byte(b.String()))
}
