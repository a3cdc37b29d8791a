package session

import (
	"encoding/base64"
	"testing"
)

func TestDecodeResponseIDRoundTrip(t *testing.T) {
	encoded := EncodeResponseID("chatcmpl-abc123", map[string]string{"model_group": "gpt-4o"})

	decoded := DecodeResponseID(encoded)
	if decoded.ResponseID != "chatcmpl-abc123" {
		t.Fatalf("unexpected response id: %q", decoded.ResponseID)
	}
	if decoded.Metadata["model_group"] != "gpt-4o" {
		t.Fatalf("unexpected metadata: %+v", decoded.Metadata)
	}
}

func TestDecodeResponseIDNativePassthrough(t *testing.T) {
	for _, id := range []string{
		"chatcmpl-xyz",
		"resp_not base64 at all!",
		"",
	} {
		decoded := DecodeResponseID(id)
		if decoded.ResponseID != id {
			t.Fatalf("native id %q should pass through, got %q", id, decoded.ResponseID)
		}
	}
}

func TestDecodeResponseIDWithoutResponseIDKey(t *testing.T) {
	// Decodable payload with no response_id pair is not composite.
	encoded := "resp_" + base64.URLEncoding.EncodeToString([]byte("foo=bar"))
	decoded := DecodeResponseID(encoded)
	if decoded.ResponseID != encoded {
		t.Fatalf("expected passthrough, got %q", decoded.ResponseID)
	}
}
