package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	"github.com/kailas-cloud/lookbook/internal/domain/media"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func chatServer(t *testing.T, reply string, inspect func(chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if inspect != nil {
			inspect(req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

func newTestGenerator(url string, jsonMode bool) *Generator {
	return NewGenerator(&GeneratorConfig{
		APIKey:   "test-key",
		BaseURL:  url,
		Model:    "vision-model",
		JSONMode: jsonMode,
		Logger:   zap.NewNop(),
	})
}

func TestGenerator_TextOnly(t *testing.T) {
	server := chatServer(t, `{"category":"decor","searchTerms":["rattan lamp"]}`, func(req chatRequest) {
		if req.Model != "vision-model" {
			t.Errorf("model = %q", req.Model)
		}
		var content string
		if err := json.Unmarshal(req.Messages[0].Content, &content); err != nil {
			t.Errorf("text-only prompt must be plain string content: %s", req.Messages[0].Content)
		}
		if content != "describe" {
			t.Errorf("content = %q", content)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Error("json mode not requested")
		}
	})
	defer server.Close()

	out, err := newTestGenerator(server.URL, true).Generate(context.Background(), "describe", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "rattan lamp") {
		t.Errorf("reply = %q", out)
	}
}

func TestGenerator_ImageParts(t *testing.T) {
	server := chatServer(t, "ok", func(req chatRequest) {
		var parts []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL struct {
				URL string `json:"url"`
			} `json:"image_url"`
		}
		if err := json.Unmarshal(req.Messages[0].Content, &parts); err != nil {
			t.Fatalf("expected multi-part content: %v", err)
		}
		if len(parts) != 3 {
			t.Fatalf("parts = %d, want 3", len(parts))
		}
		if parts[0].Type != "text" || parts[0].Text != "what is this" {
			t.Errorf("part 0 = %+v", parts[0])
		}
		if parts[1].ImageURL.URL != "https://host/v1/media/a" {
			t.Errorf("part 1 url = %q", parts[1].ImageURL.URL)
		}
		if !strings.HasPrefix(parts[2].ImageURL.URL, "data:image/png;base64,") {
			t.Errorf("part 2 url = %q", parts[2].ImageURL.URL)
		}
		if req.ResponseFormat != nil {
			t.Error("json mode must be off")
		}
	})
	defer server.Close()

	parts := []media.Part{
		{Kind: media.PartURL, URL: "https://host/v1/media/a", ContentType: "image/jpeg"},
		{Kind: media.PartInline, ContentType: "image/png", Data: []byte("png-bytes")},
	}
	if _, err := newTestGenerator(server.URL, false).Generate(context.Background(), "what is this", parts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerator_EmptyReply(t *testing.T) {
	server := chatServer(t, "   ", nil)
	defer server.Close()

	_, err := newTestGenerator(server.URL, false).Generate(context.Background(), "p", nil)
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "cannot fetch image url", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	parts := []media.Part{{Kind: media.PartURL, URL: "https://unreachable/img"}}
	_, err := newTestGenerator(server.URL, false).Generate(context.Background(), "p", parts)
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestBuildMessage_InvalidParts(t *testing.T) {
	tests := []media.Part{
		{Kind: media.PartURL},
		{Kind: media.PartInline},
		{Kind: media.PartKind(9), URL: "x"},
	}
	for _, p := range tests {
		if _, err := buildMessage("p", []media.Part{p}); err == nil {
			t.Errorf("expected error for %+v", p)
		}
	}
}

func TestDataURI_SniffsWhenUndeclared(t *testing.T) {
	gif := []byte("GIF89a\x01\x00\x01\x00")
	if got := dataURI("", gif); !strings.HasPrefix(got, "data:image/gif;base64,") {
		t.Errorf("dataURI = %q", got)
	}
}
