package openaicompat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestBuildParams_PreservesOrder(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "Be brief"},
		{Role: "user", Content: "Hi"},
		{Role: "assistant", Content: "Hello"},
		{Role: "user", Content: "Bye"},
	}
	params, err := buildParams(messages, "llama3-8b-8192", map[string]any{"max_tokens": 256})
	if err != nil {
		t.Fatalf("buildParams() error: %v", err)
	}
	if string(params.Model) != "llama3-8b-8192" {
		t.Errorf("Model = %q, want llama3-8b-8192", params.Model)
	}
	if len(params.Messages) != 4 {
		t.Fatalf("len(Messages) = %d, want 4", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil || params.Messages[2].OfAssistant == nil {
		t.Error("message roles not mapped in order")
	}
}

func TestBuildParams_UnknownRole(t *testing.T) {
	_, err := buildParams([]Message{{Role: "tool", Content: "x"}}, "m", nil)
	if err == nil {
		t.Fatal("buildParams() expected error for unknown role")
	}
}

func TestProvider_ChatRoundTrip(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer gsk-test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var reqBody struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(reqBody.Messages) != 2 || reqBody.Messages[0].Role != "system" || reqBody.Messages[1].Role != "user" {
			http.Error(w, "unexpected messages", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   reqBody.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "*All good.*"},
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
		})
	}))
	defer server.Close()

	p := NewProvider("gsk-test", server.URL, "llama3-8b-8192")
	resp, err := p.Chat(t.Context(), []Message{
		{Role: "system", Content: "Be brief"},
		{Role: "user", Content: "Hi"},
	}, "llama3-8b-8192", nil)
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if resp.Content != "*All good.*" {
		t.Errorf("Content = %q, want %q", resp.Content, "*All good.*")
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", resp.Usage.TotalTokens)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}
}

func TestProvider_ErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"upstream overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	p := NewProvider("gsk-test", server.URL, "llama3-8b-8192")
	_, err := p.Chat(t.Context(), []Message{{Role: "user", Content: "Hi"}}, "llama3-8b-8192", nil)
	if err == nil {
		t.Fatal("Chat() expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}
}

func TestProvider_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	p := NewProvider("gsk-test", server.URL, "m")
	if _, err := p.Chat(t.Context(), []Message{{Role: "user", Content: "Hi"}}, "m", nil); err == nil {
		t.Fatal("Chat() expected error for empty choices")
	}
}

func TestProvider_GetDefaultModel(t *testing.T) {
	p := NewProvider("k", "", "llama3-8b-8192")
	if got := p.GetDefaultModel(); got != "llama3-8b-8192" {
		t.Errorf("GetDefaultModel() = %q, want llama3-8b-8192", got)
	}
}
