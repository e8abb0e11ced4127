package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultClientConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = "test-key"
	cfg.Model = "test-model"

	client, err := NewOpenAIClient(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}
	return client
}

func TestComplete_WireFormat(t *testing.T) {
	var got chatRequest
	var auth, path string

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  <aligned>yes</aligned>\n"}}]}`))
	})

	content, err := client.Complete(context.Background(), Request{
		Prompt:       "Is the box aligned?",
		ImageDataURL: "data:image/png;base64,AAAA",
		MaxTokens:    300,
		Temperature:  0.0,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if content != "<aligned>yes</aligned>" {
		t.Errorf("content = %q, want trimmed tag", content)
	}
	if path != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", path)
	}
	if auth != "Bearer test-key" {
		t.Errorf("auth = %q", auth)
	}
	if got.Model != "test-model" {
		t.Errorf("model = %q", got.Model)
	}
	if got.MaxTokens != 300 {
		t.Errorf("max_tokens = %d, want 300", got.MaxTokens)
	}
	if got.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", got.Temperature)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v", got.Messages)
	}

	parts := got.Messages[0].Content
	if len(parts) != 2 {
		t.Fatalf("content parts = %d, want text + image", len(parts))
	}
	if parts[0].Type != "text" || parts[0].Text != "Is the box aligned?" {
		t.Errorf("text part = %+v", parts[0])
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL == nil {
		t.Fatalf("image part = %+v", parts[1])
	}
	if parts[1].ImageURL.URL != "data:image/png;base64,AAAA" {
		t.Errorf("image url = %q", parts[1].ImageURL.URL)
	}
	if parts[1].ImageURL.Detail != "high" {
		t.Errorf("detail = %q, want high", parts[1].ImageURL.Detail)
	}
}

func TestComplete_TextOnly(t *testing.T) {
	var got chatRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	if _, err := client.Complete(context.Background(), Request{Prompt: "hello"}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(got.Messages[0].Content) != 1 {
		t.Errorf("parts = %+v, want text only", got.Messages[0].Content)
	}
}

func TestComplete_HTTPErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantRetryable bool
		wantInMessage string
	}{
		{
			name:          "rate limited",
			status:        http.StatusTooManyRequests,
			body:          `{"error":{"message":"rate limit exceeded"}}`,
			wantRetryable: true,
			wantInMessage: "rate limit exceeded",
		},
		{
			name:          "server error",
			status:        http.StatusBadGateway,
			body:          "upstream fell over",
			wantRetryable: true,
			wantInMessage: "upstream fell over",
		},
		{
			name:          "bad request is permanent",
			status:        http.StatusBadRequest,
			body:          `{"error":{"message":"image too large"}}`,
			wantRetryable: false,
			wantInMessage: "image too large",
		},
		{
			name:          "unauthorized is permanent",
			status:        http.StatusUnauthorized,
			body:          `{"error":{"message":"invalid api key"}}`,
			wantRetryable: false,
			wantInMessage: "invalid api key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), Request{Prompt: "x"})
			if err == nil {
				t.Fatal("Complete() expected error")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %T, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if !strings.Contains(err.Error(), tt.wantInMessage) {
				t.Errorf("error %q should contain %q", err, tt.wantInMessage)
			}
			if Retryable(err) != tt.wantRetryable {
				t.Errorf("Retryable() = %v, want %v", Retryable(err), tt.wantRetryable)
			}
		})
	}
}

func TestComplete_ErrorInOKBody(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
	})

	_, err := client.Complete(context.Background(), Request{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("Complete() error = %v, want surfaced body error", err)
	}
	if Retryable(err) {
		t.Error("in-body errors should not be retryable")
	}
}

func TestComplete_NoChoices(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Complete(context.Background(), Request{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("Complete() error = %v, want no-choices error", err)
	}
}

func TestNewOpenAIClient_Validation(t *testing.T) {
	if _, err := NewOpenAIClient(ClientConfig{Model: "m"}, nil, nil); err == nil {
		t.Error("missing base URL should error")
	}
	if _, err := NewOpenAIClient(ClientConfig{BaseURL: "http://x"}, nil, nil); err == nil {
		t.Error("missing model should error")
	}

	cfg := DefaultClientConfig()
	cfg.Proxy = "socks5://127.0.0.1:1080"
	if _, err := NewOpenAIClient(cfg, nil, nil); err != nil {
		t.Errorf("socks proxy config rejected: %v", err)
	}

	cfg.Proxy = "ftp://127.0.0.1:21"
	if _, err := NewOpenAIClient(cfg, nil, nil); err == nil {
		t.Error("unsupported proxy scheme should error")
	}
}

func TestCounter(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})
	counter := NewCounter(client)

	for i := 0; i < 3; i++ {
		if _, err := counter.Complete(context.Background(), Request{Prompt: "x"}); err != nil {
			t.Fatal(err)
		}
	}
	if counter.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", counter.Calls())
	}
}

func TestDataURL(t *testing.T) {
	// Minimal PNG header is enough for MIME sniffing.
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	url := DataURL(png)
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("DataURL() = %q, want image/png data URL", url)
	}
}
