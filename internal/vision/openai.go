package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/uialign/uialign/internal/logging"
	"github.com/uialign/uialign/internal/tokens"
)

// ClientConfig configures the OpenAI-compatible client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string

	// APIKey is sent as a bearer token when non-empty. Local
	// endpoints typically need none.
	APIKey string

	// Model is the vision-capable model name.
	Model string

	// Detail is the image detail hint: low, high or auto.
	Detail string

	// Proxy is an optional socks5:// or http:// proxy URL.
	Proxy string

	// Timeout bounds one request end to end.
	Timeout time.Duration
}

// DefaultClientConfig returns config suitable for the public OpenAI
// endpoint.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
		Detail:  "high",
		Timeout: 60 * time.Second,
	}
}

// OpenAIClient implements Client over the chat-completions wire format.
type OpenAIClient struct {
	cfg   ClientConfig
	http  *http.Client
	log   *slog.Logger
	trace *logging.Trace
}

// Wire format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIClient validates cfg and builds the HTTP client, wiring a
// proxy when one is configured.
func NewOpenAIClient(cfg ClientConfig, logger *slog.Logger, trace *logging.Trace) (*OpenAIClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vision: base URL must not be empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("vision: model must not be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient, err := newHTTPClient(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &OpenAIClient{
		cfg:   cfg,
		http:  httpClient,
		log:   logger,
		trace: trace,
	}, nil
}

// newHTTPClient builds the transport. SOCKS proxies go through
// x/net/proxy; HTTP proxies through the standard transport. With no
// explicit proxy the environment (HTTP_PROXY etc.) still applies.
func newHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("vision: parse proxy url: %w", err)
		}
		switch u.Scheme {
		case "socks", "socks5", "socks5h":
			if u.Scheme == "socks" {
				u.Scheme = "socks5"
			}
			dialer, err := proxy.FromURL(u, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("vision: socks proxy: %w", err)
			}
			transport.Proxy = nil
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				transport.DialContext = cd.DialContext
			} else {
				transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				}
			}
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		default:
			return nil, fmt.Errorf("vision: unsupported proxy scheme %q", u.Scheme)
		}
	}

	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// Complete issues one chat-completions request and returns the first
// choice's text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	parts := []contentPart{{Type: "text", Text: req.Prompt}}
	if req.ImageDataURL != "" {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURLPart{URL: req.ImageDataURL, Detail: c.cfg.Detail},
		})
	}

	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: parts}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("vision: marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("vision: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug("vision request failed", "error", err)
		return "", fmt.Errorf("vision: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("vision: read response: %w", err)
	}

	c.log.Debug("vision response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", &APIError{Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return "", &APIError{Message: "response contained no choices"}
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	c.trace.Conversation("vision", req.Prompt, content, map[string]any{
		"model":             c.cfg.Model,
		"max_tokens":        req.MaxTokens,
		"has_image":         req.ImageDataURL != "",
		"prompt_tokens_est": tokens.EstimateText(req.Prompt),
	})
	return content, nil
}

// errorMessage pulls the endpoint's error text out of a failure body,
// falling back to the raw body when it is not the usual JSON shape.
func errorMessage(raw []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	if msg == "" {
		msg = "empty error body"
	}
	return msg
}
