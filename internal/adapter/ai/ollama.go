package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arturoeanton/testgen-ai/internal/port"
)

// OllamaEndpointConfig holds the configuration for an Ollama chat endpoint.
type OllamaEndpointConfig struct {
	BaseURL string // e.g. http://localhost:11434 or https://ollama.com
	Model   string // e.g. qwen3-coder
	Token   string // Bearer token for Ollama Cloud (empty = no auth)
}

// OllamaProvider implements port.AIProvider using the Ollama REST API.
type OllamaProvider struct {
	chat       OllamaEndpointConfig
	httpClient *http.Client
}

// NewOllamaProvider creates an Ollama-backed provider. A zero timeout means no limit.
func NewOllamaProvider(chat OllamaEndpointConfig, timeout time.Duration) *OllamaProvider {
	return &OllamaProvider{
		chat:       chat,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ModelName returns the chat model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.chat.Model
}

// Chat sends a prompt with context chunks and returns the complete response.
func (o *OllamaProvider) Chat(ctx context.Context, systemPrompt string, userPrompt string, contextChunks []string) (string, error) {
	return o.complete(ctx, systemPrompt, withContext(userPrompt, contextChunks), "")
}

// ChatJSON asks Ollama to constrain the response to valid JSON.
func (o *OllamaProvider) ChatJSON(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	return o.complete(ctx, systemPrompt, userPrompt, "json")
}

func (o *OllamaProvider) complete(ctx context.Context, systemPrompt, userPrompt, format string) (string, error) {
	messages := []map[string]string{
		{"role": "system", "content": systemPrompt},
		{"role": "user", "content": userPrompt},
	}

	payload := map[string]interface{}{
		"model":    o.chat.Model,
		"messages": messages,
		"stream":   false,
	}
	if format != "" {
		payload["format"] = format
	}

	body, err := o.post(ctx, "/api/chat", payload)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &port.RemoteError{Service: "ollama", Message: "malformed response: " + err.Error()}
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", &port.RemoteError{Service: "ollama", Message: "empty response"}
	}

	return resp.Message.Content, nil
}

// post is a helper for POST requests to the Ollama endpoint (with optional bearer token).
func (o *OllamaProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(o.chat.BaseURL, "/")+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.chat.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.chat.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, &port.RemoteError{Service: "ollama", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &port.RemoteError{Service: "ollama", StatusCode: resp.StatusCode, Message: string(body)}
	}

	return io.ReadAll(resp.Body)
}

// withContext prepends numbered context chunks to the user prompt.
func withContext(userPrompt string, contextChunks []string) string {
	if len(contextChunks) == 0 {
		return userPrompt
	}
	var b strings.Builder
	for i, chunk := range contextChunks {
		fmt.Fprintf(&b, "\n--- Context chunk %d ---\n%s\n", i+1, chunk)
	}
	return fmt.Sprintf("Relevant code context:\n%s\n\nTask: %s", b.String(), userPrompt)
}
