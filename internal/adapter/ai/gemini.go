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

const (
	geminiDefaultModel    = "gemini-2.5-flash"
	geminiDefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
)

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string // overridable for tests
}

// GeminiProvider implements port.AIProvider on the Gemini generateContent API.
type GeminiProvider struct {
	cfg        GeminiConfig
	httpClient *http.Client
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(cfg GeminiConfig, timeout time.Duration) *GeminiProvider {
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = geminiDefaultEndpoint
	}
	return &GeminiProvider{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
}

// ModelName returns the model identifier.
func (g *GeminiProvider) ModelName() string {
	return g.cfg.Model
}

// Chat sends a prompt with context chunks and returns the text of the first candidate.
func (g *GeminiProvider) Chat(ctx context.Context, systemPrompt string, userPrompt string, contextChunks []string) (string, error) {
	return g.generate(ctx, systemPrompt, withContext(userPrompt, contextChunks), "")
}

// ChatJSON requests an application/json response.
func (g *GeminiProvider) ChatJSON(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	return g.generate(ctx, systemPrompt, userPrompt, "application/json")
}

func (g *GeminiProvider) generate(ctx context.Context, systemPrompt, userPrompt, mimeType string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: userPrompt}}}},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}
	if mimeType != "" {
		reqBody.GenerationConfig = &geminiGenerationConfig{ResponseMimeType: mimeType}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(g.cfg.Endpoint, "/"), g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &port.RemoteError{Service: "gemini", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &port.RemoteError{Service: "gemini", StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp geminiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10*1024*1024)).Decode(&apiResp); err != nil {
		return "", &port.RemoteError{Service: "gemini", Message: "malformed response: " + err.Error()}
	}

	var text strings.Builder
	if len(apiResp.Candidates) > 0 {
		for _, p := range apiResp.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", &port.RemoteError{Service: "gemini", Message: "empty response"}
	}
	return text.String(), nil
}
