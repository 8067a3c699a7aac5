package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
	"github.com/Nikola-Limpet/rawhash-server/internal/modes"
)

// GeminiClient speaks the generateContent JSON protocol of the hosted
// Gemini endpoint.
type GeminiClient struct {
	apiBase string
	model   string
	http    *http.Client
}

func NewGeminiClient(apiBase, model string) *GeminiClient {
	return &GeminiClient{
		apiBase: apiBase,
		model:   model,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	InlineData *inlineData `json:"inlineData,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *geminiError `json:"error,omitempty"`
}

type geminiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (c *GeminiClient) ValidateCredential(ctx context.Context, secret string) bool {
	if secret == "" {
		return false
	}
	endpoint := fmt.Sprintf("%s/models/%s?key=%s", c.apiBase, c.model, url.QueryEscape(secret))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *GeminiClient) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	parts := []geminiPart{
		{InlineData: &inlineData{MimeType: req.MimeType, Data: base64.StdEncoding.EncodeToString(req.Audio)}},
		{Text: modes.Prompt(modes.ModeRaw, req.Context)},
	}
	return c.generate(ctx, req.Credential, parts)
}

func (c *GeminiClient) TranscribeAndProcess(ctx context.Context, req TranscribeRequest) (domain.ProcessedResult, error) {
	parts := []geminiPart{
		{InlineData: &inlineData{MimeType: req.MimeType, Data: base64.StdEncoding.EncodeToString(req.Audio)}},
		{Text: modes.Prompt(req.Mode, req.Context)},
	}
	text, err := c.generate(ctx, req.Credential, parts)
	if err != nil {
		return domain.ProcessedResult{}, err
	}
	return modes.ParseResponse(req.Mode, text), nil
}

func (c *GeminiClient) ProcessText(ctx context.Context, req ProcessTextRequest) (domain.ProcessedResult, error) {
	parts := []geminiPart{{Text: modes.TextPrompt(req.Mode, req.Context, req.Text)}}
	text, err := c.generate(ctx, req.Credential, parts)
	if err != nil {
		return domain.ProcessedResult{}, err
	}
	return modes.ParseResponse(req.Mode, text), nil
}

func (c *GeminiClient) generate(ctx context.Context, credential string, parts []geminiPart) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: parts}},
		GenerationConfig: generationConfig{Temperature: 0.2, MaxOutputTokens: 8192},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.apiBase, c.model, url.QueryEscape(credential))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("transcription endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("transcription endpoint returned status %d", resp.StatusCode)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", fmt.Errorf("transcription endpoint error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcription endpoint returned status %d", resp.StatusCode)
	}

	// A response missing the text field is treated as empty output, not an
	// error, so partial responses never block the caller.
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
