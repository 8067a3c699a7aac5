package providers

import (
	"context"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
	"github.com/Nikola-Limpet/rawhash-server/internal/modes"
)

// WhisperClient is an alternative backend using the OpenAI audio API for
// transcription and chat completions for post-processing.
type WhisperClient struct {
	baseURL string
	model   string
}

func NewWhisperClient(baseURL, model string) *WhisperClient {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperClient{baseURL: baseURL, model: model}
}

func (c *WhisperClient) client(secret string) *openai.Client {
	cfg := openai.DefaultConfig(secret)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func (c *WhisperClient) ValidateCredential(ctx context.Context, secret string) bool {
	if secret == "" {
		return false
	}
	_, err := c.client(secret).ListModels(ctx)
	return err == nil
}

func (c *WhisperClient) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	tmp, err := os.CreateTemp("", "rawhash-upload-*"+extensionFor(req.MimeType))
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(req.Audio); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	resp, err := c.client(req.Credential).CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: tmp.Name(),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (c *WhisperClient) TranscribeAndProcess(ctx context.Context, req TranscribeRequest) (domain.ProcessedResult, error) {
	text, err := c.Transcribe(ctx, req)
	if err != nil {
		return domain.ProcessedResult{}, err
	}
	if req.Mode == modes.ModeRaw {
		return modes.ParseResponse(modes.ModeRaw, text), nil
	}
	result, err := c.ProcessText(ctx, ProcessTextRequest{
		Text:       text,
		Mode:       req.Mode,
		Context:    req.Context,
		Credential: req.Credential,
	})
	if err != nil {
		return domain.ProcessedResult{}, err
	}
	result.OriginalText = text
	return result, nil
}

func (c *WhisperClient) ProcessText(ctx context.Context, req ProcessTextRequest) (domain.ProcessedResult, error) {
	resp, err := c.client(req.Credential).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: modes.TextPrompt(req.Mode, req.Context, req.Text)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return domain.ProcessedResult{}, err
	}
	if len(resp.Choices) == 0 {
		return modes.ParseResponse(req.Mode, ""), nil
	}
	return modes.ParseResponse(req.Mode, resp.Choices[0].Message.Content), nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	default:
		return ".bin"
	}
}
