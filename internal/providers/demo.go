package providers

import (
	"context"
	"fmt"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
	"github.com/Nikola-Limpet/rawhash-server/internal/modes"
)

const demoTranscript = "This is a demo transcription. Configure an API key in settings to transcribe real audio."

// DemoClient fabricates plausible outputs without any network call. It is
// the active provider when no credential is configured and demo mode is on.
type DemoClient struct{}

func (DemoClient) ValidateCredential(ctx context.Context, secret string) bool {
	return secret != ""
}

func (DemoClient) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	return demoTranscript, nil
}

func (DemoClient) TranscribeAndProcess(ctx context.Context, req TranscribeRequest) (domain.ProcessedResult, error) {
	return demoResult(req.Mode, demoTranscript), nil
}

func (DemoClient) ProcessText(ctx context.Context, req ProcessTextRequest) (domain.ProcessedResult, error) {
	return demoResult(req.Mode, req.Text), nil
}

func demoResult(mode modes.Mode, text string) domain.ProcessedResult {
	switch mode {
	case modes.ModeSummary:
		return domain.ProcessedResult{
			OriginalText:  text,
			ProcessedText: text,
			Summary:       "Demo summary of the recording.",
		}
	case modes.ModeKeyPoints:
		return domain.ProcessedResult{
			OriginalText:  text,
			ProcessedText: text,
			KeyPoints:     []string{"Demo key point one", "Demo key point two"},
		}
	case modes.ModeRaw:
		return domain.ProcessedResult{OriginalText: text, ProcessedText: text}
	default:
		processed := fmt.Sprintf("[%s] %s", mode, text)
		return domain.ProcessedResult{OriginalText: text, ProcessedText: processed}
	}
}
