package modes

import (
	"fmt"
	"strings"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
)

// Mode is one of the six fixed transformations applied to a transcription.
type Mode string

const (
	ModeRaw          Mode = "raw"
	ModeClean        Mode = "clean"
	ModeSummary      Mode = "summary"
	ModeKeyPoints    Mode = "keypoints"
	ModeProfessional Mode = "professional"
	ModeConcise      Mode = "concise"
)

const (
	markerTranscription = "TRANSCRIPTION:"
	markerSummary       = "SUMMARY:"
	markerKeyPoints     = "KEY POINTS:"
)

// All lists the catalog in display order.
func All() []Mode {
	return []Mode{ModeRaw, ModeClean, ModeSummary, ModeKeyPoints, ModeProfessional, ModeConcise}
}

// Parse normalizes a user-supplied mode string.
func Parse(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRaw, "":
		return ModeRaw, nil
	case ModeClean:
		return ModeClean, nil
	case ModeSummary:
		return ModeSummary, nil
	case ModeKeyPoints:
		return ModeKeyPoints, nil
	case ModeProfessional:
		return ModeProfessional, nil
	case ModeConcise:
		return ModeConcise, nil
	default:
		return "", fmt.Errorf("unknown processing mode %q", s)
	}
}

// Prompt builds the instruction sent alongside the audio (or text) for the
// given mode. An optional free-text context is prepended before the
// mode-specific instruction.
func Prompt(mode Mode, context string) string {
	var b strings.Builder
	if context = strings.TrimSpace(context); context != "" {
		fmt.Fprintf(&b, "Context: %s\n\n", context)
	}
	switch mode {
	case ModeClean:
		b.WriteString("Transcribe this audio, then clean it up: remove filler words (um, uh, like), fix grammar and punctuation, but keep the speaker's meaning and voice. Return only the cleaned text.")
	case ModeSummary:
		b.WriteString("Transcribe this audio, then write a short summary of it. Respond in exactly this format:\n" +
			markerTranscription + "\n<the full transcription>\n\n" +
			markerSummary + "\n<a short summary>")
	case ModeKeyPoints:
		b.WriteString("Transcribe this audio, then extract its key points as a bullet list. Respond in exactly this format:\n" +
			markerTranscription + "\n<the full transcription>\n\n" +
			markerKeyPoints + "\n• <point>\n• <point>")
	case ModeProfessional:
		b.WriteString("Transcribe this audio and reword it in a formal, professional tone. Return only the reworded text.")
	case ModeConcise:
		b.WriteString("Transcribe this audio and compress it: keep the meaning, drop repetition and asides. Return only the compressed text.")
	default:
		b.WriteString("Transcribe this audio verbatim. Return only the transcription.")
	}
	return b.String()
}

// TextPrompt is the same instruction set phrased for already-transcribed
// text instead of an audio payload.
func TextPrompt(mode Mode, context, text string) string {
	var b strings.Builder
	if context = strings.TrimSpace(context); context != "" {
		fmt.Fprintf(&b, "Context: %s\n\n", context)
	}
	switch mode {
	case ModeClean:
		b.WriteString("Clean up the following text: remove filler words, fix grammar and punctuation, keep the meaning.")
	case ModeSummary:
		b.WriteString("Write a short summary of the following text. Respond in exactly this format:\n" +
			markerTranscription + "\n<the original text>\n\n" +
			markerSummary + "\n<a short summary>")
	case ModeKeyPoints:
		b.WriteString("Extract the key points of the following text as a bullet list. Respond in exactly this format:\n" +
			markerTranscription + "\n<the original text>\n\n" +
			markerKeyPoints + "\n• <point>\n• <point>")
	case ModeProfessional:
		b.WriteString("Reword the following text in a formal, professional tone. Return only the reworded text.")
	case ModeConcise:
		b.WriteString("Compress the following text while preserving its meaning. Return only the compressed text.")
	default:
		b.WriteString("Return the following text unchanged.")
	}
	fmt.Fprintf(&b, "\n\n%s", text)
	return b.String()
}

// ParseResponse splits a model response into a ProcessedResult according to
// the mode's contract. For summary/keypoints a response missing the expected
// marker degrades to plain text with the structured field unset; this is
// never an error.
func ParseResponse(mode Mode, raw string) domain.ProcessedResult {
	text := strings.TrimSpace(raw)
	switch mode {
	case ModeSummary:
		trans, rest, ok := splitMarked(text, markerSummary)
		if !ok {
			return domain.ProcessedResult{OriginalText: text, ProcessedText: text}
		}
		return domain.ProcessedResult{OriginalText: trans, ProcessedText: trans, Summary: rest}
	case ModeKeyPoints:
		trans, rest, ok := splitMarked(text, markerKeyPoints)
		if !ok {
			return domain.ProcessedResult{OriginalText: text, ProcessedText: text}
		}
		return domain.ProcessedResult{OriginalText: trans, ProcessedText: trans, KeyPoints: splitBullets(rest)}
	default:
		return domain.ProcessedResult{OriginalText: text, ProcessedText: text}
	}
}

// splitMarked separates a two-part response: the transcription between an
// optional leading TRANSCRIPTION: marker and the second marker, and the text
// after the second marker.
func splitMarked(text, second string) (transcription, rest string, ok bool) {
	idx := strings.Index(text, second)
	if idx < 0 {
		return "", "", false
	}
	head := text[:idx]
	head = strings.TrimPrefix(strings.TrimSpace(head), markerTranscription)
	return strings.TrimSpace(head), strings.TrimSpace(text[idx+len(second):]), true
}

func splitBullets(block string) []string {
	var points []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		for _, glyph := range []string{"•", "-", "*"} {
			if strings.HasPrefix(line, glyph) {
				line = strings.TrimSpace(strings.TrimPrefix(line, glyph))
				break
			}
		}
		if line != "" {
			points = append(points, line)
		}
	}
	return points
}
