// Package analysis parses the structured output of the analysis prompt.
// The completion backend is asked for bare JSON but routinely wraps it
// in markdown fences or leading prose, so parsing is tolerant about the
// envelope and strict about the content.
package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/krishnasinghprojects/kpsyche/internal/apperr"
	"github.com/krishnasinghprojects/kpsyche/internal/logging"
	"github.com/krishnasinghprojects/kpsyche/internal/prompt"
)

// DefaultConfidence is assumed when the model omits the confidence field.
const DefaultConfidence = "medium"

// Result is a validated structured analysis: a sentiment label and at
// least one personality trait.
type Result struct {
	Sentiment  string   `json:"sentiment"`
	Traits     []string `json:"personality_traits"`
	Confidence string   `json:"confidence"`
}

// Parse validates raw completion text into a Result. Markdown code
// fences are stripped; if the remainder is not itself a JSON object,
// the first top-level {...} span is extracted. Unknown sentiment labels
// are logged, not rejected; the vocabulary may evolve ahead of this
// code.
func Parse(ctx context.Context, raw string) (*Result, error) {
	text := extractJSON(raw)
	if text == "" {
		return nil, goerr.New("no JSON object in completion output",
			goerr.T(apperr.TagMalformedOutput), goerr.V("raw", clip(raw)))
	}

	var res Result
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return nil, goerr.Wrap(err, "completion output is not valid JSON",
			goerr.T(apperr.TagMalformedOutput), goerr.V("raw", clip(raw)))
	}

	if strings.TrimSpace(res.Sentiment) == "" {
		return nil, goerr.New("analysis is missing sentiment",
			goerr.T(apperr.TagMalformedOutput), goerr.V("raw", clip(raw)))
	}
	if len(res.Traits) == 0 {
		return nil, goerr.New("analysis is missing personality traits",
			goerr.T(apperr.TagMalformedOutput), goerr.V("raw", clip(raw)))
	}
	if res.Confidence == "" {
		res.Confidence = DefaultConfidence
	}

	if !knownSentiment(res.Sentiment) {
		logging.From(ctx).Warn("unrecognized sentiment label", "sentiment", res.Sentiment)
	}

	return &res, nil
}

func knownSentiment(label string) bool {
	for _, s := range prompt.Sentiments {
		if s == label {
			return true
		}
	}
	return false
}

// extractJSON strips code fences and returns the first top-level JSON
// object span, or "" when none exists.
func extractJSON(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Drop an optional language tag such as "json".
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			first := strings.TrimSpace(text[:nl])
			if !strings.HasPrefix(first, "{") {
				text = text[nl+1:]
			}
		}
		if end := strings.LastIndex(text, "```"); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text
	}

	// Scan for the first balanced top-level object, skipping braces
	// inside JSON strings.
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func clip(s string) string {
	if len(s) <= 200 {
		return s
	}
	return s[:200] + "..."
}
