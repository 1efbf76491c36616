package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnasinghprojects/kpsyche/internal/apperr"
)

func TestParseBareJSON(t *testing.T) {
	raw := `{"sentiment": "Positive", "personality_traits": ["Optimistic", "Confident"], "confidence": "high"}`

	res, err := Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Positive", res.Sentiment)
	assert.Equal(t, []string{"Optimistic", "Confident"}, res.Traits)
	assert.Equal(t, "high", res.Confidence)
}

func TestParseFencedJSON(t *testing.T) {
	raw := "```json\n{\"sentiment\": \"Positive\", \"personality_traits\": [\"Optimistic\", \"Confident\"]}\n```"

	res, err := Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Positive", res.Sentiment)
	assert.Equal(t, []string{"Optimistic", "Confident"}, res.Traits)
	assert.Equal(t, DefaultConfidence, res.Confidence, "omitted confidence should default")
}

func TestParseFenceWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"sentiment\": \"Sad\", \"personality_traits\": [\"Reserved\"]}\n```"

	res, err := Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Sad", res.Sentiment)
}

func TestParseSurroundingProse(t *testing.T) {
	raw := `Here is the analysis you asked for:
{"sentiment": "Anxious", "personality_traits": ["Cautious"], "confidence": "low"}
Let me know if you need anything else.`

	res, err := Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Anxious", res.Sentiment)
	assert.Equal(t, "low", res.Confidence)
}

func TestParseBracesInsideStrings(t *testing.T) {
	raw := `{"sentiment": "Neutral", "personality_traits": ["Analytical"], "confidence": "he said {maybe}"}`

	res, err := Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "he said {maybe}", res.Confidence)
}

func TestParseRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no sentiment", `{"personality_traits": ["Optimistic"]}`},
		{"blank sentiment", `{"sentiment": "  ", "personality_traits": ["Optimistic"]}`},
		{"no traits", `{"sentiment": "Positive"}`},
		{"empty traits", `{"sentiment": "Positive", "personality_traits": []}`},
		{"not json", "the user seems quite happy today"},
		{"truncated object", `{"sentiment": "Positive", "personality_traits": ["Opt`},
		{"empty", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(context.Background(), tc.raw)
			require.Error(t, err)
			assert.Equal(t, 500, apperr.HTTPStatus(err))
		})
	}
}

func TestParseAcceptsUnknownSentiment(t *testing.T) {
	// Unknown labels are logged but never rejected.
	raw := `{"sentiment": "Melancholic", "personality_traits": ["Reflective"]}`

	res, err := Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Melancholic", res.Sentiment)
}

func TestExtractJSONVariants(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prefix {\"a\":{\"b\":2}} suffix", `{"a":{"b":2}}`},
		{"no object here", ""},
		{"{unterminated", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, extractJSON(tc.in), "input %q", tc.in)
	}
}
