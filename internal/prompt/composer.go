// Package prompt renders the two completion prompts of the pipeline.
// Both renderers are pure: identical inputs produce identical strings,
// and output size is bounded by the (already capped) match list.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"

	"github.com/krishnasinghprojects/kpsyche/internal/persona"
	"github.com/krishnasinghprojects/kpsyche/internal/retrieval"
)

// Sentiments is the closed label set the analysis prompt demands.
var Sentiments = []string{"Positive", "Negative", "Neutral", "Anxious", "Sad", "Angry", "Excited"}

// Traits is the fixed personality trait vocabulary.
var Traits = []string{
	"Optimistic", "Pessimistic", "Confident", "Cautious", "Reserved",
	"Outgoing", "Empathetic", "Analytical", "Impulsive", "Patient",
	"Ambitious", "Resilient",
}

const analysisTemplate = `You are a precise sentiment and personality analyst.
{{if .Context}}
Previous observations about this subject, oldest context first:
{{range .Context}}- [{{.Date}}] "{{.Text}}" (sentiment: {{.Sentiment}}; traits: {{.Traits}})
{{end}}
Use these observations to stay consistent with earlier analyses of the same subject. Do not invent facts beyond the text and the observations above.
{{end}}
Analyze the following text:
"""
{{.Text}}
"""

Respond with a single JSON object and no prose outside it:
{"sentiment": "<label>", "personality_traits": ["<trait>", ...], "confidence": "low|medium|high"}

Rules:
- "sentiment" must be exactly one of: {{.Sentiments}}.
- "personality_traits" must contain 2 to 4 items, each from: {{.Traits}}.
`

const queryTemplate = `You are answering a question about {{.Name}} ({{.Relationship}}).
Profile summary: {{.Summary}}
{{if .Context}}
Stored memories relevant to the question:
{{range .Context}}{{.Index}}. [{{.Date}}] "{{.Text}}" (relevance: {{.Relevance}}; sentiment: {{.Sentiment}}; traits: {{.Traits}})
{{end}}{{else}}
No stored memories matched the question.
{{end}}
Question: {{.Question}}

Answer using only the context above. Cite the specific data points you rely on. If the context is insufficient to answer, say so explicitly instead of guessing.
`

var (
	analysisTmpl = template.Must(template.New("analysis").Parse(analysisTemplate))
	queryTmpl    = template.Must(template.New("query").Parse(queryTemplate))
)

type contextLine struct {
	Index     int
	Date      string
	Text      string
	Sentiment string
	Traits    string
	Relevance string
}

func contextLines(matches []retrieval.Match) []contextLine {
	lines := make([]contextLine, 0, len(matches))
	for i, m := range matches {
		sentiment := m.Memory.Sentiment
		if sentiment == "" {
			sentiment = "unknown"
		}
		traits := strings.Join(m.Memory.Traits, ", ")
		if traits == "" {
			traits = "unknown"
		}
		lines = append(lines, contextLine{
			Index:     i + 1,
			Date:      m.Memory.CreatedAt.Format("2006-01-02"),
			Text:      m.Memory.Text,
			Sentiment: sentiment,
			Traits:    traits,
			Relevance: fmt.Sprintf("%.0f%%", m.Similarity*100),
		})
	}
	return lines
}

// Analysis renders the structured-analysis prompt for raw text,
// optionally grounded in prior retrieved matches.
func Analysis(text string, matches []retrieval.Match) (string, error) {
	data := struct {
		Text       string
		Context    []contextLine
		Sentiments string
		Traits     string
	}{
		Text:       text,
		Context:    contextLines(matches),
		Sentiments: strings.Join(Sentiments, ", "),
		Traits:     strings.Join(Traits, ", "),
	}

	var b strings.Builder
	if err := analysisTmpl.Execute(&b, data); err != nil {
		return "", goerr.Wrap(err, "execute analysis template")
	}
	return b.String(), nil
}

// Query renders the question-answering prompt from a persona profile,
// retrieved matches, and a free-form question.
func Query(profile persona.Profile, question string, matches []retrieval.Match) (string, error) {
	data := struct {
		Name         string
		Relationship string
		Summary      string
		Question     string
		Context      []contextLine
	}{
		Name:         profile.Name,
		Relationship: profile.Relationship,
		Summary:      profile.Summary,
		Question:     question,
		Context:      contextLines(matches),
	}

	var b strings.Builder
	if err := queryTmpl.Execute(&b, data); err != nil {
		return "", goerr.Wrap(err, "execute query template")
	}
	return b.String(), nil
}
