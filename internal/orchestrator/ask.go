package orchestrator

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/krishnasinghprojects/kpsyche/internal/apperr"
	"github.com/krishnasinghprojects/kpsyche/internal/generation"
	"github.com/krishnasinghprojects/kpsyche/internal/logging"
	"github.com/krishnasinghprojects/kpsyche/internal/prompt"
	"github.com/krishnasinghprojects/kpsyche/internal/retrieval"
)

// MaxBatchQuestions caps one BatchAsk call.
const MaxBatchQuestions = 5

// AskRequest asks a free-form question about a persona.
type AskRequest struct {
	OwnerID   string
	PersonaID string
	Question  string
}

// Source describes one memory the answer was grounded in.
type Source struct {
	Text       string
	Similarity float64
	Sentiment  string
	CreatedAt  string
}

// AskResponse is a grounded free-text answer. Never persisted.
type AskResponse struct {
	Answer          string
	PersonaID       string
	ContextMemories int
	Sources         []Source
}

// BatchAnswer is the per-question outcome of a BatchAsk run.
type BatchAnswer struct {
	Question string
	Answer   string
	Error    string
	OK       bool
}

// Ask runs the question pipeline. Retrieval is mandatory grounding: an
// unreachable store or embedding service fails the whole request, since
// an ungrounded answer is worse than no answer here. Zero matches is
// acceptable; the prompt then says so and the model is told to admit
// insufficiency.
func (s *Service) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	if req.OwnerID == "" {
		return nil, goerr.New("ask requires an owner", goerr.T(apperr.TagInvalidInput))
	}
	if req.PersonaID == "" {
		return nil, goerr.New("ask requires a persona", goerr.T(apperr.TagInvalidInput))
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, goerr.New("ask requires a question", goerr.T(apperr.TagInvalidInput))
	}

	profile, err := s.personas.Get(ctx, req.OwnerID, req.PersonaID)
	if err != nil {
		return nil, goerr.Wrap(err, "resolve persona")
	}

	// RETRIEVE: mandatory; dependency failure aborts.
	matches, err := s.engine.Search(ctx, retrieval.Query{
		OwnerID:   req.OwnerID,
		PersonaID: req.PersonaID,
		Text:      req.Question,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "retrieve grounding context")
	}

	// AUGMENT
	p, err := prompt.Query(*profile, req.Question, matches)
	if err != nil {
		return nil, goerr.Wrap(err, "render query prompt")
	}

	// GENERATE: answer returned verbatim, no structured parsing.
	answer, err := s.generator.Complete(ctx, p, generation.DefaultOptions())
	if err != nil {
		return nil, goerr.Wrap(err, "generate answer")
	}

	sources := make([]Source, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, Source{
			Text:       m.Memory.Text,
			Similarity: m.Similarity,
			Sentiment:  m.Memory.Sentiment,
			CreatedAt:  m.Memory.CreatedAt.Format("2006-01-02"),
		})
	}

	return &AskResponse{
		Answer:          answer,
		PersonaID:       req.PersonaID,
		ContextMemories: len(matches),
		Sources:         sources,
	}, nil
}

// BatchAsk answers up to MaxBatchQuestions questions about one persona,
// strictly sequentially: the completion backend processes one request
// at a time, so fanning out would only contend. Each question succeeds
// or fails on its own.
func (s *Service) BatchAsk(ctx context.Context, ownerID, personaID string, questions []string) ([]BatchAnswer, error) {
	if len(questions) == 0 {
		return nil, goerr.New("batch requires at least one question", goerr.T(apperr.TagInvalidInput))
	}
	if len(questions) > MaxBatchQuestions {
		return nil, goerr.New("too many questions in batch",
			goerr.T(apperr.TagInvalidInput),
			goerr.V("max", MaxBatchQuestions), goerr.V("got", len(questions)))
	}

	logger := logging.From(ctx)
	answers := make([]BatchAnswer, 0, len(questions))

	for _, q := range questions {
		resp, err := s.Ask(ctx, AskRequest{OwnerID: ownerID, PersonaID: personaID, Question: q})
		if err != nil {
			logger.Warn("batch question failed", "question", q, "error", err)
			answers = append(answers, BatchAnswer{Question: q, Error: err.Error()})
			continue
		}
		answers = append(answers, BatchAnswer{Question: q, Answer: resp.Answer, OK: true})
	}

	return answers, nil
}
