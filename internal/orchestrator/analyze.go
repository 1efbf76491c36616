package orchestrator

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/krishnasinghprojects/kpsyche/internal/analysis"
	"github.com/krishnasinghprojects/kpsyche/internal/apperr"
	"github.com/krishnasinghprojects/kpsyche/internal/generation"
	"github.com/krishnasinghprojects/kpsyche/internal/logging"
	"github.com/krishnasinghprojects/kpsyche/internal/prompt"
	"github.com/krishnasinghprojects/kpsyche/internal/retrieval"
	"github.com/krishnasinghprojects/kpsyche/internal/vectorstore"
)

// AnalyzeRequest asks for a structured sentiment/trait analysis of Text.
// PersonaID is optional; SaveToHistory controls the write-back of the
// result as a new memory.
type AnalyzeRequest struct {
	OwnerID       string
	PersonaID     string
	Text          string
	SaveToHistory bool
}

// AnalyzeResponse carries the analysis plus the explicit two-phase
// persistence outcome: Saved/PersistError report the write-back without
// ever failing the request.
type AnalyzeResponse struct {
	Result          *analysis.Result
	RAGEnabled      bool
	ContextMemories int
	Saved           bool
	MemoryID        string
	PersistError    string
}

// Analyze runs the analysis pipeline. Retrieval is best-effort: a
// failed embed or store query degrades to an empty context block.
// Generation and interpretation failures are fatal and nothing is
// persisted. A persistence failure after a successful generation is
// reported, not escalated.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	logger := logging.From(ctx)

	if req.OwnerID == "" {
		return nil, goerr.New("analyze requires an owner", goerr.T(apperr.TagInvalidInput))
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, goerr.New("analyze requires text", goerr.T(apperr.TagInvalidInput))
	}

	// RETRIEVE: optional context, failures degrade.
	var matches []retrieval.Match
	ragEnabled := false
	matches, err := s.engine.Search(ctx, retrieval.Query{
		OwnerID:   req.OwnerID,
		PersonaID: req.PersonaID,
		Text:      req.Text,
	})
	if err != nil {
		logger.Warn("retrieval unavailable, analyzing without context", "error", err)
		matches = nil
	} else {
		ragEnabled = true
	}

	// AUGMENT
	p, err := prompt.Analysis(req.Text, matches)
	if err != nil {
		return nil, goerr.Wrap(err, "render analysis prompt")
	}

	// GENERATE: fatal on failure, nothing persisted.
	opts := generation.DefaultOptions()
	opts.Temperature = 0.3 // structured output wants low variance
	raw, err := s.generator.Complete(ctx, p, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "generate analysis")
	}

	result, err := analysis.Parse(ctx, raw)
	if err != nil {
		return nil, goerr.Wrap(err, "interpret analysis output")
	}

	resp := &AnalyzeResponse{
		Result:          result,
		RAGEnabled:      ragEnabled,
		ContextMemories: len(matches),
	}

	// PERSIST: reported via Saved/PersistError, never a request failure.
	if req.SaveToHistory {
		id, err := s.persist(ctx, req, result)
		if err != nil {
			logger.Warn("failed to persist analysis memory", "error", err)
			resp.PersistError = err.Error()
		} else {
			resp.Saved = true
			resp.MemoryID = id
		}
	}

	return resp, nil
}

// persist embeds the analyzed text and writes it back as a new memory
// tagged with the interpreted sentiment and traits.
func (s *Service) persist(ctx context.Context, req AnalyzeRequest, result *analysis.Result) (string, error) {
	vec, err := s.embedder.Embed(ctx, req.Text)
	if err != nil {
		return "", goerr.Wrap(err, "embed memory text")
	}

	mem := vectorstore.Memory{
		ID:        uuid.New().String(),
		OwnerID:   req.OwnerID,
		PersonaID: req.PersonaID,
		Text:      req.Text,
		Sentiment: result.Sentiment,
		Traits:    result.Traits,
		Kind:      "analysis",
	}
	if err := s.store.Insert(ctx, mem, vec); err != nil {
		return "", goerr.Wrap(err, "insert memory")
	}
	return mem.ID, nil
}
