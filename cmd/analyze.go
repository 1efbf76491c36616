package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krishnasinghprojects/kpsyche/internal/config"
	"github.com/krishnasinghprojects/kpsyche/internal/embedding"
	"github.com/krishnasinghprojects/kpsyche/internal/generation"
	"github.com/krishnasinghprojects/kpsyche/internal/logging"
	"github.com/krishnasinghprojects/kpsyche/internal/orchestrator"
	"github.com/krishnasinghprojects/kpsyche/internal/persona"
	"github.com/krishnasinghprojects/kpsyche/internal/retrieval"
	"github.com/krishnasinghprojects/kpsyche/internal/vectorstore"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Run a one-shot sentiment/trait analysis",
	Long: `Analyze text without starting the server. Text is taken from the
argument, or from stdin when no argument is given.

Examples:
  kpsyche analyze "Felt anxious before the client call"
  cat journal.txt | kpsyche analyze --owner me --persona 1a2b`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		owner, _ := cmd.Flags().GetString("owner")
		personaID, _ := cmd.Flags().GetString("persona")
		noSave, _ := cmd.Flags().GetBool("no-save")

		var text string
		if len(args) == 1 {
			text = args[0]
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = strings.TrimSpace(string(data))
		}

		logger := logging.New("warn", os.Stderr)
		logging.SetDefault(logger)

		ctx := logging.With(context.Background(), logger)

		if err := cfg.EnsureDirs(); err != nil {
			return err
		}

		store, err := vectorstore.NewChromemStore(cfg.MemoryDir())
		if err != nil {
			return err
		}
		defer store.Close()

		embedder := embedding.NewClient(cfg.OllamaURL, cfg.EmbedModel, cfg.EmbedTimeout)
		engine := retrieval.NewEngine(embedder, store, cfg.RetrievalLimit, cfg.SimilarityThreshold, cfg.RAGEnabled)
		personas, err := persona.NewFileStore(cfg.PersonaPath(), store)
		if err != nil {
			return err
		}
		generator := generation.NewClient(cfg.OllamaURL, cfg.GenModel, cfg.GenTimeout)

		service, err := orchestrator.New(ctx, embedder, store, engine, personas, generator)
		if err != nil {
			return err
		}

		resp, err := service.Analyze(ctx, orchestrator.AnalyzeRequest{
			OwnerID:       owner,
			PersonaID:     personaID,
			Text:          text,
			SaveToHistory: !noSave,
		})
		if err != nil {
			return err
		}

		out := map[string]any{
			"sentiment":          resp.Result.Sentiment,
			"personality_traits": resp.Result.Traits,
			"confidence":         resp.Result.Confidence,
			"rag_enabled":        resp.RAGEnabled,
			"context_memories":   resp.ContextMemories,
			"saved":              resp.Saved,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	analyzeCmd.Flags().String("owner", "local", "owner identity for memory isolation")
	analyzeCmd.Flags().String("persona", "", "persona ID to scope the analysis to")
	analyzeCmd.Flags().Bool("no-save", false, "do not store the result as a memory")
	rootCmd.AddCommand(analyzeCmd)
}
