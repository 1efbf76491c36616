package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krishnasinghprojects/kpsyche/internal/config"
)

var pullCmd = &cobra.Command{
	Use:   "pull [model...]",
	Short: "Pull the configured models into Ollama",
	Long: `Ask the Ollama instance to pull models. With no arguments, pulls the
configured embedding and generation models.

Examples:
  kpsyche pull
  kpsyche pull nomic-embed-text llama3.2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		models := args
		if len(models) == 0 {
			models = []string{cfg.EmbedModel, cfg.GenModel}
		}

		for _, model := range models {
			fmt.Printf("Pulling %s...\n", model)
			if err := pullModel(cfg.OllamaURL, model); err != nil {
				return fmt.Errorf("pull %s: %w", model, err)
			}
			fmt.Printf("Pulled %s\n", model)
		}
		return nil
	},
}

// pullModel streams the NDJSON progress of an Ollama pull, printing
// status transitions.
func pullModel(baseURL, model string) error {
	body, _ := json.Marshal(map[string]any{"name": model, "stream": true})

	resp, err := http.Post(strings.TrimRight(baseURL, "/")+"/api/pull", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned %d", resp.StatusCode)
	}

	var lastStatus string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if line.Error != "" {
			return fmt.Errorf("%s", line.Error)
		}
		if line.Status != "" && line.Status != lastStatus {
			fmt.Printf("  %s\n", line.Status)
			lastStatus = line.Status
		}
	}
	return scanner.Err()
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
