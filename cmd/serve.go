package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/krishnasinghprojects/kpsyche/internal/config"
	"github.com/krishnasinghprojects/kpsyche/internal/logging"
	"github.com/krishnasinghprojects/kpsyche/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kpsyche server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Port = port
		}
		if url, _ := cmd.Flags().GetString("ollama-url"); url != "" {
			cfg.OllamaURL = url
		}
		if disabled, _ := cmd.Flags().GetBool("no-rag"); disabled {
			cfg.RAGEnabled = false
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.LogLevel = level
		}

		logger := logging.New(cfg.LogLevel, os.Stderr)
		logging.SetDefault(logger)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.With(ctx, logger)

		srv, err := server.New(ctx, cfg)
		if err != nil {
			return err
		}
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().String("host", "", "bind address")
	serveCmd.Flags().Int("port", 0, "listen port")
	serveCmd.Flags().String("ollama-url", "", "Ollama base URL")
	serveCmd.Flags().Bool("no-rag", false, "disable retrieval augmentation")
	serveCmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd)
}
