package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kpsyche",
	Short: "K-Psyche persona memory server",
	Long:  "K-Psyche: persona memory and sentiment analysis server with retrieval-augmented generation.",
}

func Execute() error {
	return rootCmd.Execute()
}
