// Package main provides the entry point for the card analyzer CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "card_agent",
	Short: "Graded card analysis pipeline and hybrid search",
	Long:  "card_agent analyzes uploaded images of graded trading cards (extract, validate, verify, describe, embed, persist) and serves hybrid text+image similarity search over the results.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
