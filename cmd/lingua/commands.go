package main

import (
	"fmt"
	"lingua_backend/internal/app"
	"lingua_backend/internal/config"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "lingua",
		Short: "Adaptive Spanish lessons: API server and terminal client",
	}

	configDir string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Runs the lesson API server",
		RunE:  runServe,
	}

	serverURL string

	playCmd = &cobra.Command{
		Use:   "play",
		Short: "Starts an interactive learning session against a running server",
		RunE:  runPlay,
	}
)

func init() {
	serveCmd.Flags().StringVar(&configDir, "config", "configs", "directory containing config.yaml")

	defaultURL := os.Getenv("LINGUA_SERVER_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	playCmd.Flags().StringVar(&serverURL, "server", defaultURL, "base URL of the lesson API, including any route prefix")

	rootCmd.AddCommand(serveCmd, playCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app.NewApp(cfg).Run()
	return nil
}
