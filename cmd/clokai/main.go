package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clokai/internal/app"
	"clokai/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const (
	version = "1.0.0"
	repoURL = "https://github.com/clokai/clokai"
)

func main() {
	var (
		askMock    bool
		modelFlag  string
		serverFlag string
	)

	root := &cobra.Command{
		Use:     "clokai",
		Short:   "clokai - local coding agent backed by Ollama",
		Long:    "clokai is an interactive coding agent that reads, edits, and searches your project using a local Ollama model.\n\nUse without arguments for the chat TUI, or the 'ask' subcommand for a one-shot request.\n\nFor more information, visit: " + repoURL,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(modelFlag, serverFlag)
			if err != nil {
				return err
			}
			application, err := app.NewApplication(cfg, askMock)
			if err != nil {
				return err
			}
			defer application.Close()

			p := tea.NewProgram(tui.New(application), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	ask := &cobra.Command{
		Use:   "ask [request]",
		Short: "Run one request and print the response",
		Long:  "Run a single request through the tool pipeline without the TUI.\n\nExamples:\n  - clokai ask \"what does main.go do?\"\n  - clokai ask \"!read go.mod\"\n  - echo \"list the project files\" | clokai ask",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigChan
				cancel()
			}()

			cfg, err := loadConfig(modelFlag, serverFlag)
			if err != nil {
				return err
			}
			application, err := app.NewApplication(cfg, askMock)
			if err != nil {
				return err
			}
			defer application.Close()

			input := ""
			if len(args) > 0 {
				input = args[0]
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading request from stdin: %w", err)
				}
				input = strings.TrimSpace(string(data))
			}
			if input == "" {
				return fmt.Errorf("no request provided")
			}

			start := time.Now()
			response, results := application.Pipeline.ProcessRequest(ctx, input, func(chunk string) {
				fmt.Print(chunk)
			})
			fmt.Println()

			failed := false
			for _, r := range results {
				status := "ok"
				if r.Cached {
					status = "cached"
				}
				if !r.Success {
					status = "failed"
					failed = true
				}
				fmt.Fprintf(os.Stderr, "[%s] %s (%s)\n", status, r.Call.Name, r.Duration.Round(time.Millisecond))
			}
			application.Tracker.RecordInteraction(input, response, time.Since(start), failed)
			return nil
		},
	}
	ask.Flags().BoolVar(&askMock, "mock", false, "Use a mock model instead of Ollama")

	root.PersistentFlags().StringVar(&modelFlag, "model", "", "Override the configured model")
	root.PersistentFlags().StringVar(&serverFlag, "server", "", "Override the Ollama server URL")
	root.AddCommand(ask)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(model, server string) (app.Config, error) {
	cfg, err := app.LoadConfig(app.DefaultConfigPath())
	if err != nil {
		return cfg, err
	}
	if env := os.Getenv("OLLAMA_HOST"); env != "" {
		cfg.OllamaURL = env
	}
	if model != "" {
		cfg.Model = model
	}
	if server != "" {
		cfg.OllamaURL = server
	}
	if cwd, err := os.Getwd(); err == nil && cfg.ProjectRoot == "." {
		cfg.ProjectRoot = cwd
	}
	return cfg, nil
}
