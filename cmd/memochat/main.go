// memochat is a terminal chat client for a personal memory service: tell it
// things to remember, ask it where things are, and let the service decide
// whether each message stores or retrieves.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"memochat/cmd/memochat/chat"
	"memochat/internal/config"
	"memochat/internal/conversation"
	"memochat/internal/decision"
	"memochat/internal/logging"
)

const version = "1.0.0"

var (
	// Global flags
	configPath string
	baseURL    string
	apiKey     string
	language   string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "memochat",
	Short: "memochat - conversational client for your personal memory service",
	Long: `memochat is an interactive chat client for a personal memory service.

Type naturally: statements are stored as memories, questions retrieve them,
and when the service is unsure it asks a clarifying question you can answer
inline or resolve with a forced store/find choice.

Run without arguments to start the interactive chat interface.`,
	RunE: runChat,
}

// loadConfig resolves configuration from file, environment and flags, in
// ascending precedence.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.Service.BaseURL = baseURL
	}
	if apiKey != "" {
		cfg.Service.APIKey = apiKey
	}
	if language != "" {
		cfg.Chat.PreferredLanguage = language
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newClient builds the decision client from config.
func newClient(cfg *config.Config) (*decision.Client, error) {
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}
	return decision.NewClient(decision.Config{
		BaseURL: cfg.Service.BaseURL,
		APIKey:  cfg.Service.APIKey,
		Timeout: timeout,
		Logger:  logger,
	})
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The UI owns the terminal, so logs go to a file.
	logCfg := cfg.Logging
	if logCfg.File == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			logCfg.File = filepath.Join(home, ".memochat", "memochat.log")
			_ = os.MkdirAll(filepath.Dir(logCfg.File), 0755)
		}
	}
	logger, err = logging.New(logCfg, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	// Non-fatal liveness probe; a dead service still gets a usable UI that
	// reports errors per message.
	probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if health, err := client.Health(probeCtx); err != nil {
		logger.Warn("memory service unreachable", zap.Error(err))
	} else {
		logger.Info("memory service healthy",
			zap.String("service", health.Service), zap.String("version", health.Version))
	}
	cancel()

	timeout, _ := cfg.RequestTimeout()
	orch := conversation.New(client, conversation.Options{
		PreferredLanguage: cfg.Chat.PreferredLanguage,
		Timeout:           timeout,
		Logger:            logger,
	})

	// Live-reload the preferred language when the config file changes.
	watchPath := configPath
	if watchPath == "" {
		watchPath = config.DefaultPath()
	}
	if watcher, err := config.NewWatcher(watchPath, func(fresh *config.Config) {
		orch.SetLanguage(fresh.Chat.PreferredLanguage)
	}, logger); err == nil {
		if err := watcher.Start(); err != nil {
			logger.Warn("config watcher failed to start", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	model := chat.NewModel(chat.Config{Orchestrator: orch, Logger: logger})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := program.Run()
	orch.Shutdown()
	return runErr
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the memochat version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("memochat %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default $HOME/.memochat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "memory service base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key sent as X-API-Key")
	rootCmd.PersistentFlags().StringVar(&language, "lang", "", "preferred answer language (e.g. he, en)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(reviseCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
