package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"memochat/internal/config"
	"memochat/internal/conversation"
	"memochat/internal/decision"
	"memochat/internal/logging"
)

// One-shot subcommands for scripting against the memory service without the
// interactive UI. They share the config/flag resolution of the chat mode.

func cliSetup() (*config.Config, *decision.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err = logging.New(cfg.Logging, verbose)
	if err != nil {
		return nil, nil, err
	}
	client, err := newClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

func cliContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

var sendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Send one message and let the service decide what to do with it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := cliSetup()
		if err != nil {
			return err
		}
		ctx, cancel := cliContext()
		defer cancel()

		text := strings.Join(args, " ")
		env, err := client.Auto(ctx, text, decision.AutoOptions{
			PreferredLanguage: cfg.Chat.PreferredLanguage,
		})
		if err != nil {
			return err
		}

		out := conversation.Classify(env, cfg.Chat.PreferredLanguage, text)
		fmt.Println(out.Text)
		if n := len(out.More); n > 0 {
			fmt.Printf("Also found %d more:\n", n)
			for _, candidate := range out.More {
				fmt.Printf("  • %s\n", candidate.Text)
			}
		}
		for _, option := range out.ClarifyOptions {
			fmt.Printf("  option: %s\n", option)
		}
		return nil
	},
}

var storeCmd = &cobra.Command{
	Use:   "store <text>",
	Short: "Store a memory directly, without classification",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := cliSetup()
		if err != nil {
			return err
		}
		ctx, cancel := cliContext()
		defer cancel()

		result, err := client.StoreMemory(ctx, strings.Join(args, " "), cfg.Chat.PreferredLanguage)
		if err != nil {
			return err
		}
		if result.DuplicateDetected {
			fmt.Printf("Already saved (%s): %s\n", result.MemoryID, result.ExistingMemoryPreview)
			return nil
		}
		fmt.Printf("Saved as %s\n", result.MemoryID)
		return nil
	},
}

var queryTopK int

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Search stored memories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := cliSetup()
		if err != nil {
			return err
		}
		ctx, cancel := cliContext()
		defer cancel()

		result, err := client.Query(ctx, strings.Join(args, " "), queryTopK)
		if err != nil {
			return err
		}
		if len(result.Candidates) == 0 {
			fmt.Println("No results")
			return nil
		}
		for _, candidate := range result.Candidates {
			fmt.Printf("%.2f  %s  %s\n", candidate.SimilarityScore, candidate.MemoryID, candidate.Text)
		}
		return nil
	},
}

var reviseCmd = &cobra.Command{
	Use:   "revise <memory-id> <new text>",
	Short: "Rewrite an existing memory",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := cliSetup()
		if err != nil {
			return err
		}
		ctx, cancel := cliContext()
		defer cancel()

		result, err := client.Update(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("update failed: %s", result.Error)
		}
		fmt.Printf("Before: %s\nAfter:  %s\n", result.Before, result.After)
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget <memory-id>",
	Short: "Delete a memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := cliSetup()
		if err != nil {
			return err
		}
		ctx, cancel := cliContext()
		defer cancel()

		result, err := client.Delete(ctx, args[0])
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("delete failed: %s", result.Error)
		}
		fmt.Printf("Forgot: %s\n", result.DeletedText)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the memory service is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := cliSetup()
		if err != nil {
			return err
		}
		ctx, cancel := cliContext()
		defer cancel()

		health, err := client.Health(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s: %s\n", health.Service, health.Version, health.Status)
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVar(&queryTopK, "top", 3, "number of results to return")
}
