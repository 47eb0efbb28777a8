package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/echoforge/echoforge/agent"
	"github.com/echoforge/echoforge/config"
	"github.com/echoforge/echoforge/llm"
	"github.com/echoforge/echoforge/memory"
	"github.com/echoforge/echoforge/storage"
	"github.com/echoforge/echoforge/workflow"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "echoforge",
	Short: "EchoForge crafts responses in your own voice",
	Long: `EchoForge is a conversational agent that collects a post (platform,
title, content), confirms it, and generates a response matching your
communication style, grounded in your profile and past interactions.`,
}

// Execute runs the CLI.
func Execute() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/echoforge.yaml", "Path to the YAML config file")
}

// buildAgent assembles the full stack from config and environment.
func buildAgent(ctx context.Context) (*agent.Agent, config.Config, error) {
	cfg := config.Load(configPath)

	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return nil, cfg, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
	}
	client := anthropic.NewClient()
	model := llm.NewAnthropic(&client, cfg.LLMModel, cfg.LLMTemperature)

	emb, err := newEmbedder()
	if err != nil {
		return nil, cfg, fmt.Errorf("embedder: %w", err)
	}
	mem, err := memory.NewStore(storage.NewFileStore(cfg.DataDir), emb)
	if err != nil {
		return nil, cfg, fmt.Errorf("memory store: %w", err)
	}
	if err := mem.Reindex(ctx); err != nil {
		log.Printf("[MEMORY] Reindex failed: %v, starting with an empty index", err)
	}

	a, err := agent.New(cfg, model, mem, newCheckpointStore(cfg))
	if err != nil {
		return nil, cfg, fmt.Errorf("agent: %w", err)
	}
	return a, cfg, nil
}

// newCheckpointStore picks the checkpoint backend: Redis when
// ECHOFORGE_REDIS_ADDR is set, otherwise files under the cache dir.
func newCheckpointStore(cfg config.Config) workflow.CheckpointStore {
	if addr := os.Getenv("ECHOFORGE_REDIS_ADDR"); addr != "" {
		log.Printf("[AGENT] Using Redis checkpoints at %s", addr)
		return storage.NewRedisStore(addr, os.Getenv("ECHOFORGE_REDIS_PASSWORD"), 0,
			storage.WithTTL(24*time.Hour))
	}
	return storage.NewFileStore(filepath.Join(cfg.CacheDir, "checkpoints"))
}
