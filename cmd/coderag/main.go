// Package main is the entry point for the coderag CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coderag/internal/config"
	"coderag/internal/domain"
	"coderag/internal/embedding"
	"coderag/internal/service"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

type appFlags struct {
	configPath string
	debug      bool
}

func rootCmd() *cobra.Command {
	flags := &appFlags{}
	cmd := &cobra.Command{
		Use:   "coderag",
		Short: "Semantic code search over Git repositories",
		Long: `coderag clones Git repositories, indexes their files with embedding
vectors, and answers natural-language code search queries by cosine
similarity. It can also serve the same operations as MCP tools on stdio.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"path to config YAML (default: ./config.yaml, then ~/.config/coderag/config.yaml)")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(cloneCmd(flags))
	cmd.AddCommand(indexCmd(flags))
	cmd.AddCommand(searchCmd(flags))
	cmd.AddCommand(getCmd(flags))
	cmd.AddCommand(serveCmd(flags))
	cmd.AddCommand(versionCmd())

	return cmd
}

func loadConfig(flags *appFlags) (*config.AppConfig, error) {
	if flags.configPath != "" {
		return config.Load(flags.configPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "openai", "":
		return embedding.NewOpenAIClient(embedding.OpenAIConfig{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown embedder type: %s", cfg.Embedder.Type)
	}
}

// buildService assembles the application service from configuration. The
// returned logger should be synced before exit.
func buildService(flags *appFlags) (*service.Service, *zap.Logger, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(flags.debug)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := service.New(emb, service.Config{
		IndicesDir:     cfg.Storage.IndicesDir,
		ReposDir:       cfg.Clone.ReposDir,
		BatchSize:      cfg.Embedder.BatchSize,
		DefaultTopK:    cfg.Search.DefaultTopK,
		PersistOnWrite: cfg.PersistOnWrite(),
	}, service.WithLogger(logger))
	return svc, logger, nil
}
