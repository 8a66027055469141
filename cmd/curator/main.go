package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/curator/internal/app"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/server"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP  = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	runOnce      = flag.Bool("run", false, "Run one reconciliation batch and exit")
	enrich       = flag.Bool("enrich", false, "Fill in missing author descriptions, then exit")
	translate    = flag.String("translate", "", "Translate one article page's content to stdout, then exit")
	cleanup      = flag.String("cleanup", "", "Strip stale author relations from articles with this status, then exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Curator version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Merge port flags (shorthand takes precedence)
	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("curator.toml"); err == nil {
			configFiles = append(configFiles, "curator.toml")
		} else if _, err := os.Stat("deployments/local/curator.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/curator.toml")
		}
	}

	// Load configuration (default -> file1 -> file2 -> ... -> env -> CLI)
	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, finalPort, *serverHost)

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Int("port", config.Server.Port).
		Str("host", config.Server.Host).
		Msg("Application configuration loaded")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	// One-shot modes bypass the server entirely
	if *cleanup != "" {
		cleaned, err := application.Workflow.RemoveUnknownAuthors(context.Background(), *cleanup)
		if err != nil {
			logger.Fatal().Err(err).Msg("Cleanup failed")
			os.Exit(1)
		}
		logger.Info().Int("cleaned", cleaned).Msg("Cleanup finished")
		return
	}
	if *translate != "" {
		translated, err := application.Workflow.TranslateArticle(context.Background(), *translate)
		if err != nil {
			logger.Fatal().Err(err).Str("page_id", *translate).Msg("Translation failed")
			os.Exit(1)
		}
		fmt.Println(translated)
		return
	}
	if *enrich {
		enriched, err := application.Workflow.EnrichAuthors(context.Background())
		if err != nil {
			logger.Fatal().Err(err).Msg("Author enrichment failed")
			os.Exit(1)
		}
		logger.Info().Int("enriched", enriched).Msg("Author enrichment finished")
		return
	}
	if *runOnce {
		runID, failed, err := application.Workflow.Run(context.Background())
		if err != nil {
			logger.Fatal().Err(err).Msg("Reconciliation run failed")
			os.Exit(1)
		}
		logger.Info().
			Str("run_id", runID).
			Int("failed", failed).
			Msg("Reconciliation run finished")
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	if err := application.StartSchedule(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start schedule")
		os.Exit(1)
	}

	srv := server.New(application)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("Server ready - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}
