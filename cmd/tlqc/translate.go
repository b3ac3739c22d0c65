package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oukeidos/tlqc/internal/cleanup"
	"github.com/oukeidos/tlqc/internal/files"
	"github.com/oukeidos/tlqc/internal/logger"
	"github.com/oukeidos/tlqc/internal/pipeline"
	"github.com/oukeidos/tlqc/internal/prompt"
	"github.com/spf13/cobra"
)

type translateOptions struct {
	configPath   string
	provider     string
	baseURL      string
	modelName    string
	temperature  float64
	topP         float64
	batchSize    int
	contextSize  int
	concurrency  int
	maxRounds    int
	local        bool
	textPreserve bool
	glossary     bool
	autoGlossary bool
	glossaryPath string
	yes          bool
	logFilePath  string
	sourceLang   string
	targetLang   string
	allowEnv     bool
	envOnly      bool
	debug        bool
}

func newTranslateCmd() *cobra.Command {
	opts := translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate <input> <output>",
		Short: "Translate a document with response validation and retry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				_ = cmd.Usage()
				return fmt.Errorf("input and output files are required")
			}
			return runTranslate(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addTranslateFlags(cmd, &opts)
	return cmd
}

func addTranslateFlags(cmd *cobra.Command, opts *translateOptions) {
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to TOML config file")
	cmd.Flags().StringVar(&opts.provider, "provider", "gemini", "LLM provider (gemini or openai)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Override the provider API endpoint")
	cmd.Flags().StringVar(&opts.modelName, "model", "gemini-3-flash-preview", "Model name")
	cmd.Flags().Float64Var(&opts.temperature, "temperature", 1.0, "Sampling temperature")
	cmd.Flags().Float64Var(&opts.topP, "top-p", 0, "Nucleus sampling mass (0 = provider default)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 16, "Number of lines per request")
	cmd.Flags().IntVar(&opts.contextSize, "context-size", 5, "Number of preceding lines sent as context")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 7, "Number of concurrent API requests (1-20)")
	cmd.Flags().IntVar(&opts.maxRounds, "max-rounds", 3, "Translation rounds before giving up on failed lines")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Simplified prompt for small local models")
	cmd.Flags().BoolVar(&opts.textPreserve, "text-preserve", false, "Protect bracketed spans from validation checks")
	cmd.Flags().BoolVar(&opts.glossary, "glossary", false, "Inject the saved glossary into prompts")
	cmd.Flags().BoolVar(&opts.autoGlossary, "auto-glossary", false, "Collect glossary terms from model replies")
	cmd.Flags().StringVar(&opts.glossaryPath, "glossary-path", "", "Path to the glossary JSON file")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Overwrite output file without asking")
	cmd.Flags().StringVar(&opts.logFilePath, "log-file", "", "Path to save machine-readable JSONL logs")
	cmd.Flags().StringVar(&opts.sourceLang, "source", "ja", "Source language code (default: ja)")
	cmd.Flags().StringVar(&opts.targetLang, "target", "zh", "Target language code (default: zh)")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API key from environment variables")
	cmd.Flags().BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
}

func runTranslate(cmd *cobra.Command, args []string, opts *translateOptions) error {
	if len(args) < 2 {
		return fmt.Errorf("input and output files are required")
	}
	if len(args) > 2 {
		fmt.Fprintf(os.Stderr, "Warning: expected 2 arguments but got %d. Did you forget quotes around file paths?\n", len(args))
		fmt.Fprintf(os.Stderr, "  Using input: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "  Using output: %s\n", args[1])
	}

	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	var logFileW io.Writer
	if opts.logFilePath != "" {
		if err := files.RejectSymlinkPath(opts.logFilePath); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register(f.Close)
		logFileW = f
	}
	logger.Init(logLevel, logFileW)

	startTime := time.Now()

	cfg := pipeline.Config{
		InputPath:           args[0],
		OutputPath:          args[1],
		LogPath:             opts.logFilePath,
		GlossaryPath:        opts.glossaryPath,
		Provider:            opts.provider,
		BaseURL:             opts.baseURL,
		Model:               opts.modelName,
		Temperature:         opts.temperature,
		TopP:                opts.topP,
		BatchSize:           opts.batchSize,
		ContextSize:         opts.contextSize,
		Concurrency:         opts.concurrency,
		MaxRounds:           opts.maxRounds,
		Local:               opts.local,
		TextPreserve:        opts.textPreserve,
		GlossaryEnabled:     opts.glossary,
		AutoGlossaryEnabled: opts.autoGlossary,
		SourceLang:          opts.sourceLang,
		TargetLang:          opts.targetLang,
		Overwrite:           opts.yes,
	}
	if opts.configPath != "" {
		if err := cfg.LoadFile(opts.configPath); err != nil {
			return err
		}
		applyFlagOverrides(cmd, opts, &cfg)
	}

	actualKey, source, err := resolveAPIKey(cfg.Provider, opts.allowEnv, opts.envOnly)
	if err != nil {
		return err
	}
	cfg.APIKey = actualKey
	logger.Info("Using API Key", "service", cfg.Provider, "source", source)

	cb := pipeline.Callbacks{
		OnConfirmOverwrite: func(path string) bool {
			confirmed, err := prompt.DefaultConfirmer().ConfirmOverwrite(path, opts.yes)
			if err != nil {
				logger.Error("Overwrite confirmation failed", "error", err)
				return false
			}
			return confirmed
		},
		OnGlossaryRefresh: func() {
			logger.Debug("Glossary saved", "path", cfg.GlossaryPath)
		},
	}

	ctx, stop := signalContext()
	defer stop()
	result, err := pipeline.RunTranslation(ctx, cfg, cb)

	printUsageStats(result, time.Since(startTime), cfg.Model)

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Translation canceled", "error", err)
			return nil
		}
		return err
	}

	return translationStatusError(result)
}

// applyFlagOverrides re-applies explicitly set flags on top of the
// config file, so the file fills gaps but never overrides the command line.
func applyFlagOverrides(cmd *cobra.Command, opts *translateOptions, cfg *pipeline.Config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("provider") {
		cfg.Provider = opts.provider
	}
	if set("base-url") {
		cfg.BaseURL = opts.baseURL
	}
	if set("model") {
		cfg.Model = opts.modelName
	}
	if set("temperature") {
		cfg.Temperature = opts.temperature
	}
	if set("top-p") {
		cfg.TopP = opts.topP
	}
	if set("batch-size") {
		cfg.BatchSize = opts.batchSize
	}
	if set("context-size") {
		cfg.ContextSize = opts.contextSize
	}
	if set("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	if set("max-rounds") {
		cfg.MaxRounds = opts.maxRounds
	}
	if set("local") {
		cfg.Local = opts.local
	}
	if set("text-preserve") {
		cfg.TextPreserve = opts.textPreserve
	}
	if set("glossary") {
		cfg.GlossaryEnabled = opts.glossary
	}
	if set("auto-glossary") {
		cfg.AutoGlossaryEnabled = opts.autoGlossary
	}
	if set("glossary-path") {
		cfg.GlossaryPath = opts.glossaryPath
	}
	if set("source") {
		cfg.SourceLang = opts.sourceLang
	}
	if set("target") {
		cfg.TargetLang = opts.targetLang
	}
}

func translationStatusError(result pipeline.TranslationResult) error {
	switch result.Status {
	case pipeline.TranslationStatusSuccess:
		return nil
	case pipeline.TranslationStatusSkipped:
		return nil
	case pipeline.TranslationStatusPartialSuccess, pipeline.TranslationStatusFailure:
		return fmt.Errorf("translation finished with status: %s (%d/%d lines translated)",
			result.Status, result.TranslatedUnits, result.TotalUnits)
	default:
		return fmt.Errorf("translation finished with unknown status: %q", result.Status)
	}
}
