// Package pipeline wires the full translation session: load the
// document, run translation rounds until everything is accepted or the
// round budget is spent, then write the output.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oukeidos/tlqc/internal/document"
	"github.com/oukeidos/tlqc/internal/engine"
	"github.com/oukeidos/tlqc/internal/files"
	"github.com/oukeidos/tlqc/internal/gemini"
	"github.com/oukeidos/tlqc/internal/glossary"
	"github.com/oukeidos/tlqc/internal/language"
	"github.com/oukeidos/tlqc/internal/llm"
	"github.com/oukeidos/tlqc/internal/logger"
	"github.com/oukeidos/tlqc/internal/openai"
	"github.com/oukeidos/tlqc/internal/prompt"
	"github.com/oukeidos/tlqc/internal/task"
)

// TranslationStatus is the terminal state of a translation run.
type TranslationStatus string

const (
	TranslationStatusSuccess        TranslationStatus = "Success"
	TranslationStatusPartialSuccess TranslationStatus = "Partial Success"
	TranslationStatusFailure        TranslationStatus = "Failure"
	TranslationStatusSkipped        TranslationStatus = "Skipped"
)

// TranslationResult contains structured outputs from RunTranslation.
type TranslationResult struct {
	Status          TranslationStatus
	OutputPath      string
	Usage           engine.Usage
	TranslatedUnits int
	TotalUnits      int
	Rounds          int
}

// Callbacks are optional hooks into the session. OnConfirmOverwrite is
// consulted when the output file exists; nil falls back to the
// Overwrite flag.
type Callbacks struct {
	OnConfirmOverwrite func(path string) bool
	OnGlossaryRefresh  func()
}

// RunTranslation executes the full translation pipeline.
func RunTranslation(ctx context.Context, cfg Config, cb Callbacks) (TranslationResult, error) {
	var notes []string
	cfg, notes = cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return TranslationResult{}, fmt.Errorf("invalid configuration: %w", err)
	}

	absIn, err := filepath.Abs(cfg.InputPath)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to resolve input path: %w", err)
	}
	absOut, err := filepath.Abs(cfg.OutputPath)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to resolve output path: %w", err)
	}
	if absIn == absOut {
		return TranslationResult{}, fmt.Errorf("input and output files are the same (%s)", absIn)
	}
	if err := files.RejectSymlinkPath(cfg.OutputPath); err != nil {
		return TranslationResult{}, err
	}

	shouldOverwrite := cfg.Overwrite
	outputExists := false
	if _, err := os.Stat(cfg.OutputPath); err == nil {
		outputExists = true
		if cb.OnConfirmOverwrite != nil {
			shouldOverwrite = cb.OnConfirmOverwrite(cfg.OutputPath)
		}
		if !shouldOverwrite {
			logger.Info("Output file exists. Aborted by user.", "path", cfg.OutputPath)
			return TranslationResult{Status: TranslationStatusSkipped}, nil
		}
		logger.Info("Overwriting output file", "path", cfg.OutputPath)
	}

	srcLang, ok := language.GetLanguage(cfg.SourceLang)
	if !ok {
		return TranslationResult{}, fmt.Errorf("unsupported source language: %s", cfg.SourceLang)
	}
	tgtLang, ok := language.GetLanguage(cfg.TargetLang)
	if !ok {
		return TranslationResult{}, fmt.Errorf("unsupported target language: %s", cfg.TargetLang)
	}
	if srcLang.Code == tgtLang.Code {
		return TranslationResult{}, fmt.Errorf("source and target languages must be different (%s)", srcLang.Code)
	}

	units, err := document.Load(cfg.InputPath)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to load document: %w", err)
	}
	logger.Info("Loaded document", "units", len(units), "path", cfg.InputPath)

	store, err := glossary.Load(cfg.GlossaryPath, cb.OnGlossaryRefresh)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to load glossary: %w", err)
	}
	gate := glossary.NewGate(glossary.SaveInterval)
	merger := glossary.NewMerger(store, gate, cfg.GlossaryEnabled && cfg.AutoGlossaryEnabled)

	requester, closer, err := newRequester(ctx, cfg)
	if err != nil {
		return TranslationResult{}, err
	}
	if closer != nil {
		defer closer()
	}

	builder := prompt.NewBuilder(srcLang, tgtLang)
	if cfg.GlossaryEnabled {
		builder.SetGlossary(store.Entries())
	}

	deps := task.Deps{
		Requester: requester,
		Builder:   builder,
		Merger:    merger,
		Params: llm.Params{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		},
		Src:      srcLang,
		Tgt:      tgtLang,
		Preserve: cfg.TextPreserve,
	}
	eng := engine.New(deps, cfg.Concurrency)

	logger.Info("Starting translation", "provider", cfg.Provider, "model", cfg.Model)
	rounds := 0
	for round := 1; round <= cfg.MaxRounds; round++ {
		batches := document.BuildBatches(units, batchSizeForRound(cfg.BatchSize, round), cfg.ContextSize, cfg.Local)
		if len(batches) == 0 {
			break
		}
		rounds = round
		eng.Run(ctx, batches, round)
		if ctx.Err() != nil {
			break
		}
	}

	translated := 0
	for _, u := range units {
		if u.Status == document.Translated {
			translated++
		}
	}

	result := TranslationResult{
		Usage:           eng.GetUsage(),
		TranslatedUnits: translated,
		TotalUnits:      len(units),
		Rounds:          rounds,
	}
	switch {
	case translated == len(units):
		result.Status = TranslationStatusSuccess
	case translated > 0:
		result.Status = TranslationStatusPartialSuccess
	default:
		result.Status = TranslationStatusFailure
	}
	logger.Info("Translation finished", "status", result.Status,
		"translated", translated, "total", len(units), "rounds", rounds)

	if result.Status == TranslationStatusFailure {
		return result, nil
	}

	effectiveOutputPath := cfg.OutputPath
	if !(outputExists && shouldOverwrite) {
		// The file may have appeared between the initial check and now.
		safePath, changed, err := files.SafePath(cfg.OutputPath)
		if err != nil {
			return result, fmt.Errorf("failed to resolve output path: %w", err)
		}
		if changed {
			logger.Warn("Output path adjusted to avoid overwrite", "original", cfg.OutputPath, "effective", safePath)
			effectiveOutputPath = safePath
		}
	}

	if err := document.Save(effectiveOutputPath, cfg.InputPath, units); err != nil {
		return result, fmt.Errorf("failed to save output file: %w", err)
	}
	result.OutputPath = effectiveOutputPath
	logger.Info("Saved results", "path", effectiveOutputPath)
	return result, nil
}

// batchSizeForRound shrinks batches on later rounds so stubborn units
// are retried in isolation.
func batchSizeForRound(size, round int) int {
	if round <= 1 {
		return size
	}
	if round == 2 {
		if size > 8 {
			return 8
		}
		return size
	}
	return 1
}

func newRequester(ctx context.Context, cfg Config) (llm.Requester, func() error, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(cfg.APIKey, cfg.BaseURL), nil, nil
	default:
		client, err := gemini.NewClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client, client.Close, nil
	}
}
