// Package pipeline runs one extraction-to-completion pass: URL list →
// cache snapshot → concurrent extraction → prompt assembly → streamed
// completion.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/DonatoReis/lynx/internal/completion"
	"github.com/DonatoReis/lynx/internal/extract"
	"github.com/DonatoReis/lynx/internal/model"
	"github.com/DonatoReis/lynx/internal/prompt"
	"github.com/DonatoReis/lynx/internal/store"
)

// NoProductsResult is the informational result when extraction finds
// nothing across all URLs. The run still completes normally.
const NoProductsResult = "Nenhum produto encontrado nas URLs fornecidas."

// Extractor produces product records for a URL list.
type Extractor interface {
	ExtractAll(ctx context.Context, urls []string, snapshot map[string]store.Entry) []string
}

// Runner executes pipeline runs.
type Runner struct {
	store     store.Store
	extractor Extractor
	completer completion.Completer
	urlsFile  string
	prompts   model.Prompts
}

// New creates a Runner.
func New(st store.Store, ex Extractor, cp completion.Completer, urlsFile string, prompts model.Prompts) *Runner {
	return &Runner{
		store:     st,
		extractor: ex,
		completer: cp,
		urlsFile:  urlsFile,
		prompts:   prompts,
	}
}

// Run executes one pipeline pass for the collected answers, streaming
// chunks through sink, and returns the final text. Errors never escape as
// panics; the run boundary recovers and reports.
func (r *Runner) Run(ctx context.Context, answers map[string]string, sink model.EventSink) (final string, err error) {
	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("pipeline run panicked", zap.Any("panic", p))
			final = ""
			err = eris.Errorf("pipeline: panic: %v", p)
		}
	}()

	start := time.Now()

	urls := extract.ReadURLFile(r.urlsFile)

	// One snapshot per run; extraction reads it, writes go to the store.
	snapshot, err := r.store.Load(ctx)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: load cache")
	}

	products := r.extractor.ExtractAll(ctx, urls, snapshot)
	zap.L().Info("extraction finished",
		zap.Int("urls", len(urls)),
		zap.Int("products", len(products)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if len(products) == 0 {
		return NoProductsResult, nil
	}

	system, user, err := prompt.Assemble(products, answers, r.prompts.Template, r.prompts.SystemMessage)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: assemble prompt")
	}

	zap.L().Info("prompt assembled", zap.Int("chars", len(user)))
	zap.L().Debug("prompt sent", zap.String("prompt", user))

	final, err = r.completer.Complete(ctx, system, user, sink.StreamChunk)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: complete")
	}

	zap.L().Info("pipeline run finished", zap.Duration("elapsed", time.Since(start)))
	return final, nil
}
