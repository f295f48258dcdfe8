package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/DonatoReis/lynx/internal/completion"
	"github.com/DonatoReis/lynx/internal/extract"
	"github.com/DonatoReis/lynx/internal/model"
	"github.com/DonatoReis/lynx/internal/pipeline"
	"github.com/DonatoReis/lynx/internal/registry"
	"github.com/DonatoReis/lynx/internal/store"
	"github.com/DonatoReis/lynx/pkg/anthropic"
)

// initStore opens the configured cache backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Cache.TTL())
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.Path, cfg.Cache.TTL())
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initRunner wires the extraction-to-completion pipeline for the loaded
// questionnaire.
func initRunner(st store.Store, q *model.Questionnaire) *pipeline.Runner {
	extractor := extract.New(st, extract.Config{
		Timeout:       cfg.Fetch.Timeout(),
		RatePerSec:    cfg.Fetch.RatePerSec,
		TitleSelector: cfg.Fetch.TitleSelector,
		DescSelector:  cfg.Fetch.DescSelector,
	})
	aiClient := anthropic.NewClient(cfg.Anthropic.Key)
	completer := completion.NewClient(aiClient, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	return pipeline.New(st, extractor, completer, cfg.Chat.URLsFile, q.Prompts)
}

// loadQuestionnaire reads the configured questionnaire definition.
func loadQuestionnaire() (*model.Questionnaire, error) {
	q, err := registry.Load(cfg.Chat.Questionnaire)
	if err != nil {
		return nil, eris.Wrap(err, "load questionnaire")
	}
	return q, nil
}
