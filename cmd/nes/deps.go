package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/navayuwa/nes-core/internal/domain/ports"
	"github.com/navayuwa/nes-core/internal/domain/services"
	"github.com/navayuwa/nes-core/internal/infrastructure/config"
	"github.com/navayuwa/nes-core/internal/infrastructure/recordstore/file"
	translate "github.com/navayuwa/nes-core/internal/infrastructure/translate/openai"
)

// Deps holds high-level dependencies for commands.
type Deps struct {
	Config      *config.Config
	Store       *file.Store
	Publication *services.PublicationService
	Search      *services.SearchService
	Log         *slog.Logger
}

// withDeps loads config and builds dependencies, then calls the
// provided function. It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := file.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening record store: %w", err)
	}
	defer store.Close()

	deps := &Deps{
		Config:      cfg,
		Store:       store,
		Publication: services.NewPublicationService(store, nil, log),
		Search:      services.NewSearchService(store),
		Log:         log,
	}

	return fn(deps)
}

// translator builds the configured name translator, or nil when no API
// key is available.
func (d *Deps) translator() ports.Translator {
	if d.Config.Translator.APIKey == "" {
		return nil
	}
	tr, err := translate.NewTranslator(d.Config.Translator)
	if err != nil {
		d.Log.Warn("translator unavailable", "error", err)
		return nil
	}
	return tr
}
