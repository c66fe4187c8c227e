// Package cardops is the operations layer of the card engine: one
// *Engine, one method per public operation, mirroring kenaz's
// noteservice.Service shape. It is the only package allowed to touch both
// internal/store and internal/cardfile in the same call — everything
// above it (HTTP, MCP tools, CLI, the watcher) goes through here.
package cardops

import (
	"log/slog"

	"github.com/cardengine/cardengine/internal/keylock"
	"github.com/cardengine/cardengine/internal/models"
	"github.com/cardengine/cardengine/internal/retry"
	"github.com/cardengine/cardengine/internal/store"
)

// SymbolIndexer is the opaque external capability that resolves code-link
// symbols. The engine degrades gracefully to its absence everywhere except
// resolveCardCodeLinks/validateCodeLinks, which require it.
type SymbolIndexer interface {
	// FindSymbols returns every symbol named name declared in file.
	FindSymbols(name, file string) ([]Symbol, error)
}

// Symbol is a single match returned by a SymbolIndexer.
type Symbol struct {
	Name string
	File string
	Kind string
}

// EventPublisher receives a lifecycle event after a successful write
// operation. The SSE broker implements this; nil is a valid no-op.
type EventPublisher interface {
	Publish(event CardEvent)
}

// Config bundles the construction-time dependencies of an Engine.
type Config struct {
	Store                *store.Store
	CardsDir             string
	AllowedRelationTypes []string
	Locks                *keylock.Map
	Retry                retry.Options
	SymbolIndexer        SymbolIndexer // optional
	Publisher            EventPublisher // optional
	Logger               *slog.Logger   // optional, defaults to slog.Default()
}

// Engine implements every operation named in spec.md §4.7 plus the
// supplemented maintenance operations in SPEC_FULL.md §4.7.
type Engine struct {
	store     *store.Store
	cardsDir  string
	relTypes  map[string]struct{}
	locks     *keylock.Map
	retryOpts retry.Options
	indexer   SymbolIndexer
	publisher EventPublisher
	log       *slog.Logger
}

// New constructs an Engine from cfg. CardsDir and Store are required.
func New(cfg Config) *Engine {
	rt := make(map[string]struct{}, len(cfg.AllowedRelationTypes))
	for _, t := range cfg.AllowedRelationTypes {
		rt[t] = struct{}{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	locks := cfg.Locks
	if locks == nil {
		locks = keylock.New()
	}
	return &Engine{
		store:     cfg.Store,
		cardsDir:  cfg.CardsDir,
		relTypes:  rt,
		locks:     locks,
		retryOpts: cfg.Retry,
		indexer:   cfg.SymbolIndexer,
		publisher: cfg.Publisher,
		log:       logger,
	}
}

// CardsDir returns the configured cards directory root, for callers (MCP
// tools, HTTP handlers) that need to resolve paths outside the engine's own
// operations, e.g. an attachments/ subfolder alongside the card tree.
func (e *Engine) CardsDir() string {
	return e.cardsDir
}

func (e *Engine) publish(kind models.EventKind, key string) {
	if e.publisher == nil {
		return
	}
	e.publisher.Publish(newEvent(kind, key))
}

func (e *Engine) checkRelationTypes(rels []RelationInput) error {
	if len(e.relTypes) == 0 {
		return nil
	}
	for _, r := range rels {
		if _, ok := e.relTypes[r.Type]; !ok {
			return relationTypeError(r.Type)
		}
	}
	return nil
}
