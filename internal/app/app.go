// Package app owns process-wide handles: provider clients are constructed
// lazily, once, behind a mutex, and reused across pipeline invocations.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/card-analyzer/internal/analyzer"
	"github.com/jonathan/card-analyzer/internal/certification"
	"github.com/jonathan/card-analyzer/internal/config"
	"github.com/jonathan/card-analyzer/internal/db"
	"github.com/jonathan/card-analyzer/internal/description"
	"github.com/jonathan/card-analyzer/internal/embedding"
	"github.com/jonathan/card-analyzer/internal/extraction"
	"github.com/jonathan/card-analyzer/internal/llm"
	"github.com/jonathan/card-analyzer/internal/search"
	"github.com/jonathan/card-analyzer/internal/vectorstore"
)

// App lazily constructs and caches the shared service clients.
type App struct {
	Config *config.Config

	mu       sync.Mutex
	llm      llm.Client
	embedder *embedding.Client
	store    *vectorstore.Store
	analyzer *analyzer.Analyzer
	engine   *search.Engine
	database *db.DB
}

// New creates an App around a resolved configuration. No connections are
// opened until a component is first requested.
func New(cfg *config.Config) *App {
	return &App{Config: cfg}
}

// LLM returns the shared Gemini client.
func (a *App) LLM(ctx context.Context) (llm.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.llm != nil {
		return a.llm, nil
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), a.Config.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.llm = client
	return a.llm, nil
}

// Embedder returns the shared embedding client.
func (a *App) Embedder() (*embedding.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.embedder != nil {
		return a.embedder, nil
	}

	client, err := embedding.NewClient(a.Config.EmbeddingConfig())
	if err != nil {
		return nil, err
	}
	a.embedder = client
	return a.embedder, nil
}

// Store returns the shared vector store, creating the collections on first use.
func (a *App) Store(ctx context.Context) (*vectorstore.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		return a.store, nil
	}

	store, err := vectorstore.New(a.Config.VectorStoreConfig())
	if err != nil {
		return nil, err
	}
	if err := store.EnsureCollections(ctx, embedding.TextDims, embedding.ImageDims); err != nil {
		store.Close()
		return nil, err
	}
	a.store = store
	return a.store, nil
}

// DB returns the run-tracking database, or nil when DATABASE_URL is unset.
func (a *App) DB(ctx context.Context) (*db.DB, error) {
	if a.Config.DatabaseURL == "" {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.database != nil {
		return a.database, nil
	}

	database, err := db.New(ctx, a.Config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.database = database
	return a.database, nil
}

// Analyzer returns the fully wired pipeline analyzer.
func (a *App) Analyzer(ctx context.Context) (*analyzer.Analyzer, error) {
	a.mu.Lock()
	cached := a.analyzer
	a.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	llmClient, err := a.LLM(ctx)
	if err != nil {
		return nil, err
	}
	embedder, err := a.Embedder()
	if err != nil {
		return nil, err
	}
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}

	extractor := extraction.NewExtractor(llmClient)

	verifier := certification.NewVerifier(
		certification.WithBaseURL(a.Config.CertRegistryBaseURL),
		certification.WithBrowserFallback(a.Config.UseBrowser),
		certification.WithVerbose(a.Config.Verbose),
	)

	describer, err := description.NewDescriber(ctx, llmClient,
		a.Config.GoogleSearchAPIKey, a.Config.GoogleSearchCX,
		a.Config.ExpectedSport, a.Config.Verbose)
	if err != nil {
		return nil, err
	}

	built := analyzer.New(extractor, verifier, describer, embedder, store, a.Config.ExpectedSport)

	a.mu.Lock()
	if a.analyzer == nil {
		a.analyzer = built
	}
	cached = a.analyzer
	a.mu.Unlock()
	return cached, nil
}

// SearchEngine returns the hybrid search engine.
func (a *App) SearchEngine(ctx context.Context) (*search.Engine, error) {
	a.mu.Lock()
	cached := a.engine
	a.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	embedder, err := a.Embedder()
	if err != nil {
		return nil, err
	}
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}

	built := search.NewEngine(embedder, store, a.Config.Thresholds, a.Config.Verbose)

	a.mu.Lock()
	if a.engine == nil {
		a.engine = built
	}
	cached = a.engine
	a.mu.Unlock()
	return cached, nil
}

// Close releases every client the App has constructed.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.llm != nil {
		a.llm.Close()
		a.llm = nil
	}
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
	if a.database != nil {
		a.database.Close()
		a.database = nil
	}
	a.analyzer = nil
	a.engine = nil
}
