// Package manager implements the indexer manager. It loads indexer
// configurations, builds one Indexer per enabled config via the adapter
// registry, and fans searches out across them in parallel, bounded to
// min(len(indexers), 5) concurrent workers.
package manager

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"shelfsearch/audiosearch/internal/adapter/registry"
	"shelfsearch/audiosearch/internal/domain"
	"shelfsearch/audiosearch/internal/indexer"
)

// maxParallelWorkers caps the manager's fan-out regardless of how many
// indexers are configured.
const maxParallelWorkers = 5

// perWorkerBudget bounds how long any single indexer's search may run
// before the manager gives up on it and contributes zero results.
const perWorkerBudget = 60 * time.Second

// ConfigLoader is the external collaborator that supplies indexer
// configurations (config file parsing lives with the caller). The manager
// only depends on this narrow interface.
type ConfigLoader interface {
	LoadIndexerConfigs() ([]domain.IndexerConfig, error)
}

// Manager holds the live set of indexers, addressable by key, sorted by
// (priority asc, key asc).
type Manager struct {
	loader   ConfigLoader
	registry *registry.Registry
	logger   *slog.Logger

	mu       sync.RWMutex
	indexers []*indexer.Indexer
	byKey    map[string]*indexer.Indexer
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New builds a Manager and performs the initial config load.
func New(loader ConfigLoader, reg *registry.Registry, opts ...Option) (*Manager, error) {
	m := &Manager{
		loader:   loader,
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload rebuilds the indexer set from the config collaborator. Skips
// disabled entries; no prior health state is preserved. The
// indexer map is replaced atomically so in-flight searches continue
// against the old set.
func (m *Manager) Reload() error {
	configs, err := m.loader.LoadIndexerConfigs()
	if err != nil {
		return err
	}

	enabled := make([]domain.IndexerConfig, 0, len(configs))
	for _, cfg := range configs {
		if cfg.Enabled {
			enabled = append(enabled, cfg)
		}
	}
	sort.Slice(enabled, func(i, j int) bool {
		if enabled[i].Priority != enabled[j].Priority {
			return enabled[i].Priority < enabled[j].Priority
		}
		return enabled[i].Key < enabled[j].Key
	})

	built := make([]*indexer.Indexer, 0, len(enabled))
	byKey := make(map[string]*indexer.Indexer, len(enabled))
	for _, cfg := range enabled {
		factory, err := m.registry.Resolve(cfg)
		if err != nil {
			m.logger.Warn("skipping indexer with unresolved adapter",
				slog.String("indexer", cfg.Key), slog.String("error", err.Error()))
			continue
		}
		idx := indexer.New(cfg, factory(cfg), indexer.WithLogger(m.logger))
		built = append(built, idx)
		byKey[cfg.Key] = idx
	}

	m.mu.Lock()
	m.indexers = built
	m.byKey = byKey
	m.mu.Unlock()
	return nil
}

func (m *Manager) snapshot() []*indexer.Indexer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*indexer.Indexer, len(m.indexers))
	copy(out, m.indexers)
	return out
}

// Search fans a query out across every available indexer. When
// parallel is true (the default), up to maxParallelWorkers indexers are
// queried concurrently, each bounded by perWorkerBudget; a worker that
// times out contributes nothing but does not fail the overall call. When
// parallel is false, indexers are queried one at a time (the sequential
// path exists for tests and single-indexer deployments).
func (m *Manager) Search(ctx context.Context, query, author, title string, limitPerIndexer int, parallel bool) []domain.Result {
	indexers := m.snapshot()
	if len(indexers) == 0 {
		return nil
	}
	if !parallel {
		return m.searchSequential(ctx, indexers, query, author, title, limitPerIndexer)
	}
	return m.searchParallel(ctx, indexers, query, author, title, limitPerIndexer)
}

func (m *Manager) searchSequential(ctx context.Context, indexers []*indexer.Indexer, query, author, title string, limit int) []domain.Result {
	var out []domain.Result
	for _, idx := range indexers {
		workerCtx, cancel := context.WithTimeout(ctx, perWorkerBudget)
		out = append(out, idx.Search(workerCtx, query, author, title, limit, 0)...)
		cancel()
	}
	return out
}

func (m *Manager) searchParallel(ctx context.Context, indexers []*indexer.Indexer, query, author, title string, limit int) []domain.Result {
	workers := len(indexers)
	if workers > maxParallelWorkers {
		workers = maxParallelWorkers
	}

	jobs := make(chan *indexer.Indexer)
	resultsCh := make(chan []domain.Result, len(indexers))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				resultsCh <- m.runOne(ctx, idx, query, author, title, limit)
			}
		}()
	}

	go func() {
		for _, idx := range indexers {
			jobs <- idx
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var merged []domain.Result
	for batch := range resultsCh {
		merged = append(merged, batch...)
	}
	return merged
}

// runOne drives one indexer's search under its own wall-clock budget.
// Panics inside an indexer's Search are never expected (adapters are pure
// and the indexer itself never panics on purpose), but a worker timing out
// must still contribute zero results without failing the batch.
func (m *Manager) runOne(ctx context.Context, idx *indexer.Indexer, query, author, title string, limit int) []domain.Result {
	workerCtx, cancel := context.WithTimeout(ctx, perWorkerBudget)
	defer cancel()

	done := make(chan []domain.Result, 1)
	go func() {
		done <- idx.Search(workerCtx, query, author, title, limit, 0)
	}()

	select {
	case results := <-done:
		return results
	case <-workerCtx.Done():
		m.logger.Warn("indexer worker exceeded budget", slog.String("indexer", idx.Key()))
		return nil
	}
}

// TestAll runs TestConnection against every loaded indexer and returns the
// per-key outcome.
func (m *Manager) TestAll(ctx context.Context) map[string]indexer.TestResult {
	indexers := m.snapshot()
	out := make(map[string]indexer.TestResult, len(indexers))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, idx := range indexers {
		wg.Add(1)
		go func(idx *indexer.Indexer) {
			defer wg.Done()
			result := idx.TestConnection(ctx)
			mu.Lock()
			out[idx.Key()] = result
			mu.Unlock()
		}(idx)
	}
	wg.Wait()
	return out
}

// Status reports the aggregate manager status.
func (m *Manager) Status() domain.ServiceStatus {
	indexers := m.snapshot()
	statuses := make([]domain.IndexerStatus, 0, len(indexers))
	available := 0
	for _, idx := range indexers {
		s := idx.Status()
		statuses = append(statuses, s)
		if s.Available {
			available++
		}
	}
	return domain.ServiceStatus{
		Total:     len(indexers),
		Available: available,
		Indexers:  statuses,
	}
}

// ByKey returns the indexer registered under key, if any.
func (m *Manager) ByKey(key string) (*indexer.Indexer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.byKey[key]
	return idx, ok
}
