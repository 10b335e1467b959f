package manager

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"shelfsearch/audiosearch/internal/adapter/registry"
	"shelfsearch/audiosearch/internal/domain"
)

const torznabSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:torznab="http://torznab.com/schemas/2015/feed">
  <channel>
    <item>
      <title>Mistborn [M4B 128]</title>
      <guid>magnet:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567</guid>
      <torznab:attr name="seeders" value="10"/>
      <torznab:attr name="author" value="Brandon Sanderson"/>
    </item>
  </channel>
</rss>`

type staticLoader struct {
	configs []domain.IndexerConfig
}

func (l staticLoader) LoadIndexerConfigs() ([]domain.IndexerConfig, error) {
	return l.configs, nil
}

func newConfig(key, baseURL string, priority int) domain.IndexerConfig {
	return domain.IndexerConfig{
		Key:       key,
		Name:      key,
		Enabled:   true,
		Type:      domain.IndexerTypeTorznab,
		BaseURL:   baseURL,
		Priority:  priority,
		TimeoutMS: 5000,
		VerifyTLS: true,
		RateLimit: domain.RateLimitConfig{RequestsPerSecond: 100, MaxConcurrent: 4},
	}
}

func TestReloadSkipsDisabledAndSortsByPriorityThenKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(torznabSample))
	}))
	defer srv.Close()

	configs := []domain.IndexerConfig{
		newConfig("zeta", srv.URL, 5),
		newConfig("alpha", srv.URL, 5),
		{Key: "off", Name: "off", Enabled: false, Type: domain.IndexerTypeTorznab, BaseURL: srv.URL},
		newConfig("beta", srv.URL, 1),
	}
	mgr, err := New(staticLoader{configs: configs}, registry.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status := mgr.Status()
	if status.Total != 3 {
		t.Fatalf("expected 3 enabled indexers, got %d", status.Total)
	}
	order := make([]string, len(status.Indexers))
	for i, s := range status.Indexers {
		order[i] = s.Key
	}
	want := []string{"beta", "alpha", "zeta"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected priority/key order %v, got %v", want, order)
		}
	}
}

func TestSearchPartialFailoverCountsIndexersAndKeepsHealthyResults(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(torznabSample))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	configs := []domain.IndexerConfig{
		newConfig("good", good.URL, 1),
		newConfig("bad", bad.URL, 2),
	}
	mgr, err := New(staticLoader{configs: configs}, registry.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := mgr.Search(context.Background(), "mistborn", "brandon sanderson", "mistborn", 100, true)
	if len(results) != 1 {
		t.Fatalf("expected 1 result from the healthy indexer, got %d", len(results))
	}

	status := mgr.Status()
	if status.Total != 2 {
		t.Fatalf("expected indexers_searched == 2, got %d", status.Total)
	}
	badIdx, ok := mgr.ByKey("bad")
	if !ok {
		t.Fatalf("expected bad indexer to be loaded")
	}
	if badIdx.Status().ConsecutiveFailures != 1 {
		t.Fatalf("expected bad indexer's consecutive_failures incremented once, got %d", badIdx.Status().ConsecutiveFailures)
	}
}

func TestSearchOpensCircuitAfterThreeRunsAndFourthDoesNoIO(t *testing.T) {
	var hits int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	configs := []domain.IndexerConfig{newConfig("bad", bad.URL, 1)}
	mgr, err := New(staticLoader{configs: configs}, registry.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		mgr.Search(context.Background(), "q", "", "", 100, true)
	}
	before := atomic.LoadInt32(&hits)

	results := mgr.Search(context.Background(), "q", "", "", 100, true)
	if results != nil {
		t.Fatalf("expected no results on the 4th run, got %v", results)
	}
	if atomic.LoadInt32(&hits) != before {
		t.Fatalf("expected zero HTTP calls once the circuit is open")
	}

	idx, _ := mgr.ByKey("bad")
	if idx.Available() {
		t.Fatalf("expected bad indexer to be unavailable")
	}
}
