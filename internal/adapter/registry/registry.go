// Package registry resolves an IndexerConfig to an adapter.Factory.
//
// A constructor-time, side-effect-free registry built from a static slice,
// not a decorator that registers itself on import.
package registry

import (
	"fmt"
	"net/url"
	"strings"

	"shelfsearch/audiosearch/internal/adapter"
	"shelfsearch/audiosearch/internal/adapter/audiobookbay"
	"shelfsearch/audiosearch/internal/adapter/genericjson"
	"shelfsearch/audiosearch/internal/adapter/mam"
	"shelfsearch/audiosearch/internal/adapter/torznab"
	"shelfsearch/audiosearch/internal/domain"
)

type entry struct {
	key     string
	domains []string
	factory adapter.Factory
}

// Registry resolves a factory for an indexer configuration by (in order)
// explicit provider_key pin, domain-suffix match against base_url, and a
// generic torznab fallback for anything typed as torznab.
type Registry struct {
	entries []entry
}

// New builds the default registry with every built-in adapter registered.
func New() *Registry {
	return &Registry{
		entries: []entry{
			{key: "torznab", domains: torznab.Adapter{}.Domains(), factory: torznab.New},
			{key: "mam", domains: mam.Adapter{}.Domains(), factory: mam.New},
			{key: "audiobookbay", domains: audiobookbay.Adapter{}.Domains(), factory: audiobookbay.New},
			{key: "generic-json", domains: genericjson.Adapter{}.Domains(), factory: genericjson.New},
		},
	}
}

// Resolve picks an adapter.Factory for cfg. Resolution order:
// explicit ProviderKey pin, then a host-suffix match against BaseURL, then
// a fallback: torznab for IndexerTypeTorznab configs (the wire format is
// uniform enough not to need a pinned key), or the generic `{results:[...]}`
// JSON adapter for anything else.
func (r *Registry) Resolve(cfg domain.IndexerConfig) (adapter.Factory, error) {
	if key := strings.TrimSpace(cfg.ProviderKey); key != "" {
		for _, e := range r.entries {
			if e.key == key {
				return e.factory, nil
			}
		}
		return nil, fmt.Errorf("registry: no adapter registered for provider_key %q", key)
	}

	if host := hostOf(cfg.BaseURL); host != "" {
		for _, e := range r.entries {
			for _, suffix := range e.domains {
				if suffix == "" {
					continue
				}
				suffix = strings.ToLower(suffix)
				if host == suffix || strings.HasSuffix(host, "."+suffix) {
					return e.factory, nil
				}
			}
		}
	}

	if cfg.Type == domain.IndexerTypeTorznab {
		return torznab.New, nil
	}

	return genericjson.New, nil
}

// hostOf extracts the lowercased hostname from a base URL, tolerating bare
// host[:port] strings without a scheme.
func hostOf(baseURL string) string {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
