package usage

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bher20/denkiyoho/internal/config"
	"github.com/bher20/denkiyoho/internal/storage"
	"github.com/bher20/denkiyoho/pkg/demand"
	"github.com/bher20/denkiyoho/pkg/providers"
	"github.com/bher20/denkiyoho/pkg/providers/electricproviders"
)

// Catalog is the set of publishers the service can read: the registered
// built-ins, with entries from a formats file added or replacing them.
type Catalog struct {
	entries map[string]electricproviders.ElectricProvider
}

// NewCatalog merges the registry with overrides.
func NewCatalog(overrides []config.FormatEntry) *Catalog {
	c := &Catalog{entries: make(map[string]electricproviders.ElectricProvider)}
	for _, p := range electricproviders.GetAll() {
		c.entries[p.Key()] = p
	}
	for _, e := range overrides {
		e.Key = canonicalKey(e.Key)
		c.entries[e.Key] = customProvider{entry: e}
	}
	return c
}

// Lookup returns the provider registered under key. Keys are matched
// case-insensitively.
func (c *Catalog) Lookup(key string) (electricproviders.ElectricProvider, error) {
	p, ok := c.entries[canonicalKey(key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", providers.ErrProviderNotFound, key)
	}
	return p, nil
}

// List returns all providers sorted by key.
func (c *Catalog) List() []electricproviders.ElectricProvider {
	out := make([]electricproviders.ElectricProvider, 0, len(c.entries))
	for _, p := range c.entries {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// StorageProviders converts the catalog into storage descriptors. Source
// URLs keep their {date} token.
func (c *Catalog) StorageProviders() []storage.Provider {
	list := c.List()
	out := make([]storage.Provider, 0, len(list))
	for _, p := range list {
		f := p.Format(time.Time{})
		if tmpl, ok := p.(interface{ Template() demand.Format }); ok {
			f = tmpl.Template()
		}
		out = append(out, storage.Provider{
			Key:       p.Key(),
			Name:      p.Name(),
			Region:    p.Region(),
			SourceURL: f.SourceURL,
			Encoding:  f.Charset(),
		})
	}
	return out
}

func canonicalKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// customProvider adapts a formats-file entry to ElectricProvider.
type customProvider struct {
	entry config.FormatEntry
}

func (p customProvider) Key() string    { return p.entry.Key }
func (p customProvider) Name() string   { return p.entry.Name }
func (p customProvider) Region() string { return p.entry.Region }

func (p customProvider) Format(now time.Time) demand.Format {
	f := p.entry.Format
	f.SourceURL = f.ResolveURL(now)
	return f
}

func (p customProvider) Template() demand.Format { return p.entry.Format }
