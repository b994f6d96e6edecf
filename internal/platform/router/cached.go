package router

import (
	"strings"

	"github.com/dgraph-io/ristretto"
)

const (
	bufferItems = 64
	entryCost   = 1
)

type lookupResult struct {
	match *Match
	err   error
}

// CachedMatcher memoizes the lookups of the wrapped matcher. The contract is immutable, so
// the cached results stay valid for the lifetime of the matcher.
type CachedMatcher struct {
	matcher *Matcher
	cache   *ristretto.Cache
}

var _ Finder = (*CachedMatcher)(nil)

// NewCachedMatcher wraps the matcher with the cache holding up to maxEntries lookups
func NewCachedMatcher(m *Matcher, maxEntries int64) (*CachedMatcher, error) {

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10, // recommended value
		MaxCost:     maxEntries * entryCost,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &CachedMatcher{matcher: m, cache: cache}, nil
}

func (c *CachedMatcher) Lookup(verb, path string) (*Match, error) {

	verb = strings.ToLower(verb)
	key := verb + " " + path

	if value, found := c.cache.Get(key); found {
		if res, ok := value.(lookupResult); ok {
			return res.match, res.err
		}
	}

	match, err := c.matcher.Lookup(verb, path)
	c.cache.Set(key, lookupResult{match: match, err: err}, entryCost)

	return match, err
}

// Close stops the cache goroutines
func (c *CachedMatcher) Close() {
	c.cache.Close()
}
