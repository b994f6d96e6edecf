package validator

import (
	"fmt"
	"time"

	"github.com/karlseguin/ccache/v2"

	"github.com/wallarm/contract-firewall/internal/platform/contract"
	"github.com/wallarm/contract-firewall/internal/platform/schema"
)

// SchemaCache keeps the compiled schemas of the operations between requests. The keys
// carry the contract revision, so the sets built before and after a reload never share
// entries of a changed contract.
type SchemaCache struct {
	cache *ccache.Cache
	ttl   time.Duration
}

func NewSchemaCache(maxSize int64, ttl time.Duration) *SchemaCache {
	return &SchemaCache{
		cache: ccache.New(ccache.Configure().MaxSize(maxSize)),
		ttl:   ttl,
	}
}

func schemaCacheKey(schemaID int, revision, verb, template string, loc contract.Location) string {
	return fmt.Sprintf("%d|%s|%s|%s|%s", schemaID, revision, verb, template, loc)
}

// Fetch returns the cached schema or compiles and stores it
func (c *SchemaCache) Fetch(key string, compile func() (schema.Compiled, error)) (schema.Compiled, error) {

	item, err := c.cache.Fetch(key, c.ttl, func() (interface{}, error) {
		return compile()
	})
	if err != nil {
		return nil, err
	}

	return item.Value().(schema.Compiled), nil
}

// InvalidateRevision drops the schemas of one revision of the contract
func (c *SchemaCache) InvalidateRevision(schemaID int, revision string) int {
	return c.cache.DeletePrefix(fmt.Sprintf("%d|%s|", schemaID, revision))
}

func (c *SchemaCache) ItemCount() int {
	return c.cache.ItemCount()
}

func (c *SchemaCache) Stop() {
	c.cache.Stop()
}
