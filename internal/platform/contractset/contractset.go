package contractset

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"

	"github.com/wallarm/contract-firewall/internal/platform/contract"
	"github.com/wallarm/contract-firewall/internal/platform/formatter"
	"github.com/wallarm/contract-firewall/internal/platform/metrics"
	"github.com/wallarm/contract-firewall/internal/platform/router"
	"github.com/wallarm/contract-firewall/internal/platform/schema"
	"github.com/wallarm/contract-firewall/internal/platform/storage"
	"github.com/wallarm/contract-firewall/internal/platform/validator"
)

var ErrSchemaNotFound = errors.New("schema not found")

// Options are shared by all the contracts of the set and survive the reloads
type Options struct {
	Engine           string
	MatcherCacheSize int64
	SchemaCache      *validator.SchemaCache
	Metrics          metrics.Metrics
	ParserPool       *fastjson.ParserPool
	Logger           zerolog.Logger
}

// Contract is the ready to use contract of one schema ID
type Contract struct {
	SchemaID  int
	Version   string
	Revision  string
	Document  *contract.Document
	Finder    router.Finder
	Validator *validator.Validator

	cached *router.CachedMatcher
}

// Lookup resolves the request to the operation. The base path of the contract is removed
// from the request path before the matching.
func (c *Contract) Lookup(verb, path string) (*router.Match, error) {

	basePath := strings.TrimSuffix(c.Document.BasePath, "/")
	if basePath != "" {
		switch {
		case path == basePath:
			path = "/"
		case strings.HasPrefix(path, basePath+"/"):
			path = strings.TrimPrefix(path, basePath)
		default:
			return nil, router.ErrNotFound
		}
	}

	return c.Finder.Lookup(verb, path)
}

// Validate checks the request against the matched operation
func (c *Contract) Validate(match *router.Match, req *validator.Request) (validator.Report, error) {
	return c.Validator.Validate(match, req, c.Document.Definitions)
}

// Set holds the contracts loaded from one store. The set is immutable, a reload creates
// a new set.
type Set struct {
	store     storage.ContractStore
	contracts map[int]*Contract
	opts      *Options
}

// New builds the contracts of every schema ID of the store
func New(store storage.ContractStore, opts *Options) (*Set, error) {
	return build(store, opts, nil)
}

func build(store storage.ContractStore, opts *Options, previous *Set) (*Set, error) {

	set := Set{
		store:     store,
		contracts: make(map[int]*Contract),
		opts:      opts,
	}

	for _, schemaID := range store.SchemaIDs() {

		if !store.IsLoaded(schemaID) {
			continue
		}

		if previous != nil {
			if c, ok := previous.contracts[schemaID]; ok && !storage.ContractChanged(previous.store, store, schemaID) {
				set.contracts[schemaID] = c
				continue
			}
		}

		c, err := newContract(schemaID, store, opts)
		if err != nil {
			set.release(previous)
			return nil, err
		}

		opts.Logger.Debug().
			Int("schema_id", schemaID).
			Str("version", c.Version).
			Int("templates", len(c.Document.Paths)).
			Msg("contract loaded")

		set.contracts[schemaID] = c
	}

	return &set, nil
}

func newContract(schemaID int, store storage.ContractStore, opts *Options) (*Contract, error) {

	doc := store.Contract(schemaID)
	if doc == nil {
		return nil, errors.Errorf("schema ID %d: contract is empty", schemaID)
	}

	matcher, err := router.NewMatcher(doc.Paths)
	if err != nil {
		return nil, errors.Wrapf(err, "schema ID %d: path templates", schemaID)
	}

	c := Contract{
		SchemaID: schemaID,
		Version:  store.ContractVersion(schemaID),
		Revision: storage.ContractChecksum(store, schemaID),
		Document: doc,
		Finder:   matcher,
	}

	if opts.MatcherCacheSize > 0 {
		if c.cached, err = router.NewCachedMatcher(matcher, opts.MatcherCacheSize); err != nil {
			return nil, errors.Wrapf(err, "schema ID %d: matcher cache", schemaID)
		}
		c.Finder = c.cached
	}

	engine, err := schema.NewEngine(opts.Engine)
	if err != nil {
		c.close()
		return nil, err
	}

	fm := formatter.New(opts.Logger, formatter.WithUnformattedHook(func(f schema.Failure) {
		if opts.Metrics != nil {
			opts.Metrics.IncUnformattedCounter(string(f.Kind), schemaID)
		}
	}))

	vOpts := []validator.Option{validator.WithLogger(opts.Logger)}
	if opts.SchemaCache != nil {
		vOpts = append(vOpts, validator.WithSchemaCache(opts.SchemaCache, schemaID, c.Revision))
	}
	if opts.ParserPool != nil {
		vOpts = append(vOpts, validator.WithJSONParserPool(opts.ParserPool))
	}

	c.Validator = validator.New(engine, fm, vOpts...)

	if err := c.Validator.Warmup(doc); err != nil {
		c.close()
		return nil, errors.Wrapf(err, "schema ID %d", schemaID)
	}

	return &c, nil
}

func (c *Contract) close() {
	if c.cached != nil {
		c.cached.Close()
	}
}

// Reload builds the set of the new store. The contracts with unchanged content are taken
// over from the current set, the changed ones are built with their own schema cache
// revision. The current set stays usable when the reload fails.
func (s *Set) Reload(store storage.ContractStore) (*Set, error) {
	return build(store, s.opts, s)
}

// Retire releases the contracts of the set that are not used by the next set and drops
// their compiled schemas. It must be called when no request uses the set anymore.
func (s *Set) Retire(next *Set) {
	for schemaID, c := range s.contracts {
		var successor *Contract
		if next != nil {
			successor = next.contracts[schemaID]
		}
		if successor == c {
			continue
		}
		if s.opts.SchemaCache != nil && (successor == nil || successor.Revision != c.Revision) {
			s.opts.SchemaCache.InvalidateRevision(schemaID, c.Revision)
		}
		c.close()
	}
}

// release closes the contracts built for the failed set
func (s *Set) release(previous *Set) {
	for schemaID, c := range s.contracts {
		if previous != nil && previous.contracts[schemaID] == c {
			continue
		}
		c.close()
	}
}

// Contract returns the contract of the schema ID
func (s *Set) Contract(schemaID int) (*Contract, error) {
	c, ok := s.contracts[schemaID]
	if !ok {
		return nil, errors.Wrapf(ErrSchemaNotFound, "schema ID %d", schemaID)
	}
	return c, nil
}

// SchemaIDs returns the loaded schema IDs in the ascending order
func (s *Set) SchemaIDs() []int {
	ids := make([]int, 0, len(s.contracts))
	for schemaID := range s.contracts {
		ids = append(ids, schemaID)
	}
	sort.Ints(ids)
	return ids
}

// Store returns the store the set was built from
func (s *Set) Store() storage.ContractStore {
	return s.store
}
