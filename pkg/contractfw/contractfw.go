package contractfw

import (
	"bufio"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"
	"golang.org/x/sync/errgroup"

	"github.com/wallarm/contract-firewall/internal/config"
	"github.com/wallarm/contract-firewall/internal/platform/contractset"
	"github.com/wallarm/contract-firewall/internal/platform/locale"
	"github.com/wallarm/contract-firewall/internal/platform/storage"
	"github.com/wallarm/contract-firewall/internal/platform/validator"
)

type ContractFirewall interface {
	ValidateRequestFromReader(schemaIDs []int, r *bufio.Reader) (*ValidationResponse, error)
	ValidateRequest(schemaIDs []int, uri, method, body []byte, headers map[string][]string) (*ValidationResponse, error)
	UpdateContracts() ([]int, bool, error)
}

type ContractFirewallAPI struct {
	contracts   *contractset.Set
	translator  *locale.Translator
	schemaCache *validator.SchemaCache
	lock        *sync.RWMutex
	options     *Configuration
}

var _ ContractFirewall = (*ContractFirewallAPI)(nil)

type Configuration struct {
	ContractPath     string
	ContractDBPath   string
	CustomHeader     config.CustomHeader
	Engine           string
	Locale           string
	MatcherCacheSize int64
	SchemaCacheSize  int64
	SchemaCacheTTL   time.Duration
	Logger           zerolog.Logger
}

type Option func(*Configuration)

// WithContractPath is a functional option to set the path or the URL of the contract
func WithContractPath(path string) Option {
	return func(c *Configuration) {
		c.ContractPath = path
	}
}

// WithContractDB is a functional option to set path to the SQLite DB with the contracts
func WithContractDB(path string) Option {
	return func(c *Configuration) {
		c.ContractDBPath = path
	}
}

// WithCustomHeader is a functional option to set the header sent with the contract URL requests
func WithCustomHeader(name, value string) Option {
	return func(c *Configuration) {
		c.CustomHeader = config.CustomHeader{Name: name, Value: value}
	}
}

// WithEngine is a functional option to set the schema engine: kinopenapi or jsonschema
func WithEngine(engine string) Option {
	return func(c *Configuration) {
		c.Engine = engine
	}
}

// WithLocale is a functional option to set the language of the invalidity messages
func WithLocale(language string) Option {
	return func(c *Configuration) {
		c.Locale = language
	}
}

// WithMatcherCache is a functional option to set the number of memoized path lookups. Zero disables the cache.
func WithMatcherCache(entries int64) Option {
	return func(c *Configuration) {
		c.MatcherCacheSize = entries
	}
}

// WithSchemaCache is a functional option to set the size and the TTL of the compiled schema cache
func WithSchemaCache(entries int64, ttl time.Duration) Option {
	return func(c *Configuration) {
		c.SchemaCacheSize = entries
		c.SchemaCacheTTL = ttl
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Configuration) {
		c.Logger = logger
	}
}

func NewContractFirewall(options ...Option) (ContractFirewall, error) {

	// contracts usage lock
	var lock sync.RWMutex

	fw := ContractFirewallAPI{
		lock: &lock,
		options: &Configuration{
			Engine:           config.EngineKinOpenAPI,
			Locale:           "en",
			MatcherCacheSize: 10000,
			SchemaCacheSize:  1000,
			SchemaCacheTTL:   time.Hour,
			Logger:           zerolog.Nop(),
		},
	}

	// apply all the functional options
	for _, opt := range options {
		opt(fw.options)
	}

	translator, err := locale.NewTranslator(fw.options.Locale)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHandlersInit, err)
	}
	fw.translator = translator

	store, err := fw.load()
	if err != nil {
		return nil, err
	}

	fw.schemaCache = validator.NewSchemaCache(fw.options.SchemaCacheSize, fw.options.SchemaCacheTTL)

	contracts, err := contractset.New(store, &contractset.Options{
		Engine:           fw.options.Engine,
		MatcherCacheSize: fw.options.MatcherCacheSize,
		SchemaCache:      fw.schemaCache,
		ParserPool:       &fastjson.ParserPool{},
		Logger:           fw.options.Logger,
	})
	if err != nil {
		fw.schemaCache.Stop()
		return nil, fmt.Errorf("%w: %w", ErrHandlersInit, err)
	}

	fw.contracts = contracts

	return &fw, nil
}

func (a *ContractFirewallAPI) load() (storage.ContractStore, error) {

	store, err := storage.NewContractStore(&config.Contract{
		Path:         a.options.ContractPath,
		DBPath:       a.options.ContractDBPath,
		CustomHeader: a.options.CustomHeader,
	})
	if err != nil {
		return nil, wrapContractErrs(err)
	}

	return store, nil
}

// UpdateContracts method reloads the contracts from the configured source. The loaded schema IDs are returned
// along with the flag of the performed update.
func (a *ContractFirewallAPI) UpdateContracts() ([]int, bool, error) {

	a.lock.RLock()
	current := a.contracts
	a.lock.RUnlock()

	newStore, err := a.load()
	if err != nil {
		return current.SchemaIDs(), false, err
	}

	// do not downgrade the storage version
	if current.Store().Version() > newStore.Version() {
		return current.SchemaIDs(), false, ErrStorageDowngrade
	}

	if !current.Store().ShouldUpdate(newStore) {
		return current.SchemaIDs(), false, nil
	}

	next, err := current.Reload(newStore)
	if err != nil {
		return current.SchemaIDs(), false, fmt.Errorf("%w: %w", ErrHandlersInit, err)
	}

	a.lock.Lock()
	a.contracts = next
	a.lock.Unlock()

	current.Retire(next)

	return next.SchemaIDs(), true, nil
}

// ValidateRequest method validates request against the contracts with provided schema IDs
func (a *ContractFirewallAPI) ValidateRequest(schemaIDs []int, uri, method, body []byte, headers map[string][]string) (*ValidationResponse, error) {

	var req fasthttp.Request

	req.Header.SetRequestURIBytes(uri)
	req.Header.SetMethodBytes(method)
	req.SetBody(body)

	for hName, hValues := range headers {
		for _, hValue := range hValues {
			req.Header.Add(hName, hValue)
		}
	}

	return a.validate(schemaIDs, &req)
}

// ValidateRequestFromReader method validates the raw HTTP request against the contracts with provided schema IDs
func (a *ContractFirewallAPI) ValidateRequestFromReader(schemaIDs []int, r *bufio.Reader) (*ValidationResponse, error) {

	var req fasthttp.Request
	if err := req.Read(r); err != nil {
		resp := ValidationResponse{}
		for _, schemaID := range schemaIDs {
			resp.Summary = append(resp.Summary, &ValidationResponseSummary{SchemaID: intPtr(schemaID), StatusCode: &StatusInternalServerError})
		}
		return &resp, fmt.Errorf("%w: %w", ErrRequestParsing, err)
	}

	return a.validate(schemaIDs, &req)
}

// validate runs the validation of every schema ID concurrently. The summaries keep the order of the schema IDs.
func (a *ContractFirewallAPI) validate(schemaIDs []int, req *fasthttp.Request) (*ValidationResponse, error) {

	// the contracts are not retired until all the validations are finished
	a.lock.RLock()
	defer a.lock.RUnlock()

	results := make([]*result, len(schemaIDs))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, schemaID := range schemaIDs {
		i, schemaID := i, schemaID

		// every validation reads its own copy of the request
		ctx := new(fasthttp.RequestCtx)
		req.CopyTo(&ctx.Request)

		g.Go(func() error {
			results[i] = processRequest(a.contracts, a.translator, schemaID, ctx)
			return nil
		})
	}

	_ = g.Wait()

	resp := ValidationResponse{}
	var respErr error

	for _, res := range results {
		resp.Summary = append(resp.Summary, res.summary)
		if res.validationErr != nil {
			resp.Errors = append(resp.Errors, res.validationErr)
		}
		if res.err != nil {
			if respErr == nil {
				respErr = res.err
				continue
			}
			respErr = fmt.Errorf("%w; %w", respErr, res.err)
		}
	}

	return &resp, respErr
}

func intPtr(v int) *int {
	return &v
}
