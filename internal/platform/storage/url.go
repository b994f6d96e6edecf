package storage

import (
	"crypto/tls"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/config"
	"github.com/wallarm/contract-firewall/internal/platform/contract"
	"github.com/wallarm/contract-firewall/internal/platform/loader"
)

type URL struct {
	isReady      bool
	url          string
	customHeader *config.CustomHeader
	raw          []byte
	LastUpdate   time.Time
	document     *contract.Document
	lock         *sync.RWMutex
	client       *fasthttp.Client
}

const (
	currentURLVersion = 0
	readTimeout       = 10 * time.Second
	writeTimeout      = 5 * time.Second

	userAgent = "Wallarm/Contract-Firewall"
)

var _ ContractStore = (*URL)(nil)

// NewContractFromURL downloads the contract. The custom header is added to the request
// when both its name and value are set.
func NewContractFromURL(contractURL string, customHeader *config.CustomHeader) (ContractStore, error) {

	client := fasthttp.Client{
		TLSConfig:    &tls.Config{},
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	store, err := newContractFromURL(contractURL, customHeader, &client)
	if err != nil {
		return nil, err
	}

	return store, nil
}

func newContractFromURL(contractURL string, customHeader *config.CustomHeader, client *fasthttp.Client) (*URL, error) {

	if customHeader == nil {
		customHeader = &config.CustomHeader{}
	}

	urlObj := URL{
		lock:         &sync.RWMutex{},
		url:          contractURL,
		customHeader: customHeader,
		client:       client,
	}

	if _, err := urlObj.Load(contractURL); err != nil {
		return nil, err
	}

	return &urlObj, nil
}

func (u *URL) Load(contractURL string) (bool, error) {

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	req.SetRequestURI(contractURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(userAgent)

	// add custom header to request
	customHeaderName := strings.TrimSpace(u.customHeader.Name)
	customHeaderValue := strings.TrimSpace(u.customHeader.Value)
	if customHeaderName != "" && customHeaderValue != "" {
		req.Header.Set(customHeaderName, customHeaderValue)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := u.client.Do(req, resp); err != nil {
		return false, errors.Wrap(err, "contract downloading")
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return false, errors.Errorf("contract downloading: unexpected status code: %d", resp.StatusCode())
	}

	// the response body is reused after the release
	raw := append([]byte(nil), resp.Body()...)

	doc, err := loader.ParseContract(raw, "", DefaultSchemaID)
	if err != nil {
		return false, err
	}

	u.lock.Lock()
	defer u.lock.Unlock()

	u.raw = raw
	u.document = doc
	u.LastUpdate = time.Now().UTC()
	u.isReady = true

	return true, nil
}

func (u *URL) Contract(_ int) *contract.Document {
	u.lock.RLock()
	defer u.lock.RUnlock()

	return u.document
}

func (u *URL) ContractRawContent(_ int) []byte {
	u.lock.RLock()
	defer u.lock.RUnlock()

	return u.raw
}

func (u *URL) ContractVersion(_ int) string {
	u.lock.RLock()
	defer u.lock.RUnlock()

	if u.document == nil {
		return ""
	}
	return u.document.Info.Version
}

func (u *URL) IsLoaded(schemaID int) bool {
	u.lock.RLock()
	defer u.lock.RUnlock()

	return schemaID == DefaultSchemaID && u.document != nil
}

func (u *URL) SchemaIDs() []int {
	return []int{DefaultSchemaID}
}

func (u *URL) IsReady() bool {
	u.lock.RLock()
	defer u.lock.RUnlock()

	return u.isReady
}

func (u *URL) Version() int {
	return currentURLVersion
}

func (u *URL) ShouldUpdate(newStorage ContractStore) bool {
	return contractsChanged(u, newStorage)
}
