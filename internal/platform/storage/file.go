package storage

import (
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/wallarm/contract-firewall/internal/platform/contract"
	"github.com/wallarm/contract-firewall/internal/platform/loader"
)

const currentFileVersion = 0

type File struct {
	isReady    bool
	path       string
	raw        []byte
	LastUpdate time.Time
	document   *contract.Document
	lock       *sync.RWMutex
}

var _ ContractStore = (*File)(nil)

// NewContractFromFile loads the contract from the JSON or YAML file
func NewContractFromFile(contractPath string) (ContractStore, error) {

	fileObj := File{
		lock: &sync.RWMutex{},
		path: contractPath,
	}

	if _, err := fileObj.Load(contractPath); err != nil {
		return nil, err
	}

	return &fileObj, nil
}

func (f *File) Load(contractPath string) (bool, error) {

	raw, err := os.ReadFile(contractPath)
	if err != nil {
		return false, errors.Wrap(err, "reading contract file")
	}

	doc, err := loader.ParseContract(raw, "", DefaultSchemaID)
	if err != nil {
		return false, err
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	f.raw = raw
	f.document = doc
	f.LastUpdate = time.Now().UTC()
	f.isReady = true

	return true, nil
}

func (f *File) Contract(_ int) *contract.Document {
	f.lock.RLock()
	defer f.lock.RUnlock()

	return f.document
}

func (f *File) ContractRawContent(_ int) []byte {
	f.lock.RLock()
	defer f.lock.RUnlock()

	return f.raw
}

func (f *File) ContractVersion(_ int) string {
	f.lock.RLock()
	defer f.lock.RUnlock()

	if f.document == nil {
		return ""
	}
	return f.document.Info.Version
}

func (f *File) IsLoaded(schemaID int) bool {
	f.lock.RLock()
	defer f.lock.RUnlock()

	return schemaID == DefaultSchemaID && f.document != nil
}

func (f *File) SchemaIDs() []int {
	return []int{DefaultSchemaID}
}

func (f *File) IsReady() bool {
	f.lock.RLock()
	defer f.lock.RUnlock()

	return f.isReady
}

func (f *File) Version() int {
	return currentFileVersion
}

func (f *File) ShouldUpdate(newStorage ContractStore) bool {
	return contractsChanged(f, newStorage)
}
