package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"

	"github.com/pkg/errors"

	"github.com/wallarm/contract-firewall/internal/config"
	"github.com/wallarm/contract-firewall/internal/platform/contract"
)

// DefaultSchemaID is the schema ID of the contracts loaded from a file or a URL
const DefaultSchemaID = 0

//go:generate mockgen -source=storage.go -destination=mock_storage.go -package=storage

// ContractStore keeps the loaded contracts by the schema ID
type ContractStore interface {
	Load(source string) (bool, error)
	Contract(schemaID int) *contract.Document
	ContractRawContent(schemaID int) []byte
	ContractVersion(schemaID int) string
	IsLoaded(schemaID int) bool
	SchemaIDs() []int
	IsReady() bool
	ShouldUpdate(newStorage ContractStore) bool
	Version() int
}

func getChecksum(raw []byte) [sha256.Size]byte {
	return sha256.Sum256(raw)
}

// ContractChecksum returns the hex encoded checksum of the raw contract of the schema ID
func ContractChecksum(store ContractStore, schemaID int) string {
	sum := getChecksum(store.ContractRawContent(schemaID))
	return hex.EncodeToString(sum[:])
}

// contractsChanged compares the schema IDs and the raw content of the stores
func contractsChanged(current, updated ContractStore) bool {

	currentIDs := current.SchemaIDs()
	updatedIDs := updated.SchemaIDs()

	if len(currentIDs) != len(updatedIDs) {
		return true
	}

	for i, schemaID := range currentIDs {
		if updatedIDs[i] != schemaID {
			return true
		}
		if current.ContractVersion(schemaID) != updated.ContractVersion(schemaID) {
			return true
		}
		if getChecksum(current.ContractRawContent(schemaID)) != getChecksum(updated.ContractRawContent(schemaID)) {
			return true
		}
	}

	return false
}

// ContractChanged reports whether the contract of the schema ID differs between the stores
func ContractChanged(current, updated ContractStore, schemaID int) bool {
	if current.IsLoaded(schemaID) != updated.IsLoaded(schemaID) {
		return true
	}
	if current.ContractVersion(schemaID) != updated.ContractVersion(schemaID) {
		return true
	}
	return getChecksum(current.ContractRawContent(schemaID)) != getChecksum(updated.ContractRawContent(schemaID))
}

// NewContractStore loads the contracts from the database when the database path is set
// and from the file or URL otherwise
func NewContractStore(cfg *config.Contract) (ContractStore, error) {

	if cfg.DBPath != "" {
		store, err := NewContractDB(cfg.DBPath)
		if err != nil {
			return nil, errors.Wrap(err, "loading contracts from the database")
		}
		return store, nil
	}

	return NewContractFromFileOrURL(cfg.Path, &cfg.CustomHeader)
}

// NewContractFromFileOrURL loads the contract from the file or URL
func NewContractFromFileOrURL(contractPath string, header *config.CustomHeader) (ContractStore, error) {

	// try to parse path or URL
	contractURL, err := url.ParseRequestURI(contractPath)

	// can't parse string as URL. Try to load the contract from file
	if err != nil || contractURL == nil || contractURL.Scheme == "" {
		store, err := NewContractFromFile(contractPath)
		if err != nil {
			return nil, errors.Wrap(err, "loading contract from file")
		}

		return store, nil
	}

	store, err := NewContractFromURL(contractPath, header)
	if err != nil {
		return nil, errors.Wrap(err, "loading contract from URL")
	}

	return store, nil
}
