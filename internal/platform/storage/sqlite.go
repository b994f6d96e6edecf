package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/wallarm/contract-firewall/internal/platform/contract"
	"github.com/wallarm/contract-firewall/internal/platform/loader"
)

const currentSQLSchemaVersion = 1

type ContractEntry struct {
	SchemaID      int    `db:"schema_id"`
	SchemaVersion string `db:"schema_version"`
	SchemaFormat  string `db:"schema_format"`
	SchemaContent string `db:"schema_content"`
}

// SQLite keeps the contracts stored in the openapi_schemas table
type SQLite struct {
	isReady    bool
	entries    map[int]*ContractEntry
	LastUpdate time.Time
	documents  map[int]*contract.Document
	lock       *sync.RWMutex
}

var _ ContractStore = (*SQLite)(nil)

// NewContractDB loads the contracts from the SQLite database. Entries that fail to parse
// are skipped and reported in the returned error together with the store.
func NewContractDB(dbStoragePath string) (ContractStore, error) {

	sqlObj := SQLite{
		lock:      &sync.RWMutex{},
		entries:   make(map[int]*ContractEntry),
		documents: make(map[int]*contract.Document),
	}

	isReady, err := sqlObj.Load(dbStoragePath)
	if !isReady {
		return nil, err
	}

	return &sqlObj, err
}

func (s *SQLite) Load(dbStoragePath string) (bool, error) {

	entries := make(map[int]*ContractEntry)
	documents := make(map[int]*contract.Document)
	var parsingErrs []error

	currentDBPath := dbStoragePath
	if currentDBPath == "" {
		currentDBPath = fmt.Sprintf("/var/lib/wallarm-api/%d/wallarm_api.db", currentSQLSchemaVersion)
	}

	// check if file exists
	if _, err := os.Stat(currentDBPath); err != nil {
		return false, errors.Wrap(err, "contract database")
	}

	db, err := sql.Open("sqlite3", currentDBPath)
	if err != nil {
		return false, err
	}
	defer db.Close()

	rows, err := db.Query("select schema_id,schema_version,schema_format,schema_content from openapi_schemas")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		entry := ContractEntry{}
		if err := rows.Scan(&entry.SchemaID, &entry.SchemaVersion, &entry.SchemaFormat, &entry.SchemaContent); err != nil {
			return false, err
		}
		entries[entry.SchemaID] = &entry
	}

	if err := rows.Err(); err != nil {
		return false, err
	}

	for schemaID, entry := range entries {
		doc, err := loader.ParseContract([]byte(entry.SchemaContent), entry.SchemaVersion, schemaID)
		if err != nil {
			parsingErrs = append(parsingErrs, err)
			delete(entries, schemaID)
			continue
		}

		documents[schemaID] = doc
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.entries = entries
	s.documents = documents
	s.LastUpdate = time.Now().UTC()
	s.isReady = true

	if len(parsingErrs) > 0 {
		return true, errors.Errorf("%d contract(s) skipped: %v", len(parsingErrs), parsingErrs)
	}

	return true, nil
}

func (s *SQLite) Contract(schemaID int) *contract.Document {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.documents[schemaID]
}

func (s *SQLite) ContractRawContent(schemaID int) []byte {
	s.lock.RLock()
	defer s.lock.RUnlock()

	entry, ok := s.entries[schemaID]
	if !ok {
		return nil
	}
	return []byte(entry.SchemaContent)
}

func (s *SQLite) ContractVersion(schemaID int) string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	entry, ok := s.entries[schemaID]
	if !ok {
		return ""
	}
	return entry.SchemaVersion
}

func (s *SQLite) IsLoaded(schemaID int) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, ok := s.documents[schemaID]
	return ok
}

func (s *SQLite) SchemaIDs() []int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var schemaIDs = make([]int, 0, len(s.entries))
	for schemaID := range s.entries {
		schemaIDs = append(schemaIDs, schemaID)
	}

	sort.Ints(schemaIDs)

	return schemaIDs
}

func (s *SQLite) IsReady() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.isReady
}

func (s *SQLite) Version() int {
	return currentSQLSchemaVersion
}

func (s *SQLite) ShouldUpdate(newStorage ContractStore) bool {
	return contractsChanged(s, newStorage)
}
