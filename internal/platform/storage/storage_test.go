package storage

import (
	"database/sql"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/wallarm/contract-firewall/internal/config"
)

const itemsContract = `
swagger: "2.0"
info:
  title: items
  version: "1.0"
paths:
  /items/{id}:
    get:
      parameters:
        - name: id
          in: path
          type: integer
          required: true
`

const itemsContractV2 = `
swagger: "2.0"
info:
  title: items
  version: "2.0"
paths:
  /items:
    get: {}
`

func writeContract(t *testing.T, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "contract.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestFile(t *testing.T) {

	p := writeContract(t, itemsContract)

	store, err := NewContractFromFile(p)
	require.NoError(t, err)

	assert.True(t, store.IsReady())
	assert.True(t, store.IsLoaded(DefaultSchemaID))
	assert.False(t, store.IsLoaded(7))
	assert.Equal(t, []int{DefaultSchemaID}, store.SchemaIDs())
	assert.Equal(t, "1.0", store.ContractVersion(DefaultSchemaID))
	assert.Equal(t, []byte(itemsContract), store.ContractRawContent(DefaultSchemaID))
	require.NotNil(t, store.Contract(DefaultSchemaID))
	assert.Contains(t, store.Contract(DefaultSchemaID).Paths, "/items/{id}")

	_, err = NewContractFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = NewContractFromFile(writeContract(t, "swagger: [broken"))
	require.Error(t, err)
}

func TestShouldUpdate(t *testing.T) {

	current, err := NewContractFromFile(writeContract(t, itemsContract))
	require.NoError(t, err)

	same, err := NewContractFromFile(writeContract(t, itemsContract))
	require.NoError(t, err)

	updated, err := NewContractFromFile(writeContract(t, itemsContractV2))
	require.NoError(t, err)

	assert.False(t, current.ShouldUpdate(same))
	assert.True(t, current.ShouldUpdate(updated))
}

func TestShouldUpdateSchemaIDs(t *testing.T) {

	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	current, err := NewContractFromFile(writeContract(t, itemsContract))
	require.NoError(t, err)

	dbStore := NewMockContractStore(mockCtrl)
	dbStore.EXPECT().SchemaIDs().Return([]int{DefaultSchemaID, 1}).AnyTimes()

	assert.True(t, current.ShouldUpdate(dbStore))
}

func serveContract(t *testing.T, handler fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	server := fasthttp.Server{Handler: handler}

	go func() {
		_ = server.Serve(ln)
	}()

	t.Cleanup(func() {
		_ = server.Shutdown()
	})

	return &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}
}

func TestURL(t *testing.T) {

	client := serveContract(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Request.Header.Peek("X-Contract-Token")) != "secret" {
			ctx.SetStatusCode(fasthttp.StatusForbidden)
			return
		}
		ctx.SetBodyString(itemsContract)
	})

	header := config.CustomHeader{Name: "X-Contract-Token", Value: "secret"}

	store, err := newContractFromURL("http://contracts.local/items.yaml", &header, client)
	require.NoError(t, err)

	assert.True(t, store.IsReady())
	assert.Equal(t, "1.0", store.ContractVersion(DefaultSchemaID))
	assert.Equal(t, []byte(itemsContract), store.ContractRawContent(DefaultSchemaID))

	_, err = newContractFromURL("http://contracts.local/items.yaml", nil, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 403")
}

func createContractDB(t *testing.T, contracts map[int]string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "wallarm_api.db")

	db, err := sql.Open("sqlite3", p)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("create table openapi_schemas (schema_id integer, schema_version text, schema_format text, schema_content text)")
	require.NoError(t, err)

	for schemaID, content := range contracts {
		_, err = db.Exec("insert into openapi_schemas values (?, ?, ?, ?)", schemaID, "v1", "yaml", content)
		require.NoError(t, err)
	}

	return p
}

func TestSQLite(t *testing.T) {

	p := createContractDB(t, map[int]string{
		1: itemsContract,
		4: itemsContractV2,
		9: "swagger: [broken",
	})

	store, err := NewContractDB(p)
	require.Error(t, err)
	require.NotNil(t, store)

	assert.True(t, store.IsReady())
	assert.Equal(t, []int{1, 4}, store.SchemaIDs())
	assert.True(t, store.IsLoaded(4))
	assert.False(t, store.IsLoaded(9))
	assert.Equal(t, "v1", store.ContractVersion(1))
	assert.Contains(t, store.Contract(4).Paths, "/items")
	assert.Nil(t, store.Contract(9))

	same, err := NewContractDB(createContractDB(t, map[int]string{1: itemsContract, 4: itemsContractV2}))
	require.NoError(t, err)
	assert.False(t, store.ShouldUpdate(same))

	updated, err := NewContractDB(createContractDB(t, map[int]string{1: itemsContract, 4: itemsContract}))
	require.NoError(t, err)
	assert.True(t, store.ShouldUpdate(updated))

	_, err = NewContractDB(filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
}

func TestNewContractStore(t *testing.T) {

	store, err := NewContractStore(&config.Contract{Path: writeContract(t, itemsContract)})
	require.NoError(t, err)
	assert.IsType(t, &File{}, store)

	store, err = NewContractStore(&config.Contract{DBPath: createContractDB(t, map[int]string{2: itemsContract})})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, store)
	assert.Equal(t, []int{2}, store.SchemaIDs())
}
