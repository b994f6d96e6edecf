package handlers

import (
	"os"

	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/platform/storage"
	"github.com/wallarm/contract-firewall/internal/platform/web"
	"github.com/wallarm/contract-firewall/internal/version"
)

type Health struct {
	// Store returns the contract store currently in use
	Store func() storage.ContractStore

	// Engine is the configured validation engine name
	Engine string
}

// Readiness checks if the contracts are loaded
func (h *Health) Readiness(ctx *fasthttp.RequestCtx) error {

	status := "ok"
	statusCode := fasthttp.StatusOK

	store := h.Store()
	ready := store != nil && store.IsReady()

	var schemaIDs []int
	if ready {
		schemaIDs = store.SchemaIDs()
	}

	if !ready {
		status = "not ready"
		statusCode = fasthttp.StatusInternalServerError
	}

	data := struct {
		Status    string `json:"status"`
		SchemaIDs []int  `json:"schema_ids,omitempty"`
	}{
		Status:    status,
		SchemaIDs: schemaIDs,
	}

	return web.Respond(ctx, data, statusCode)
}

type liveness struct {
	Status    string `json:"status,omitempty"`
	Build     string `json:"build,omitempty"`
	Engine    string `json:"engine,omitempty"`
	Contracts int    `json:"contracts"`
	Host      string `json:"host,omitempty"`
	Pod       string `json:"pod,omitempty"`
	Node      string `json:"node,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// Liveness reports the build, the validation engine and the number of loaded
// contracts. Pod details come from the Kubernetes Downward API variables when set.
func (h *Health) Liveness(ctx *fasthttp.RequestCtx) error {
	data := liveness{
		Status:    "up",
		Build:     version.Version,
		Engine:    h.Engine,
		Pod:       os.Getenv("KUBERNETES_PODNAME"),
		Node:      os.Getenv("KUBERNETES_NODENAME"),
		Namespace: os.Getenv("KUBERNETES_NAMESPACE"),
	}

	if host, err := os.Hostname(); err == nil {
		data.Host = host
	}

	if store := h.Store(); store != nil {
		data.Contracts = len(store.SchemaIDs())
	}

	return web.Respond(ctx, data, fasthttp.StatusOK)
}
