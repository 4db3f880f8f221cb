// Package ginserver exposes the dev ingestion endpoint: it accepts the same
// batches the httpjson backend client sends and keeps them in memory for
// inspection. It stands in for the real ingestion service during local runs.
package ginserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mkraev/metricflow/internal/domain"
	"github.com/mkraev/metricflow/internal/ports"
)

// Handler serves the ingest and inspection endpoints.
type Handler struct {
	store ports.BatchStore
}

// NewHandler wires a batch store into a gin-compatible HTTP handler.
func NewHandler(store ports.BatchStore) *Handler {
	return &Handler{store: store}
}

func decodeBatch(r io.Reader) (domain.Batch, error) {
	var b domain.Batch
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return domain.Batch{}, err
	}
	return b, nil
}

// Ingest handles `POST /ingest`.
func (h *Handler) Ingest(c *gin.Context) {
	batch, err := decodeBatch(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad batch payload"})
		return
	}
	if strings.TrimSpace(batch.Namespace) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "namespace required"})
		return
	}
	if len(batch.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty batch"})
		return
	}

	if err := h.store.Record(c.Request.Context(), batch); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": len(batch.Records)})
}

// Namespaces handles `GET /namespaces`.
func (h *Handler) Namespaces(c *gin.Context) {
	names, err := h.store.Namespaces(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"namespaces": names})
}

// Namespace handles `GET /namespaces/:ns` and returns the latest batch.
func (h *Handler) Namespace(c *gin.Context) {
	ns := c.Param("ns")
	batch, err := h.store.Latest(c.Request.Context(), ns)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown namespace"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failed"})
	default:
		c.JSON(http.StatusOK, batch)
	}
}

// Ping handles `GET /ping`.
func (h *Handler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}
