package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func NewRouter(h *Handler, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.RedirectTrailingSlash = false
	r.RemoveExtraSlash = true

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	r.POST("/ingest", h.Ingest)
	r.POST("/ingest/", h.Ingest)

	r.GET("/namespaces", h.Namespaces)
	r.GET("/namespaces/:ns", h.Namespace)

	return r
}
