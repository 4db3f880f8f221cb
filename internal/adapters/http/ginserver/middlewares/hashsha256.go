package middlewares

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mkraev/metricflow/internal/misc"
)

// VerifyHash rejects requests whose HashSHA256 header does not match the
// keyed sum of the (already decompressed) body. With an empty key it is a
// pass-through, mirroring the client side.
func VerifyHash(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	if key == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		got := strings.TrimSpace(c.GetHeader("HashSHA256"))
		if got == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
			return
		}
		if err := c.Request.Body.Close(); err != nil {
			_ = c.Error(err)
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if len(body) > 0 {
			if want := misc.SumSHA256(body, key); !strings.EqualFold(got, want) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid hash"})
				return
			}
		}
		c.Next()
	}
}
