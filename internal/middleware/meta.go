package middleware

import "github.com/gin-gonic/gin"

const (
	responseMetaKey = "response_meta"
	sourceKey       = "source"
	degradedKey     = "degraded"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetSource records which backend served the request.
func SetSource(c *gin.Context, source string) {
	if source == "" {
		return
	}
	ensureMeta(c)[sourceKey] = source
}

// SetDegraded flags a write that did not reach the primary backend.
func SetDegraded(c *gin.Context, degraded bool) {
	if !degraded {
		return
	}
	ensureMeta(c)[degradedKey] = true
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
