package handlers

import (
	"net/http"
	"strings"

	"inventory_manager/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "userId"
	ctxIdentity = "identity"
)

func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	id, err := h.services.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(ctxUserID, id.UserID)
	c.Set(ctxIdentity, id)
	c.Next()
}

func identityFrom(c *gin.Context) service.Identity {
	v, _ := c.Get(ctxIdentity)
	id, _ := v.(service.Identity)
	return id
}
