package api

import (
	"net/http"
	"strings"

	"github.com/Freeeeeet/tutor_sessions/internal/token"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

// requireAuth проверяет bearer access-токен и сохраняет id вызывающего
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.authenticate(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing access token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// optionalAuth сохраняет id вызывающего, если есть валидный bearer-токен
func (h *Handler) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := h.authenticate(c); ok {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.svc.Users.GetByID(c.Request.Context(), c.GetInt64(userIDKey))
		if err != nil || !user.IsAdmin {
			h.logger.Warn("Admin route denied", zap.Int64("user_id", c.GetInt64(userIDKey)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func (h *Handler) authenticate(c *gin.Context) (int64, bool) {
	header := c.GetHeader("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return 0, false
	}

	claims, err := h.verifier.Verify(strings.TrimSpace(raw))
	if err != nil || claims.Purpose != token.PurposeAccess || claims.UserID == 0 {
		return 0, false
	}
	return claims.UserID, true
}

func currentUser(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

func optionalUser(c *gin.Context) *int64 {
	if _, ok := c.Get(userIDKey); !ok {
		return nil
	}
	id := c.GetInt64(userIDKey)
	return &id
}
