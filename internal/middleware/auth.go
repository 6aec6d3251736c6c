package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/logger"
)

// Auth valida o Bearer token e o adota como sessão de autenticação do dispositivo.
// Requer o middleware Session antes.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		// "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		sess := SessionFrom(c)
		authSession, err := sess.Auth.Restore(c.Request.Context(), parts[1])
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set("user_id", authSession.User.ID)
		logger.AddFields(c, zap.String("user_id", authSession.User.ID.String()))
		c.Next()
	}
}
