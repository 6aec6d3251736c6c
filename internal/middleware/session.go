package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gestao-concessionaria-api/internal/session"
)

const (
	// DeviceHeader identifica o cliente (uma aba/app) entre requisições
	DeviceHeader = "X-Device-ID"
	// PathHeader é a página exibida pelo cliente, usada na política de recarga
	PathHeader = "X-Client-Path"

	sessionKey = "session"
)

// Session resolve a sessão do dispositivo e registra a página atual
func Session(reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := c.GetHeader(DeviceHeader)
		if deviceID == "" || len(deviceID) > 128 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": DeviceHeader + " header required"})
			return
		}

		sess := reg.Get(c.Request.Context(), deviceID)
		if path := c.GetHeader(PathHeader); path != "" {
			sess.Navigate(path)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// SessionFrom devolve a sessão resolvida pelo middleware Session
func SessionFrom(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
