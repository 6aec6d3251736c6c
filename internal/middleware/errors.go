package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/hooks"
	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/result"
)

// Códigos de erro devolvidos no campo "code"
const (
	CodeTenantRequired = "tenant_required"
	CodeLojaRequired   = "loja_required"
)

// StatusOf traduz um erro para o status HTTP e o código da resposta
func StatusOf(err error) (int, string) {
	switch {
	case errors.Is(err, hooks.ErrDisabled):
		return http.StatusConflict, CodeTenantRequired
	case errors.Is(err, errors.Unauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errors.Forbidden):
		return http.StatusForbidden, "forbidden"
	}
	switch result.Classify(err) {
	case result.NotFound:
		return http.StatusNotFound, result.NotFound.String()
	case result.ValidationError:
		return http.StatusBadRequest, result.ValidationError.String()
	case result.Conflict:
		return http.StatusConflict, result.Conflict.String()
	}
	return http.StatusBadGateway, result.TransportError.String()
}

// AbortWithError responde o erro no formato {"error", "code"} e interrompe a cadeia
func AbortWithError(c *gin.Context, err error) {
	status, code := StatusOf(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		logger.FromGin(c).Error("backend request failed", zap.Error(err))
		// detalhes do backend não vão para o cliente
		c.AbortWithStatusJSON(status, gin.H{"error": "falha ao acessar o backend", "code": code})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}
