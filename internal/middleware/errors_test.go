package middleware_test

import (
	"fmt"
	"net/http"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/hooks"
	"github.com/gestao-concessionaria-api/internal/middleware"
	"github.com/gestao-concessionaria-api/internal/result"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"sem tenant", fmt.Errorf("listar lojas: %w", hooks.ErrDisabled), http.StatusConflict, middleware.CodeTenantRequired},
		{"não encontrado", errors.NotFoundf("loja"), http.StatusNotFound, "not_found"},
		{"validação", errors.NotValidf("placa"), http.StatusBadRequest, "validation_error"},
		{"bad request", errors.BadRequestf("json"), http.StatusBadRequest, "validation_error"},
		{"conflito", fmt.Errorf("%w: anuncio", result.ErrConflict), http.StatusConflict, "conflict"},
		{"já existe", errors.AlreadyExistsf("email"), http.StatusConflict, "conflict"},
		{"token", errors.Unauthorizedf("token expirado"), http.StatusUnauthorized, "unauthorized"},
		{"proibido", errors.Forbiddenf("papel"), http.StatusForbidden, "forbidden"},
		{"backend fora", errors.New("connection refused"), http.StatusBadGateway, "transport_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			status, code := middleware.StatusOf(tt.err)
			c.Assert(status, qt.Equals, tt.status)
			c.Assert(code, qt.Equals, tt.code)
		})
	}
}
