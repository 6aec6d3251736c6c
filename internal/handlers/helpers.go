package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/middleware"
	"github.com/gestao-concessionaria-api/internal/repository"
)

// filter converte um parâmetro de query em valor de coluna
type filter struct {
	column string
	parse  func(string) (any, error)
}

func textFilter(column string) filter {
	return filter{column: column, parse: func(s string) (any, error) { return s, nil }}
}

func idFilter(column string) filter {
	return filter{column: column, parse: func(s string) (any, error) {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errors.NotValidf("%s %q", column, s)
		}
		return id, nil
	}}
}

func intFilter(column string) filter {
	return filter{column: column, parse: func(s string) (any, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.NotValidf("%s %q", column, s)
		}
		return n, nil
	}}
}

// listOptions lê page, limit, q, sort e order além dos filtros permitidos
func listOptions(c *gin.Context, filters map[string]filter, sortable []string) (repository.FindOptions, error) {
	var opts repository.FindOptions

	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	if page > 0 || limit > 0 {
		opts.Pagination = &repository.Pagination{Page: page, Limit: limit}
	}

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		opts.Search = &repository.Search{Term: q}
	}

	if field := c.Query("sort"); field != "" {
		allowed := false
		for _, s := range sortable {
			if s == field {
				allowed = true
				break
			}
		}
		if !allowed {
			return opts, errors.NotValidf("ordenação por %q", field)
		}
		dir := "asc"
		if strings.EqualFold(c.Query("order"), "desc") {
			dir = "desc"
		}
		opts.Sort = &repository.Sort{Field: field, Direction: dir}
	}

	for param, f := range filters {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		v, err := f.parse(raw)
		if err != nil {
			return opts, err
		}
		if opts.Filters == nil {
			opts.Filters = map[string]any{}
		}
		opts.Filters[f.column] = v
	}
	return opts, nil
}

// pathID lê um uuid da rota; responde 400 quando inválido
func pathID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		middleware.AbortWithError(c, errors.NotValidf("id %q", c.Param(param)))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON faz o bind e trata falhas como erro de validação
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.AbortWithError(c, errors.NewNotValid(err, "dados inválidos"))
		return false
	}
	return true
}

// ifMatch lê o updated_at esperado do header If-Match (RFC3339)
func ifMatch(c *gin.Context) (time.Time, bool, error) {
	raw := strings.Trim(c.GetHeader("If-Match"), `"`)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, errors.NotValidf("If-Match %q", raw)
	}
	return t, true, nil
}

func notFound(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": what + " não encontrado", "code": "not_found"})
}
