package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gestao-concessionaria-api/internal/hooks"
	"github.com/gestao-concessionaria-api/internal/middleware"
	"github.com/gestao-concessionaria-api/internal/session"
)

// crud expõe os hooks de uma entidade como rotas REST
type crud[R, I, U any] struct {
	name     string
	entity   func(*session.Session) *hooks.Entity[R, I, U]
	filters  map[string]filter
	sortable []string
	// beforeCreate valida as referências do corpo contra o tenant da sessão
	beforeCreate func(context.Context, *session.Session, *I) error
	// afterWrite roda depois de toda mutação bem sucedida
	afterWrite func(*session.Session)
}

func (h *crud[R, I, U]) register(g *gin.RouterGroup, path string, write ...gin.HandlerFunc) {
	r := g.Group(path)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.POST("", chain(write, h.Create)...)
	r.PUT("/:id", chain(write, h.Update)...)
	r.DELETE("/:id", chain(write, h.Delete)...)
}

func chain(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mw)+1)
	return append(append(out, mw...), h)
}

func (h *crud[R, I, U]) List(c *gin.Context) {
	opts, err := listOptions(c, h.filters, h.sortable)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	page, err := h.entity(middleware.SessionFrom(c)).List(c.Request.Context(), opts)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *crud[R, I, U]) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := h.entity(middleware.SessionFrom(c)).Get(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	if row == nil {
		notFound(c, h.name)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *crud[R, I, U]) Create(c *gin.Context) {
	var in I
	if !bindJSON(c, &in) {
		return
	}
	sess := middleware.SessionFrom(c)
	if h.beforeCreate != nil {
		if err := h.beforeCreate(c.Request.Context(), sess, &in); err != nil {
			middleware.AbortWithError(c, err)
			return
		}
	}
	row, err := h.entity(sess).Create(c.Request.Context(), in)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	h.wrote(sess)
	c.JSON(http.StatusCreated, row)
}

// Update aceita If-Match com o updated_at lido; se a linha mudou desde então, 409
func (h *crud[R, I, U]) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	expected, conditional, err := ifMatch(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	var in U
	if !bindJSON(c, &in) {
		return
	}

	sess := middleware.SessionFrom(c)
	entity := h.entity(sess)
	var row *R
	if conditional {
		row, err = entity.UpdateIfUnmodified(c.Request.Context(), id, expected, in)
	} else {
		row, err = entity.Update(c.Request.Context(), id, in)
	}
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	h.wrote(sess)
	c.JSON(http.StatusOK, row)
}

func (h *crud[R, I, U]) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sess := middleware.SessionFrom(c)
	if _, err := h.entity(sess).Delete(c.Request.Context(), id); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	h.wrote(sess)
	c.Status(http.StatusNoContent)
}

func (h *crud[R, I, U]) wrote(sess *session.Session) {
	if h.afterWrite != nil {
		h.afterWrite(sess)
	}
}
