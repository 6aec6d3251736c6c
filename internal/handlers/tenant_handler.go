package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/middleware"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/querycache"
	"github.com/gestao-concessionaria-api/internal/repository"
	"github.com/gestao-concessionaria-api/internal/session"
)

// DefaultInviteTTL é a validade de um convite
const DefaultInviteTTL = 7 * 24 * time.Hour

type TenantHandler struct {
	tenants   *repository.TenantRepository
	inviteTTL time.Duration
}

func NewTenantHandler(tenants *repository.TenantRepository) *TenantHandler {
	return &TenantHandler{tenants: tenants, inviteTTL: DefaultInviteTTL}
}

// CreateTenant cria o tenant com o usuário autenticado como proprietário (onboarding)
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req models.CreateTenantRequest
	if !bindJSON(c, &req) {
		return
	}
	sess := middleware.SessionFrom(c)
	user := sess.Auth.User()

	tenantID, err := h.tenants.CreateTenant(c.Request.Context(), req, user.ID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	h.membershipChanged(sess)
	h.respondTenant(c, sess, http.StatusCreated, tenantID.String())
}

// AcceptInvite aceita um convite e passa a ser membro do tenant
func (h *TenantHandler) AcceptInvite(c *gin.Context) {
	var req models.AcceptInviteRequest
	if !bindJSON(c, &req) {
		return
	}
	sess := middleware.SessionFrom(c)
	user := sess.Auth.User()

	tenantID, err := h.tenants.AcceptInvite(c.Request.Context(), req.Token, user.ID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	h.membershipChanged(sess)
	h.respondTenant(c, sess, http.StatusOK, tenantID.String())
}

// CreateInvite convida um email para o tenant atual. O token só é exibido aqui.
func (h *TenantHandler) CreateInvite(c *gin.Context) {
	var req models.CreateInviteRequest
	if !bindJSON(c, &req) {
		return
	}
	tenantID, _ := middleware.SessionFrom(c).Tenant.TenantID()

	invite, err := h.tenants.CreateInvite(c.Request.Context(), tenantID, req.Email, req.Papel, h.inviteTTL).Unwrap()
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"convite": invite, "token": invite.Token})
}

// Current devolve o tenant, as lojas e a loja selecionada: o contexto da aplicação
func (h *TenantHandler) Current(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	ctx := c.Request.Context()

	tenant, err := sess.Tenant.Tenant(ctx)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	lojas, err := sess.Tenant.Lojas(ctx)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	resp := gin.H{"tenant": tenant, "lojas": lojas, "loja_selecionada": nil}
	if id, ok := sess.Tenant.SelectedLojaID(); ok {
		resp["loja_selecionada"] = id
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TenantHandler) Memberships(c *gin.Context) {
	ms, err := middleware.SessionFrom(c).Tenant.Memberships(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ms)
}

// o realtime também invalida, mas a resposta abaixo precisa do dado novo
func (h *TenantHandler) membershipChanged(sess *session.Session) {
	sess.Cache.InvalidateQueries(querycache.Key{"tenant"})
}

// a mutação já aconteceu; se o tenant ficou ambíguo a resposta leva só o id
func (h *TenantHandler) respondTenant(c *gin.Context, sess *session.Session, status int, tenantID string) {
	resp := gin.H{"tenant_id": tenantID, "tenant": nil}
	if tenant, err := sess.Tenant.Tenant(c.Request.Context()); err == nil {
		resp["tenant"] = tenant
	} else {
		logger.FromGin(c).Warn("tenant not resolvable after membership change", zap.Error(err))
	}
	c.JSON(status, resp)
}
