package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/middleware"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/repository"
	"github.com/gestao-concessionaria-api/internal/result"
	"github.com/gestao-concessionaria-api/internal/services"
)

// SelectLojaRequest troca a loja selecionada; loja_id nulo limpa a seleção
type SelectLojaRequest struct {
	LojaID *uuid.UUID `json:"loja_id"`
}

// SelectLoja seleciona a loja. reload_required indica que a página atual do
// cliente depende da loja e foi descartada do cache.
func SelectLoja(c *gin.Context) {
	var req SelectLojaRequest
	if !bindJSON(c, &req) {
		return
	}
	id := uuid.Nil
	if req.LojaID != nil {
		id = *req.LojaID
	}
	sess := middleware.SessionFrom(c)
	if _, err := sess.SelectLoja(c.Request.Context(), id); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	resp := gin.H{"loja_id": nil, "reload_required": sess.ReloadRequired()}
	if selected, ok := sess.Tenant.SelectedLojaID(); ok {
		resp["loja_id"] = selected
	}
	c.JSON(http.StatusOK, resp)
}

// VeiculoPorPlaca busca pela placa, com ou sem hífen
func VeiculoPorPlaca(c *gin.Context) {
	repo, err := middleware.SessionFrom(c).Hooks.Veiculos.Repo()
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	v, err := (&repository.VeiculoRepository{Repository: repo}).FindByPlaca(c.Request.Context(), c.Param("placa")).Unwrap()
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	if v == nil {
		notFound(c, "veículo")
		return
	}
	c.JSON(http.StatusOK, v)
}

// GruposRepetidos lista os candidatos a anúncio agrupado
func GruposRepetidos(c *gin.Context) {
	grupos, err := middleware.SessionFrom(c).Hooks.GruposRepetidos(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, grupos)
}

// CreateVitrineRequest é o CreateVeiculoLojaRequest com loja opcional
type CreateVitrineRequest struct {
	VeiculoID uuid.UUID  `json:"veiculo_id" binding:"required"`
	LojaID    *uuid.UUID `json:"loja_id,omitempty"`
	Preco     *float64   `json:"preco,omitempty"`
}

// CreateVitrine coloca um veículo na loja; sem loja_id usa a loja selecionada
func CreateVitrine(c *gin.Context) {
	var req CreateVitrineRequest
	if !bindJSON(c, &req) {
		return
	}
	sess := middleware.SessionFrom(c)
	in := models.CreateVeiculoLojaRequest{VeiculoID: req.VeiculoID, Preco: req.Preco}
	in.LojaID = c.MustGet("loja_id").(uuid.UUID)
	if req.LojaID != nil && *req.LojaID != in.LojaID {
		lojas, err := sess.Tenant.Lojas(c.Request.Context())
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		if !lojaDoTenant(lojas, *req.LojaID) {
			middleware.AbortWithError(c, errors.NotFoundf("loja %s", *req.LojaID))
			return
		}
		in.LojaID = *req.LojaID
	}
	if err := ofTenant(c.Request.Context(), sess.Hooks.Veiculos, in.VeiculoID, "veículo"); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	vl, err := sess.Hooks.Vitrine.Create(c.Request.Context(), in)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vl)
}

func lojaDoTenant(lojas []models.Loja, id uuid.UUID) bool {
	for _, l := range lojas {
		if l.ID == id {
			return true
		}
	}
	return false
}

// RegistrarEngajamento soma visualizações, favoritos e mensagens a um anúncio
func RegistrarEngajamento(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.EngajamentoRequest
	if !bindJSON(c, &req) {
		return
	}
	anuncio, err := middleware.SessionFrom(c).Hooks.RegistrarEngajamento(c.Request.Context(), id, req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, anuncio)
}

// EmpresaAtual devolve o cadastro da empresa do tenant
func EmpresaAtual(c *gin.Context) {
	empresa, err := empresaAtual(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	if empresa == nil {
		notFound(c, "empresa")
		return
	}
	c.JSON(http.StatusOK, empresa)
}

// CreateEmpresa cadastra a empresa; o tenant tem no máximo uma
func CreateEmpresa(c *gin.Context) {
	existing, err := empresaAtual(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	if existing != nil {
		middleware.AbortWithError(c, fmt.Errorf("%w: empresa já cadastrada", result.ErrConflict))
		return
	}
	empresaCRUD.Create(c)
}

func empresaAtual(c *gin.Context) (*models.Empresa, error) {
	page, err := middleware.SessionFrom(c).Hooks.Empresa.List(c.Request.Context(), repository.FindOptions{
		Pagination: &repository.Pagination{Page: 1, Limit: 1},
	})
	if err != nil || page == nil || len(page.Items) == 0 {
		return nil, err
	}
	return &page.Items[0], nil
}

// FotoHandler envia, lista e remove fotos de um veículo na loja
type FotoHandler struct {
	fotos *services.FotoService
}

func NewFotoHandler(fotos *services.FotoService) *FotoHandler {
	return &FotoHandler{fotos: fotos}
}

func (h *FotoHandler) List(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	fotos, err := h.fotos.List(c.Request.Context(), middleware.SessionFrom(c).Hooks.Vitrine, id)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, fotos)
}

// Upload recebe o arquivo no campo multipart "foto"
func (h *FotoHandler) Upload(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("foto")
	if err != nil {
		middleware.AbortWithError(c, errors.NewNotValid(err, "campo foto ausente"))
		return
	}
	foto, err := h.fotos.Upload(c.Request.Context(), middleware.SessionFrom(c).Hooks.Vitrine, id, file)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, foto)
}

func (h *FotoHandler) Remove(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.fotos.Remove(c.Request.Context(), middleware.SessionFrom(c).Hooks.Vitrine, id, c.Param("nome")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dashboard devolve o resumo do painel
func Dashboard(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	resumo, err := services.NewDashboardService(sess.Hooks, sess.Tenant).Resumo(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resumo)
}
