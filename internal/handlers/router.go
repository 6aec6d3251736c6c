package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/metrics"
	"github.com/gestao-concessionaria-api/internal/middleware"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/repository"
	"github.com/gestao-concessionaria-api/internal/services"
	"github.com/gestao-concessionaria-api/internal/session"
)

// RouterDeps são as dependências das rotas
type RouterDeps struct {
	ServiceName string
	Registry    *session.Registry
	Tenants     *repository.TenantRepository
	Fotos       *services.FotoService
	// UploadsPath != "" serve os arquivos do storage local em /uploads
	UploadsPath string
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestID())
	router.Use(logger.Middleware())
	router.Use(metrics.NewHTTPMetrics(d.ServiceName).Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": d.ServiceName})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if d.UploadsPath != "" {
		router.Static("/uploads", d.UploadsPath)
	}

	authHandler := NewAuthHandler()
	tenantHandler := NewTenantHandler(d.Tenants)
	fotoHandler := NewFotoHandler(d.Fotos)
	gestao := middleware.RequirePapel(models.PapelProprietario, models.PapelGerente)

	api := router.Group("/api/v1")
	api.Use(middleware.Session(d.Registry))

	// Public routes
	{
		api.POST("/auth/signup", authHandler.SignUp)
		api.POST("/auth/signin", authHandler.SignIn)
	}

	// autenticado, ainda sem tenant (onboarding)
	authed := api.Group("")
	authed.Use(middleware.Auth())
	{
		authed.GET("/auth/session", authHandler.Session)
		authed.POST("/auth/refresh", authHandler.Refresh)
		authed.POST("/auth/signout", authHandler.SignOut)

		authed.POST("/tenants", tenantHandler.CreateTenant)
		authed.POST("/tenants/convites/aceitar", tenantHandler.AcceptInvite)
		authed.GET("/tenants/memberships", tenantHandler.Memberships)
	}

	tenant := authed.Group("")
	tenant.Use(middleware.RequireTenant())
	{
		tenant.GET("/tenants/atual", tenantHandler.Current)
		tenant.POST("/tenants/convites", gestao, tenantHandler.CreateInvite)

		lojasCRUD.register(tenant, "/lojas", gestao)
		tenant.POST("/lojas/selecao", SelectLoja)

		tenant.GET("/veiculos/placa/:placa", VeiculoPorPlaca)
		tenant.GET("/veiculos/repetidos", GruposRepetidos)
		veiculosCRUD.register(tenant, "/veiculos")

		anunciosCRUD.register(tenant, "/anuncios")
		tenant.POST("/anuncios/:id/engajamento", RegistrarEngajamento)

		tenant.GET("/empresa", EmpresaAtual)
		tenant.POST("/empresa", gestao, CreateEmpresa)
		tenant.PUT("/empresa/:id", gestao, empresaCRUD.Update)

		modelosCRUD.register(tenant, "/modelos")
		locaisCRUD.register(tenant, "/locais")
		caracteristicasCRUD.register(tenant, "/caracteristicas")
		plataformasCRUD.register(tenant, "/plataformas")
		repetidosCRUD.register(tenant, "/repetidos")

		tenant.GET("/dashboard", Dashboard)
	}

	// telas da vitrine dependem da loja selecionada
	vitrine := tenant.Group("/vitrine")
	vitrine.Use(middleware.RequireLoja())
	{
		vitrine.GET("", vitrineCRUD.List)
		vitrine.POST("", CreateVitrine)
		vitrine.GET("/:id", vitrineCRUD.Get)
		vitrine.PUT("/:id", vitrineCRUD.Update)
		vitrine.DELETE("/:id", vitrineCRUD.Delete)

		vitrine.GET("/:id/fotos", fotoHandler.List)
		vitrine.POST("/:id/fotos", fotoHandler.Upload)
		vitrine.DELETE("/:id/fotos/:nome", fotoHandler.Remove)
	}

	return router
}
