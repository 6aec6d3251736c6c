package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gestao-concessionaria-api/internal/middleware"
	"github.com/gestao-concessionaria-api/internal/models"
)

// AuthHandler opera o estado de autenticação da sessão do dispositivo
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// SignUp cadastra e já autentica o usuário
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := middleware.SessionFrom(c).Auth.SignUp(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := middleware.SessionFrom(c).Auth.SignIn(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// SignOut descarta a autenticação e o cache de consultas do dispositivo
func (h *AuthHandler) SignOut(c *gin.Context) {
	middleware.SessionFrom(c).Auth.SignOut()
	c.Status(http.StatusNoContent)
}

// Session devolve a sessão atual (o token já foi validado pelo middleware)
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.SessionFrom(c).Auth.Session())
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	sess, err := middleware.SessionFrom(c).Auth.Refresh(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
