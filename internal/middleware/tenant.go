package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gestao-concessionaria-api/internal/models"
)

// RequireTenant resolve o tenant do usuário e carrega as lojas (o que dispara a
// seleção automática da primeira loja). Usuário sem tenant recebe 409
// tenant_required para seguir para o onboarding.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFrom(c)
		ctx := c.Request.Context()

		tenant, err := sess.Tenant.Tenant(ctx)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if tenant == nil {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "usuário sem tenant", "code": CodeTenantRequired})
			return
		}
		if _, err := sess.Tenant.Lojas(ctx); err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set("tenant_id", tenant.ID)
		c.Next()
	}
}

// RequireLoja exige uma loja selecionada (telas da vitrine)
func RequireLoja() gin.HandlerFunc {
	return func(c *gin.Context) {
		lojaID, ok := SessionFrom(c).Tenant.SelectedLojaID()
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "nenhuma loja selecionada", "code": CodeLojaRequired})
			return
		}
		c.Set("loja_id", lojaID)
		c.Next()
	}
}

// RequirePapel restringe a rota aos papéis informados no tenant atual
func RequirePapel(papeis ...models.PapelMembro) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFrom(c)
		tenantID, ok := sess.Tenant.TenantID()
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "usuário sem tenant", "code": CodeTenantRequired})
			return
		}
		memberships, err := sess.Tenant.Memberships(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		for _, m := range memberships {
			if m.Tenant.ID != tenantID || m.Member.Status != models.StatusMembroAtivo {
				continue
			}
			for _, p := range papeis {
				if m.Member.Papel == p {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("papel %v requerido", papeis)})
	}
}
