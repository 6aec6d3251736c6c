package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// Anuncio é a publicação de um veículo (ou grupo de repetidos) em uma plataforma
type Anuncio struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	TenantID      uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	PlataformaID  uuid.UUID     `json:"plataforma_id" db:"plataforma_id"`
	VeiculoLojaID *uuid.UUID    `json:"veiculo_loja_id,omitempty" db:"veiculo_loja_id"`
	RepetidoID    *uuid.UUID    `json:"repetido_id,omitempty" db:"repetido_id"`
	Titulo        string        `json:"titulo" db:"titulo"`
	Descricao     *string       `json:"descricao,omitempty" db:"descricao"`
	Preco         *float64      `json:"preco,omitempty" db:"preco"`
	Link          *string       `json:"link,omitempty" db:"link"`
	Status        StatusAnuncio `json:"status" db:"status"`
	Visualizacoes int           `json:"visualizacoes" db:"visualizacoes"`
	Favoritos     int           `json:"favoritos" db:"favoritos"`
	Mensagens     int           `json:"mensagens" db:"mensagens"`
	PublicadoEm   *time.Time    `json:"publicado_em,omitempty" db:"publicado_em"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

type CreateAnuncioRequest struct {
	PlataformaID  uuid.UUID     `json:"plataforma_id" db:"plataforma_id" binding:"required"`
	VeiculoLojaID *uuid.UUID    `json:"veiculo_loja_id,omitempty" db:"veiculo_loja_id"`
	RepetidoID    *uuid.UUID    `json:"repetido_id,omitempty" db:"repetido_id"`
	Titulo        string        `json:"titulo" db:"titulo" binding:"required"`
	Descricao     *string       `json:"descricao,omitempty" db:"descricao"`
	Preco         *float64      `json:"preco,omitempty" db:"preco"`
	Link          *string       `json:"link,omitempty" db:"link"`
	Status        StatusAnuncio `json:"status" db:"status"`
	PublicadoEm   *time.Time    `json:"publicado_em,omitempty" db:"publicado_em"`
}

// Validate exige exatamente um alvo: veículo em loja ou grupo de repetidos
func (r *CreateAnuncioRequest) Validate() error {
	if (r.VeiculoLojaID == nil) == (r.RepetidoID == nil) {
		return errors.NotValidf("anúncio deve referenciar exatamente um de veiculo_loja_id ou repetido_id")
	}
	if r.PlataformaID == uuid.Nil {
		return errors.NotValidf("plataforma ausente")
	}
	if strings.TrimSpace(r.Titulo) == "" {
		return errors.NotValidf("título vazio")
	}
	if r.Status == "" {
		r.Status = StatusAnuncioAtivo
	}
	if !r.Status.Valid() {
		return errors.NotValidf("status %q", r.Status)
	}
	return nil
}

type UpdateAnuncioRequest struct {
	Titulo      *string        `json:"titulo,omitempty" db:"titulo"`
	Descricao   *string        `json:"descricao,omitempty" db:"descricao"`
	Preco       *float64       `json:"preco,omitempty" db:"preco"`
	Link        *string        `json:"link,omitempty" db:"link"`
	Status      *StatusAnuncio `json:"status,omitempty" db:"status"`
	PublicadoEm *time.Time     `json:"publicado_em,omitempty" db:"publicado_em"`
}

func (r *UpdateAnuncioRequest) Validate() error {
	if r.Status != nil && !r.Status.Valid() {
		return errors.NotValidf("status %q", *r.Status)
	}
	return nil
}

// EngajamentoRequest soma contadores de engajamento
type EngajamentoRequest struct {
	Visualizacoes int `json:"visualizacoes"`
	Favoritos     int `json:"favoritos"`
	Mensagens     int `json:"mensagens"`
}

func (r *EngajamentoRequest) Validate() error {
	if r.Visualizacoes < 0 || r.Favoritos < 0 || r.Mensagens < 0 {
		return errors.NotValidf("engajamento negativo")
	}
	return nil
}
