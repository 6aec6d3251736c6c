package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// Placa antiga (ABC1234) ou Mercosul (ABC1D23)
var placaRegex = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z0-9][0-9]{2}$`)

// NormalizePlaca remove separadores e coloca em caixa alta
func NormalizePlaca(p string) string {
	p = strings.ToUpper(strings.TrimSpace(p))
	return strings.NewReplacer("-", "", " ", "").Replace(p)
}

// Veiculo é um veículo do estoque do tenant
type Veiculo struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	TenantID      uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	Placa         string        `json:"placa" db:"placa"`
	Cor           string        `json:"cor" db:"cor"`
	ModeloID      uuid.UUID     `json:"modelo_id" db:"modelo_id"`
	AnoFabricacao int           `json:"ano_fabricacao" db:"ano_fabricacao"`
	AnoModelo     int           `json:"ano_modelo" db:"ano_modelo"`
	EstadoVenda   EstadoVenda   `json:"estado_venda" db:"estado_venda"`
	EstadoVeiculo EstadoVeiculo `json:"estado_veiculo" db:"estado_veiculo"`
	PrecoVenda    *float64      `json:"preco_venda,omitempty" db:"preco_venda"`
	Hodometro     int           `json:"hodometro" db:"hodometro"`
	LocalID       *uuid.UUID    `json:"local_id,omitempty" db:"local_id"`
	Observacao    *string       `json:"observacao,omitempty" db:"observacao"`
	VendidoEm     *time.Time    `json:"vendido_em,omitempty" db:"vendido_em"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

type CreateVeiculoRequest struct {
	Placa         string        `json:"placa" db:"placa" binding:"required"`
	Cor           string        `json:"cor" db:"cor" binding:"required"`
	ModeloID      uuid.UUID     `json:"modelo_id" db:"modelo_id" binding:"required"`
	AnoFabricacao int           `json:"ano_fabricacao" db:"ano_fabricacao" binding:"required"`
	AnoModelo     int           `json:"ano_modelo" db:"ano_modelo" binding:"required"`
	EstadoVenda   EstadoVenda   `json:"estado_venda" db:"estado_venda"`
	EstadoVeiculo EstadoVeiculo `json:"estado_veiculo" db:"estado_veiculo" binding:"required"`
	PrecoVenda    *float64      `json:"preco_venda,omitempty" db:"preco_venda"`
	Hodometro     int           `json:"hodometro" db:"hodometro"`
	LocalID       *uuid.UUID    `json:"local_id,omitempty" db:"local_id"`
	Observacao    *string       `json:"observacao,omitempty" db:"observacao"`
}

// Validate normaliza a placa e aplica o estado de venda padrão
func (r *CreateVeiculoRequest) Validate() error {
	r.Placa = NormalizePlaca(r.Placa)
	if !placaRegex.MatchString(r.Placa) {
		return errors.NotValidf("placa %q", r.Placa)
	}
	if strings.TrimSpace(r.Cor) == "" {
		return errors.NotValidf("cor vazia")
	}
	if r.ModeloID == uuid.Nil {
		return errors.NotValidf("modelo ausente")
	}
	if r.AnoModelo < r.AnoFabricacao || r.AnoModelo > r.AnoFabricacao+1 {
		return errors.NotValidf("ano modelo %d para fabricação %d", r.AnoModelo, r.AnoFabricacao)
	}
	if r.EstadoVenda == "" {
		r.EstadoVenda = EstadoVendaDisponivel
	}
	if !r.EstadoVenda.Valid() {
		return errors.NotValidf("estado de venda %q", r.EstadoVenda)
	}
	if !r.EstadoVeiculo.Valid() {
		return errors.NotValidf("estado do veículo %q", r.EstadoVeiculo)
	}
	if r.Hodometro < 0 {
		return errors.NotValidf("hodômetro negativo")
	}
	if r.PrecoVenda != nil && *r.PrecoVenda < 0 {
		return errors.NotValidf("preço negativo")
	}
	return nil
}

type UpdateVeiculoRequest struct {
	Placa         *string        `json:"placa,omitempty" db:"placa"`
	Cor           *string        `json:"cor,omitempty" db:"cor"`
	ModeloID      *uuid.UUID     `json:"modelo_id,omitempty" db:"modelo_id"`
	AnoFabricacao *int           `json:"ano_fabricacao,omitempty" db:"ano_fabricacao"`
	AnoModelo     *int           `json:"ano_modelo,omitempty" db:"ano_modelo"`
	EstadoVenda   *EstadoVenda   `json:"estado_venda,omitempty" db:"estado_venda"`
	EstadoVeiculo *EstadoVeiculo `json:"estado_veiculo,omitempty" db:"estado_veiculo"`
	PrecoVenda    *float64       `json:"preco_venda,omitempty" db:"preco_venda"`
	Hodometro     *int           `json:"hodometro,omitempty" db:"hodometro"`
	LocalID       *uuid.UUID     `json:"local_id,omitempty" db:"local_id"`
	Observacao    *string        `json:"observacao,omitempty" db:"observacao"`
	VendidoEm     *time.Time     `json:"vendido_em,omitempty" db:"vendido_em"`
}

func (r *UpdateVeiculoRequest) Validate() error {
	if r.Placa != nil {
		p := NormalizePlaca(*r.Placa)
		if !placaRegex.MatchString(p) {
			return errors.NotValidf("placa %q", p)
		}
		r.Placa = &p
	}
	if r.EstadoVenda != nil && !r.EstadoVenda.Valid() {
		return errors.NotValidf("estado de venda %q", *r.EstadoVenda)
	}
	if r.EstadoVeiculo != nil && !r.EstadoVeiculo.Valid() {
		return errors.NotValidf("estado do veículo %q", *r.EstadoVeiculo)
	}
	if r.Hodometro != nil && *r.Hodometro < 0 {
		return errors.NotValidf("hodômetro negativo")
	}
	return nil
}

// VeiculoLoja é a exposição de um veículo em uma loja (vitrine)
type VeiculoLoja struct {
	ID         uuid.UUID `json:"id" db:"id"`
	VeiculoID  uuid.UUID `json:"veiculo_id" db:"veiculo_id"`
	LojaID     uuid.UUID `json:"loja_id" db:"loja_id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Preco      *float64  `json:"preco,omitempty" db:"preco"`
	PastaFotos *string   `json:"pasta_fotos,omitempty" db:"pasta_fotos"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type CreateVeiculoLojaRequest struct {
	VeiculoID  uuid.UUID `json:"veiculo_id" db:"veiculo_id" binding:"required"`
	LojaID     uuid.UUID `json:"loja_id" db:"loja_id" binding:"required"`
	Preco      *float64  `json:"preco,omitempty" db:"preco"`
	PastaFotos *string   `json:"pasta_fotos,omitempty" db:"pasta_fotos"`
}

func (r *CreateVeiculoLojaRequest) Validate() error {
	if r.VeiculoID == uuid.Nil || r.LojaID == uuid.Nil {
		return errors.NotValidf("veículo e loja são obrigatórios")
	}
	if r.Preco != nil && *r.Preco < 0 {
		return errors.NotValidf("preço negativo")
	}
	return nil
}

type UpdateVeiculoLojaRequest struct {
	Preco      *float64 `json:"preco,omitempty" db:"preco"`
	PastaFotos *string  `json:"pasta_fotos,omitempty" db:"pasta_fotos"`
}

// Repetido agrupa veículos iguais (modelo, cor, ano) anunciados como um só
type Repetido struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	ModeloID   uuid.UUID `json:"modelo_id" db:"modelo_id"`
	Cor        string    `json:"cor" db:"cor"`
	AnoModelo  int       `json:"ano_modelo" db:"ano_modelo"`
	Quantidade int       `json:"quantidade" db:"quantidade"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type CreateRepetidoRequest struct {
	ModeloID   uuid.UUID `json:"modelo_id" db:"modelo_id" binding:"required"`
	Cor        string    `json:"cor" db:"cor" binding:"required"`
	AnoModelo  int       `json:"ano_modelo" db:"ano_modelo" binding:"required"`
	Quantidade int       `json:"quantidade" db:"quantidade"`
}

func (r *CreateRepetidoRequest) Validate() error {
	if r.ModeloID == uuid.Nil || strings.TrimSpace(r.Cor) == "" {
		return errors.NotValidf("modelo e cor são obrigatórios")
	}
	if r.Quantidade < 2 {
		return errors.NotValidf("quantidade %d", r.Quantidade)
	}
	return nil
}

type UpdateRepetidoRequest struct {
	Quantidade *int `json:"quantidade,omitempty" db:"quantidade"`
}

// GrupoRepetido é o resultado do agrupamento de veículos disponíveis
type GrupoRepetido struct {
	ModeloID   uuid.UUID   `json:"modelo_id"`
	Cor        string      `json:"cor"`
	AnoModelo  int         `json:"ano_modelo"`
	Quantidade int         `json:"quantidade"`
	VeiculoIDs []uuid.UUID `json:"veiculo_ids"`
}
