package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// Loja é um ponto de venda de um tenant
type Loja struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Nome      string    `json:"nome" db:"nome"`
	Endereco  *string   `json:"endereco,omitempty" db:"endereco"`
	Telefone  *string   `json:"telefone,omitempty" db:"telefone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CreateLojaRequest struct {
	Nome     string  `json:"nome" db:"nome" binding:"required,max=120"`
	Endereco *string `json:"endereco,omitempty" db:"endereco"`
	Telefone *string `json:"telefone,omitempty" db:"telefone"`
}

func (r *CreateLojaRequest) Validate() error {
	if strings.TrimSpace(r.Nome) == "" {
		return errors.NotValidf("nome da loja vazio")
	}
	return nil
}

type UpdateLojaRequest struct {
	Nome     *string `json:"nome,omitempty" db:"nome"`
	Endereco *string `json:"endereco,omitempty" db:"endereco"`
	Telefone *string `json:"telefone,omitempty" db:"telefone"`
}

// Empresa é o cadastro da empresa do tenant
type Empresa struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TenantID     uuid.UUID `json:"tenant_id" db:"tenant_id"`
	RazaoSocial  string    `json:"razao_social" db:"razao_social"`
	NomeFantasia *string   `json:"nome_fantasia,omitempty" db:"nome_fantasia"`
	CNPJ         *string   `json:"cnpj,omitempty" db:"cnpj"`
	Telefone     *string   `json:"telefone,omitempty" db:"telefone"`
	Email        *string   `json:"email,omitempty" db:"email"`
	Endereco     *string   `json:"endereco,omitempty" db:"endereco"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type CreateEmpresaRequest struct {
	RazaoSocial  string  `json:"razao_social" db:"razao_social" binding:"required"`
	NomeFantasia *string `json:"nome_fantasia,omitempty" db:"nome_fantasia"`
	CNPJ         *string `json:"cnpj,omitempty" db:"cnpj"`
	Telefone     *string `json:"telefone,omitempty" db:"telefone"`
	Email        *string `json:"email,omitempty" db:"email"`
	Endereco     *string `json:"endereco,omitempty" db:"endereco"`
}

func (r *CreateEmpresaRequest) Validate() error {
	if strings.TrimSpace(r.RazaoSocial) == "" {
		return errors.NotValidf("razão social vazia")
	}
	return normalizeCNPJ(&r.CNPJ)
}

type UpdateEmpresaRequest struct {
	RazaoSocial  *string `json:"razao_social,omitempty" db:"razao_social"`
	NomeFantasia *string `json:"nome_fantasia,omitempty" db:"nome_fantasia"`
	CNPJ         *string `json:"cnpj,omitempty" db:"cnpj"`
	Telefone     *string `json:"telefone,omitempty" db:"telefone"`
	Email        *string `json:"email,omitempty" db:"email"`
	Endereco     *string `json:"endereco,omitempty" db:"endereco"`
}

func (r *UpdateEmpresaRequest) Validate() error {
	if r.RazaoSocial != nil && strings.TrimSpace(*r.RazaoSocial) == "" {
		return errors.NotValidf("razão social vazia")
	}
	return normalizeCNPJ(&r.CNPJ)
}

// NormalizeCNPJ mantém apenas os dígitos
func NormalizeCNPJ(cnpj string) string {
	return onlyDigits(cnpj)
}

func normalizeCNPJ(cnpj **string) error {
	if *cnpj == nil {
		return nil
	}
	d := onlyDigits(**cnpj)
	if len(d) != 14 {
		return errors.NotValidf("CNPJ %q", **cnpj)
	}
	*cnpj = &d
	return nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
