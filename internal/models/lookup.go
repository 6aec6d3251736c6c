package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// Caracteristica é um item opcional de veículo (ar, direção, etc.)
type Caracteristica struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Nome      string    `json:"nome" db:"nome"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Plataforma é um canal de anúncio (OLX, Webmotors...)
type Plataforma struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Nome      string    `json:"nome" db:"nome"`
	URL       *string   `json:"url,omitempty" db:"url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Local é onde o veículo está fisicamente
type Local struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Nome      string    `json:"nome" db:"nome"`
	Endereco  *string   `json:"endereco,omitempty" db:"endereco"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Modelo identifica marca/modelo/versão
type Modelo struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Marca     string    `json:"marca" db:"marca"`
	Nome      string    `json:"nome" db:"nome"`
	Versao    *string   `json:"versao,omitempty" db:"versao"`
	AnoModelo *int      `json:"ano_modelo,omitempty" db:"ano_modelo"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NomeRequest serve para cadastros que só têm nome
type NomeRequest struct {
	Nome string `json:"nome" db:"nome" binding:"required"`
}

func (r *NomeRequest) Validate() error {
	if strings.TrimSpace(r.Nome) == "" {
		return errors.NotValidf("nome vazio")
	}
	return nil
}

type UpdateNomeRequest struct {
	Nome *string `json:"nome,omitempty" db:"nome"`
}

type CreatePlataformaRequest struct {
	Nome string  `json:"nome" db:"nome" binding:"required"`
	URL  *string `json:"url,omitempty" db:"url"`
}

func (r *CreatePlataformaRequest) Validate() error {
	if strings.TrimSpace(r.Nome) == "" {
		return errors.NotValidf("nome vazio")
	}
	return nil
}

type UpdatePlataformaRequest struct {
	Nome *string `json:"nome,omitempty" db:"nome"`
	URL  *string `json:"url,omitempty" db:"url"`
}

type CreateLocalRequest struct {
	Nome     string  `json:"nome" db:"nome" binding:"required"`
	Endereco *string `json:"endereco,omitempty" db:"endereco"`
}

func (r *CreateLocalRequest) Validate() error {
	if strings.TrimSpace(r.Nome) == "" {
		return errors.NotValidf("nome vazio")
	}
	return nil
}

type UpdateLocalRequest struct {
	Nome     *string `json:"nome,omitempty" db:"nome"`
	Endereco *string `json:"endereco,omitempty" db:"endereco"`
}

type CreateModeloRequest struct {
	Marca     string  `json:"marca" db:"marca" binding:"required"`
	Nome      string  `json:"nome" db:"nome" binding:"required"`
	Versao    *string `json:"versao,omitempty" db:"versao"`
	AnoModelo *int    `json:"ano_modelo,omitempty" db:"ano_modelo"`
}

func (r *CreateModeloRequest) Validate() error {
	if strings.TrimSpace(r.Marca) == "" || strings.TrimSpace(r.Nome) == "" {
		return errors.NotValidf("marca e nome são obrigatórios")
	}
	return nil
}

type UpdateModeloRequest struct {
	Marca     *string `json:"marca,omitempty" db:"marca"`
	Nome      *string `json:"nome,omitempty" db:"nome"`
	Versao    *string `json:"versao,omitempty" db:"versao"`
	AnoModelo *int    `json:"ano_modelo,omitempty" db:"ano_modelo"`
}

// Validator é implementado pelos DTOs de escrita
type Validator interface {
	Validate() error
}
