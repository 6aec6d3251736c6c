package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// User é o usuário autenticado
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Nome         *string   `json:"nome,omitempty" db:"nome"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Tenant é a organização dona dos dados (grupo de concessionárias)
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Nome      string    `json:"nome" db:"nome"`
	Dominio   *string   `json:"dominio,omitempty" db:"dominio"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TenantMember liga um usuário a um tenant
type TenantMember struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	TenantID  uuid.UUID    `json:"tenant_id" db:"tenant_id"`
	UserID    uuid.UUID    `json:"user_id" db:"user_id"`
	Papel     PapelMembro  `json:"papel" db:"papel"`
	Status    StatusMembro `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// TenantInvite é um convite pendente para entrar em um tenant
type TenantInvite struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	TenantID   uuid.UUID   `json:"tenant_id" db:"tenant_id"`
	Email      string      `json:"email" db:"email"`
	Token      string      `json:"-" db:"token"`
	Papel      PapelMembro `json:"papel" db:"papel"`
	ExpiresAt  time.Time   `json:"expires_at" db:"expires_at"`
	AcceptedAt *time.Time  `json:"accepted_at,omitempty" db:"accepted_at"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

// Membership é a visão de um vínculo com os dados do tenant
type Membership struct {
	Member TenantMember `json:"member"`
	Tenant Tenant       `json:"tenant"`
}

// CreateTenantRequest cria um tenant tendo o usuário atual como proprietário
type CreateTenantRequest struct {
	Nome    string  `json:"nome" binding:"required,min=2,max=120"`
	Dominio *string `json:"dominio,omitempty" binding:"omitempty,max=120"`
}

func (r *CreateTenantRequest) Validate() error {
	if strings.TrimSpace(r.Nome) == "" {
		return errors.NotValidf("nome do tenant vazio")
	}
	return nil
}

// AcceptInviteRequest aceita um convite pelo token
type AcceptInviteRequest struct {
	Token string `json:"token" binding:"required"`
}

// CreateInviteRequest convida um email para o tenant atual
type CreateInviteRequest struct {
	Email string      `json:"email" binding:"required,email"`
	Papel PapelMembro `json:"papel,omitempty"`
}

// SignUpRequest cadastra um usuário
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Nome     string `json:"nome"`
}

// SignInRequest autentica um usuário
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthSession é a sessão emitida pelo serviço de autenticação
type AuthSession struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}
