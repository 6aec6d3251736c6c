package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/result"
	"github.com/gestao-concessionaria-api/internal/utils"
)

// TenantRepository cuida de tenants, vínculos e convites
type TenantRepository struct {
	tables  backend.TableStore
	tenants *Repository[models.Tenant, somenteLeitura, somenteLeitura]
	members *Repository[models.TenantMember, somenteLeitura, somenteLeitura]
	invites *Repository[models.TenantInvite, novoConvite, somenteLeitura]
}

// vínculos são criados pelas RPCs, nunca diretamente
type somenteLeitura struct{}

type novoConvite struct {
	Email     string             `db:"email"`
	Token     string             `db:"token"`
	Papel     models.PapelMembro `db:"papel"`
	ExpiresAt time.Time          `db:"expires_at"`
}

func NewTenantRepository(tables backend.TableStore) *TenantRepository {
	return &TenantRepository{
		tables:  tables,
		tenants: New[models.Tenant, somenteLeitura, somenteLeitura](tables, TenantsTable),
		members: New[models.TenantMember, somenteLeitura, somenteLeitura](tables, TenantMembersTable),
		invites: New[models.TenantInvite, novoConvite, somenteLeitura](tables, TenantInvitesTable),
	}
}

// ActiveMemberships lista os vínculos ativos do usuário
func (r *TenantRepository) ActiveMemberships(ctx context.Context, userID uuid.UUID) ([]models.TenantMember, error) {
	return r.members.FindWhere(ctx, []backend.Order{{Column: "created_at", Ascending: true}},
		backend.Eq("user_id", userID),
		backend.Eq("status", models.StatusMembroAtivo),
	)
}

// FindTenant devolve Absent quando o tenant não existe
func (r *TenantRepository) FindTenant(ctx context.Context, id uuid.UUID) result.Result[models.Tenant] {
	return r.tenants.FindByID(ctx, id)
}

// Memberships lista todos os vínculos do usuário com os dados do tenant
func (r *TenantRepository) Memberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	members, err := r.members.FindWhere(ctx, []backend.Order{{Column: "created_at", Ascending: true}},
		backend.Eq("user_id", userID))
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []models.Membership{}, nil
	}

	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.TenantID
	}
	tenants, err := r.tenants.FindWhere(ctx, nil, backend.In("id", ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Tenant, len(tenants))
	for _, t := range tenants {
		byID[t.ID] = t
	}

	out := make([]models.Membership, 0, len(members))
	for _, m := range members {
		if t, ok := byID[m.TenantID]; ok {
			out = append(out, models.Membership{Member: m, Tenant: t})
		}
	}
	return out, nil
}

// IsMember verifica se o usuário tem vínculo ativo com o tenant
func (r *TenantRepository) IsMember(ctx context.Context, userID, tenantID uuid.UUID) (bool, error) {
	res := r.members.Count(ctx, map[string]any{
		"user_id":   userID,
		"tenant_id": tenantID,
		"status":    models.StatusMembroAtivo,
	})
	if !res.Success() {
		return false, res.Err
	}
	return *res.Data > 0, nil
}

// CreateTenant cria o tenant com o usuário como proprietário (RPC create_tenant)
func (r *TenantRepository) CreateTenant(ctx context.Context, req models.CreateTenantRequest, userID uuid.UUID) (uuid.UUID, error) {
	if err := req.Validate(); err != nil {
		return uuid.Nil, err
	}
	args := backend.Row{"nome": req.Nome, "user_id": userID, "dominio": nil}
	if req.Dominio != nil {
		if d := utils.NormalizeDominio(*req.Dominio); d != "" {
			args["dominio"] = d
		}
	}
	out, err := r.tables.RPC(ctx, backend.RPCCreateTenant, args)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return parseRPCUUID(out)
}

// AcceptInvite aceita o convite pelo token (RPC accept_tenant_invite)
func (r *TenantRepository) AcceptInvite(ctx context.Context, token string, userID uuid.UUID) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, errors.NotValidf("token vazio")
	}
	out, err := r.tables.RPC(ctx, backend.RPCAcceptTenantInvite, backend.Row{"token": token, "user_id": userID})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to accept invite: %w", err)
	}
	return parseRPCUUID(out)
}

// CreateInvite gera um convite com token aleatório válido por ttl
func (r *TenantRepository) CreateInvite(ctx context.Context, tenantID uuid.UUID, email string, papel models.PapelMembro, ttl time.Duration) result.Result[models.TenantInvite] {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return result.Fail[models.TenantInvite](errors.NotValidf("email vazio"))
	}
	if papel == "" {
		papel = models.PapelVendedor
	}
	token, err := utils.GenerateInviteToken()
	if err != nil {
		return result.Fail[models.TenantInvite](errors.Annotate(err, "failed to generate invite token"))
	}
	return r.invites.WithTenant(tenantID).Create(ctx, novoConvite{
		Email:     email,
		Token:     token,
		Papel:     papel,
		ExpiresAt: time.Now().Add(ttl).UTC(),
	})
}

func parseRPCUUID(out any) (uuid.UUID, error) {
	switch v := out.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, errors.Annotatef(err, "rpc devolveu id inválido %q", v)
		}
		return id, nil
	}
	return uuid.Nil, errors.Errorf("rpc devolveu %T", out)
}
