package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/models"
)

// RPC executa as funções do backend com a mesma semântica das funções SQL
func (s *Store) RPC(ctx context.Context, name string, args backend.Row) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case backend.RPCCreateTenant:
		return s.createTenant(args)
	case backend.RPCAcceptTenantInvite:
		return s.acceptInvite(args)
	}
	return nil, errors.NotFoundf("rpc %q", name)
}

func (s *Store) createTenant(args backend.Row) (any, error) {
	userID, err := argUUID(args, "user_id")
	if err != nil {
		return nil, err
	}
	nome, _ := backend.Normalize(args["nome"]).(string)
	if nome == "" {
		return nil, errors.NotValidf("nome")
	}

	if err := s.noActiveMembership(userID, nil); err != nil {
		return nil, err
	}

	tenant, err := s.insertLocked("tenants", backend.Row{"nome": nome, "dominio": args["dominio"]})
	if err != nil {
		return nil, err
	}
	_, err = s.insertLocked("tenant_members", backend.Row{
		"tenant_id": tenant["id"],
		"user_id":   userID,
		"papel":     string(models.PapelProprietario),
		"status":    string(models.StatusMembroAtivo),
	})
	if err != nil {
		return nil, err
	}
	return backend.Normalize(tenant["id"]), nil
}

func (s *Store) acceptInvite(args backend.Row) (any, error) {
	userID, err := argUUID(args, "user_id")
	if err != nil {
		return nil, err
	}
	token, _ := backend.Normalize(args["token"]).(string)

	invites, err := s.match(backend.From("tenant_invites").Eq("token", token).Where(backend.IsNil("accepted_at")))
	if err != nil {
		return nil, err
	}
	if len(invites) == 0 {
		return nil, errors.NotFoundf("convite")
	}
	invite := s.tables["tenant_invites"][invites[0]]
	now := s.clock.Now().UTC()
	if c, ok := backend.Compare(invite["expires_at"], now); ok && c < 0 {
		return nil, errors.NotValidf("convite expirado")
	}

	tenantID := invite["tenant_id"]
	if err := s.noActiveMembership(userID, tenantID); err != nil {
		return nil, err
	}
	member := backend.From("tenant_members").Eq("tenant_id", tenantID).Eq("user_id", userID)
	existing, err := s.match(member)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		_, err = s.updateLocked(member, backend.Row{
			"status": string(models.StatusMembroAtivo),
			"papel":  invite["papel"],
		})
	} else {
		_, err = s.insertLocked("tenant_members", backend.Row{
			"tenant_id": tenantID,
			"user_id":   userID,
			"papel":     invite["papel"],
			"status":    string(models.StatusMembroAtivo),
		})
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.updateLocked(backend.From("tenant_invites").Eq("id", invite["id"]), backend.Row{"accepted_at": now}); err != nil {
		return nil, err
	}
	return backend.Normalize(tenantID), nil
}

// noActiveMembership recusa um segundo vínculo ativo; except é o tenant do
// convite, onde reativar o próprio vínculo é permitido
func (s *Store) noActiveMembership(userID uuid.UUID, except any) error {
	q := backend.From("tenant_members").Eq("user_id", userID).Eq("status", string(models.StatusMembroAtivo))
	if except != nil {
		q = q.Where(backend.Neq("tenant_id", except))
	}
	active, err := s.match(q)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return errors.AlreadyExistsf("vínculo ativo do usuário %s", userID)
	}
	return nil
}

func argUUID(args backend.Row, name string) (uuid.UUID, error) {
	switch v := args[name].(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, errors.NotValidf("%s %q", name, v)
		}
		return id, nil
	}
	return uuid.Nil, errors.NotValidf("%s", name)
}
