package memory_test

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/backend/memory"
)

func seed(c *qt.C, s *memory.Store, table string, rows ...backend.Row) []backend.Row {
	out := make([]backend.Row, 0, len(rows))
	for _, r := range rows {
		row, err := s.Insert(context.Background(), table, r)
		c.Assert(err, qt.IsNil)
		out = append(out, row)
	}
	return out
}

func TestSelectFiltersOrderAndRange(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := memory.New()
	tenant := uuid.New()
	other := uuid.New()
	seed(c, s, "lojas",
		backend.Row{"tenant_id": tenant, "nome": "Centro"},
		backend.Row{"tenant_id": tenant, "nome": "Avenida"},
		backend.Row{"tenant_id": tenant, "nome": "Bairro"},
		backend.Row{"tenant_id": other, "nome": "Alheia"},
	)

	rows, total, err := s.Select(ctx, backend.From("lojas").Eq("tenant_id", tenant).Order("nome", true).Range(0, 1))
	c.Assert(err, qt.IsNil)
	c.Assert(total, qt.Equals, 3)
	c.Assert(rows, qt.HasLen, 2)
	c.Assert(rows[0]["nome"], qt.Equals, "Avenida")
	c.Assert(rows[1]["nome"], qt.Equals, "Bairro")

	rows, total, err = s.Select(ctx, backend.From("lojas").Eq("tenant_id", tenant.String()).Order("nome", false).Range(2, 10))
	c.Assert(err, qt.IsNil)
	c.Assert(total, qt.Equals, 3)
	c.Assert(rows, qt.HasLen, 1)
	c.Assert(rows[0]["nome"], qt.Equals, "Avenida")
}

func TestSelectILikeAndOr(t *testing.T) {
	tests := []struct {
		name  string
		query *backend.Query
		want  int
	}{
		{"ilike sem diferenciar caixa", backend.From("veiculos").ILike("cor", "%PRA%"), 1},
		{"ilike com _", backend.From("veiculos").ILike("placa", "ABC1_23"), 1},
		{"or de campos", backend.From("veiculos").Or(backend.ILike("placa", "%xyz%"), backend.ILike("cor", "%preto%")), 2},
		{"in", backend.From("veiculos").In("estado_venda", []any{"vendido", "reservado"}), 1},
		{"gte", backend.From("veiculos").Gte("ano_modelo", 2021), 2},
		{"neq", backend.From("veiculos").Neq("estado_venda", "disponivel"), 1},
		{"is nil", backend.From("veiculos").Where(backend.IsNil("preco_venda")), 1},
	}

	c := qt.New(t)
	s := memory.New()
	seed(c, s, "veiculos",
		backend.Row{"placa": "ABC1D23", "cor": "Prata", "ano_modelo": int64(2020), "estado_venda": "disponivel", "preco_venda": 50000.0},
		backend.Row{"placa": "XYZ9876", "cor": "Preto", "ano_modelo": int64(2021), "estado_venda": "vendido", "preco_venda": 70000.0},
		backend.Row{"placa": "JKL0000", "cor": "preto fosco", "ano_modelo": 2022, "estado_venda": "disponivel"},
	)

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			n, err := s.Count(context.Background(), tt.query)
			c.Assert(err, qt.IsNil)
			c.Assert(n, qt.Equals, tt.want)
		})
	}
}

func TestInsertAssignsIDAndTimestamps(t *testing.T) {
	c := qt.New(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := testclock.NewClock(now)
	s := memory.New(memory.WithClock(clk))

	row, err := s.Insert(context.Background(), "lojas", backend.Row{"nome": "Centro"})
	c.Assert(err, qt.IsNil)
	c.Assert(row["id"], qt.Not(qt.Equals), uuid.Nil)
	c.Assert(row["created_at"], qt.Equals, now)

	clk.Advance(time.Hour)
	rows, err := s.Update(context.Background(), backend.From("lojas").Eq("id", row["id"]), backend.Row{"nome": "Centro Novo"})
	c.Assert(err, qt.IsNil)
	c.Assert(rows, qt.HasLen, 1)
	c.Assert(rows[0]["nome"], qt.Equals, "Centro Novo")
	c.Assert(rows[0]["updated_at"], qt.Equals, now.Add(time.Hour))
	c.Assert(rows[0]["created_at"], qt.Equals, now)
}

func TestUniqueViolation(t *testing.T) {
	c := qt.New(t)
	s := memory.New()
	tenant := uuid.New()
	seed(c, s, "veiculos", backend.Row{"tenant_id": tenant, "placa": "ABC1234"})

	_, err := s.Insert(context.Background(), "veiculos", backend.Row{"tenant_id": tenant, "placa": "ABC1234"})
	c.Assert(errors.Is(err, errors.AlreadyExists), qt.IsTrue)

	_, err = s.Insert(context.Background(), "veiculos", backend.Row{"tenant_id": uuid.New(), "placa": "ABC1234"})
	c.Assert(err, qt.IsNil)
}

func TestDeleteReturnsRemovedRows(t *testing.T) {
	c := qt.New(t)
	s := memory.New()
	rows := seed(c, s, "caracteristicas", backend.Row{"nome": "Ar"}, backend.Row{"nome": "Teto"})

	deleted, err := s.Delete(context.Background(), backend.From("caracteristicas").Eq("id", rows[0]["id"]))
	c.Assert(err, qt.IsNil)
	c.Assert(deleted, qt.HasLen, 1)
	c.Assert(deleted[0]["nome"], qt.Equals, "Ar")

	n, err := s.Count(context.Background(), backend.From("caracteristicas"))
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 1)
}

func TestCreateTenantRPC(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := memory.New()
	user := uuid.New()

	id, err := s.RPC(ctx, backend.RPCCreateTenant, backend.Row{"nome": "Auto Center", "user_id": user})
	c.Assert(err, qt.IsNil)

	members, _, err := s.Select(ctx, backend.From("tenant_members").Eq("user_id", user))
	c.Assert(err, qt.IsNil)
	c.Assert(members, qt.HasLen, 1)
	c.Assert(backend.Equal(members[0]["tenant_id"], id), qt.IsTrue)
	c.Assert(members[0]["status"], qt.Equals, "ativo")
	c.Assert(members[0]["papel"], qt.Equals, "proprietario")
}

func TestRPCRejectsSecondActiveMembership(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := memory.New()
	user := uuid.New()

	proprio, err := s.RPC(ctx, backend.RPCCreateTenant, backend.Row{"nome": "Auto Center", "user_id": user})
	c.Assert(err, qt.IsNil)
	_, err = s.RPC(ctx, backend.RPCCreateTenant, backend.Row{"nome": "Outro Grupo", "user_id": user})
	c.Assert(errors.Is(err, errors.AlreadyExists), qt.IsTrue, qt.Commentf("err: %v", err))

	outro := uuid.New()
	seed(c, s, "tenant_invites", backend.Row{
		"tenant_id": outro, "email": "a@b.com", "token": "outro",
		"papel": "vendedor", "expires_at": time.Now().Add(time.Hour),
	})
	_, err = s.RPC(ctx, backend.RPCAcceptTenantInvite, backend.Row{"token": "outro", "user_id": user})
	c.Assert(errors.Is(err, errors.AlreadyExists), qt.IsTrue, qt.Commentf("err: %v", err))

	// o convite recusado continua válido
	n, err := s.Count(ctx, backend.From("tenant_invites").Eq("token", "outro").Where(backend.IsNil("accepted_at")))
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 1)

	// convite para o próprio tenant só atualiza o vínculo
	seed(c, s, "tenant_invites", backend.Row{
		"tenant_id": proprio, "email": "a@b.com", "token": "proprio",
		"papel": "gerente", "expires_at": time.Now().Add(time.Hour),
	})
	_, err = s.RPC(ctx, backend.RPCAcceptTenantInvite, backend.Row{"token": "proprio", "user_id": user})
	c.Assert(err, qt.IsNil)
	n, err = s.Count(ctx, backend.From("tenant_members").Eq("user_id", user).Eq("status", "ativo"))
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 1)
}

func TestAcceptInviteRPC(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		token   string
		expires time.Time
		wantErr func(error) bool
	}{
		{name: "aceita", token: "tok", expires: now.Add(time.Hour)},
		{name: "expirado", token: "tok", expires: now.Add(-time.Hour), wantErr: func(err error) bool { return errors.Is(err, errors.NotValid) }},
		{name: "token desconhecido", token: "outro", expires: now.Add(time.Hour), wantErr: func(err error) bool { return errors.Is(err, errors.NotFound) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			ctx := context.Background()
			s := memory.New(memory.WithClock(testclock.NewClock(now)))
			tenant := uuid.New()
			user := uuid.New()
			seed(c, s, "tenant_invites", backend.Row{
				"tenant_id": tenant, "email": "a@b.com", "token": "tok",
				"papel": "vendedor", "expires_at": tt.expires,
			})

			id, err := s.RPC(ctx, backend.RPCAcceptTenantInvite, backend.Row{"token": tt.token, "user_id": user.String()})
			if tt.wantErr != nil {
				c.Assert(tt.wantErr(err), qt.IsTrue, qt.Commentf("err: %v", err))
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(id, qt.Equals, tenant.String())

			n, err := s.Count(ctx, backend.From("tenant_members").Eq("tenant_id", tenant).Eq("user_id", user).Eq("status", "ativo"))
			c.Assert(err, qt.IsNil)
			c.Assert(n, qt.Equals, 1)

			// convite já aceito não pode ser reutilizado
			_, err = s.RPC(ctx, backend.RPCAcceptTenantInvite, backend.Row{"token": "tok", "user_id": uuid.New().String()})
			c.Assert(errors.Is(err, errors.NotFound), qt.IsTrue)
		})
	}
}
