package postgres

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/models"
)

func TestBuildSelect(t *testing.T) {
	tenant := uuid.New()
	tests := []struct {
		name     string
		query    *backend.Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "sem filtros",
			query:   backend.From("lojas"),
			wantSQL: `SELECT * FROM "public"."lojas"`,
		},
		{
			name:     "tenant, ordem e range",
			query:    backend.From("lojas").Eq("tenant_id", tenant).Order("nome", true).Range(20, 39),
			wantSQL:  `SELECT * FROM "public"."lojas" WHERE "tenant_id" = $1 ORDER BY "nome" ASC LIMIT 20 OFFSET 20`,
			wantArgs: []any{tenant},
		},
		{
			name: "busca com or",
			query: backend.From("veiculos").Eq("tenant_id", tenant).
				Or(backend.ILike("placa", "%abc%"), backend.ILike("cor", "%abc%")),
			wantSQL:  `SELECT * FROM "public"."veiculos" WHERE "tenant_id" = $1 AND ("placa"::text ILIKE $2 OR "cor"::text ILIKE $3)`,
			wantArgs: []any{tenant, "%abc%", "%abc%"},
		},
		{
			name:     "in com enum nomeado",
			query:    backend.From("veiculos").In("estado_venda", []any{models.EstadoVendaVendido, models.EstadoVendaReservado}),
			wantSQL:  `SELECT * FROM "public"."veiculos" WHERE "estado_venda" IN ($1, $2)`,
			wantArgs: []any{"vendido", "reservado"},
		},
		{
			name:    "in vazio",
			query:   backend.From("veiculos").In("id", nil),
			wantSQL: `SELECT * FROM "public"."veiculos" WHERE FALSE`,
		},
		{
			name:    "identificador malicioso",
			query:   backend.From(`lojas"; drop table x; --`).Order(`nome"`, false),
			wantSQL: `SELECT * FROM "public"."lojas""; drop table x; --" ORDER BY "nome""" DESC`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			sql, args, err := buildSelect(tt.query)
			c.Assert(err, qt.IsNil)
			c.Assert(sql, qt.Equals, tt.wantSQL)
			c.Assert(args, qt.DeepEquals, tt.wantArgs)
		})
	}
}

func TestBuildUpdateTouchesUpdatedAt(t *testing.T) {
	c := qt.New(t)
	id := uuid.New()
	sql, args, err := buildUpdate(backend.From("lojas").Eq("id", id), backend.Row{"nome": "Centro", "id": id})
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Equals, `UPDATE "public"."lojas" SET "nome" = $1, "updated_at" = now() WHERE "id" = $2 RETURNING *`)
	c.Assert(args, qt.DeepEquals, []any{"Centro", id})
}

func TestBuildInsertAndDelete(t *testing.T) {
	c := qt.New(t)
	sql, args := buildInsert("caracteristicas", backend.Row{"tenant_id": "t1", "nome": "Ar"})
	c.Assert(sql, qt.Equals, `INSERT INTO "public"."caracteristicas" ("nome", "tenant_id") VALUES ($1, $2) RETURNING *`)
	c.Assert(args, qt.DeepEquals, []any{"Ar", "t1"})

	sql, args, err := buildDelete(backend.From("caracteristicas").Eq("id", "x").Eq("tenant_id", "t1"))
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Equals, `DELETE FROM "public"."caracteristicas" WHERE "id" = $1 AND "tenant_id" = $2 RETURNING *`)
	c.Assert(args, qt.DeepEquals, []any{"x", "t1"})
}

func TestNormalize(t *testing.T) {
	c := qt.New(t)
	id := uuid.New()
	c.Assert(normalize([16]byte(id)), qt.Equals, id)
	c.Assert(normalize(int32(7)), qt.Equals, int64(7))
	c.Assert(normalize("x"), qt.Equals, "x")
}
