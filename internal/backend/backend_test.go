package backend_test

import (
	"context"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/backend/memory"
	"github.com/gestao-concessionaria-api/internal/models"
)

type recorder struct {
	mu      sync.Mutex
	changes []backend.RowChange
}

func (r *recorder) Publish(_ context.Context, ch backend.RowChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, ch)
}

func (r *recorder) Subscribe(backend.Filter, func(backend.RowChange)) func() { return func() {} }

func TestClientPublishesMutations(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rec := &recorder{}
	client := backend.NewClient(memory.New(), rec)
	tenant := uuid.New()

	row, err := client.Tables.Insert(ctx, "lojas", backend.Row{"tenant_id": tenant, "nome": "Centro"})
	c.Assert(err, qt.IsNil)
	_, err = client.Tables.Update(ctx, backend.From("lojas").Eq("id", row["id"]), backend.Row{"nome": "Centro 2"})
	c.Assert(err, qt.IsNil)
	_, err = client.Tables.Delete(ctx, backend.From("lojas").Eq("id", row["id"]))
	c.Assert(err, qt.IsNil)
	// sem linhas afetadas não há evento
	_, err = client.Tables.Delete(ctx, backend.From("lojas").Eq("id", uuid.New()))
	c.Assert(err, qt.IsNil)

	c.Assert(rec.changes, qt.HasLen, 3)
	c.Assert(rec.changes[0].Event, qt.Equals, backend.EventInsert)
	c.Assert(rec.changes[1].Event, qt.Equals, backend.EventUpdate)
	c.Assert(rec.changes[2].Event, qt.Equals, backend.EventDelete)
	for _, ch := range rec.changes {
		c.Assert(ch.Schema, qt.Equals, backend.Schema)
		c.Assert(ch.Table, qt.Equals, "lojas")
		c.Assert(ch.TenantID(), qt.Equals, tenant.String())
	}
	c.Assert(rec.changes[2].Old["nome"], qt.Equals, "Centro 2")
}

func TestFilterMatches(t *testing.T) {
	ch := backend.RowChange{Schema: "public", Table: "veiculos", Event: backend.EventUpdate}
	tests := []struct {
		name   string
		filter backend.Filter
		want   bool
	}{
		{"todos", backend.Filter{}, true},
		{"curinga", backend.Filter{Schema: "public", Table: "veiculos", Event: backend.EventAll}, true},
		{"evento exato", backend.Filter{Table: "veiculos", Event: backend.EventUpdate}, true},
		{"outro evento", backend.Filter{Table: "veiculos", Event: backend.EventInsert}, false},
		{"outra tabela", backend.Filter{Table: "lojas"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt.New(t).Assert(tt.filter.Matches(ch), qt.Equals, tt.want)
		})
	}
}

func TestToRowSkipsNilPointers(t *testing.T) {
	c := qt.New(t)
	preco := 42000.0
	estado := models.EstadoVendaReservado
	row, err := backend.ToRow(models.UpdateVeiculoRequest{PrecoVenda: &preco, EstadoVenda: &estado})
	c.Assert(err, qt.IsNil)
	c.Assert(row, qt.DeepEquals, backend.Row{"preco_venda": 42000.0, "estado_venda": "reservado"})
}

func TestDecodeRow(t *testing.T) {
	c := qt.New(t)
	id := uuid.New()
	local := uuid.New()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	row := backend.Row{
		"id":             id.String(),
		"tenant_id":      uuid.New(),
		"placa":          "ABC1D23",
		"cor":            "Prata",
		"modelo_id":      uuid.New(),
		"ano_fabricacao": int64(2020),
		"ano_modelo":     float64(2021),
		"estado_venda":   "disponivel",
		"estado_veiculo": "usado",
		"preco_venda":    55000.5,
		"hodometro":      int32(30000),
		"local_id":       local.String(),
		"observacao":     nil,
		"created_at":     now,
		"updated_at":     now.Format(time.RFC3339Nano),
	}

	var v models.Veiculo
	c.Assert(backend.Decode(row, &v), qt.IsNil)
	c.Assert(v.ID, qt.Equals, id)
	c.Assert(v.AnoModelo, qt.Equals, 2021)
	c.Assert(v.EstadoVenda, qt.Equals, models.EstadoVendaDisponivel)
	c.Assert(*v.PrecoVenda, qt.Equals, 55000.5)
	c.Assert(v.Hodometro, qt.Equals, 30000)
	c.Assert(*v.LocalID, qt.Equals, local)
	c.Assert(v.Observacao, qt.IsNil)
	c.Assert(v.UpdatedAt.Equal(now), qt.IsTrue)
}

func TestMatchILike(t *testing.T) {
	tests := []struct {
		value, pattern string
		want           bool
	}{
		{"Chevrolet Onix", "%onix%", true},
		{"Chevrolet Onix", "chev%", true},
		{"Chevrolet Onix", "%onyx%", false},
		{"ABC1D23", "abc1_23", true},
		{"100%", `100\%`, true},
		{"1000", `100\%`, false},
	}
	for _, tt := range tests {
		t.Run(tt.value+"~"+tt.pattern, func(t *testing.T) {
			qt.New(t).Assert(backend.MatchILike(tt.value, tt.pattern), qt.Equals, tt.want)
		})
	}
}
