package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/hooks"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/session"
)

// lojas também alimentam o contexto de tenant (chave ["lojas", tenant])
var lojasCRUD = &crud[models.Loja, models.CreateLojaRequest, models.UpdateLojaRequest]{
	name:       "loja",
	entity:     func(s *session.Session) *hooks.LojaHooks { return s.Hooks.Lojas },
	sortable:   []string{"nome", "created_at"},
	afterWrite: func(s *session.Session) { s.Cache.InvalidateQueries(s.Hooks.Lojas.AllKey()) },
}

var veiculosCRUD = &crud[models.Veiculo, models.CreateVeiculoRequest, models.UpdateVeiculoRequest]{
	name:   "veículo",
	entity: func(s *session.Session) *hooks.VeiculoHooks { return s.Hooks.Veiculos },
	filters: map[string]filter{
		"estado_venda":   textFilter("estado_venda"),
		"estado_veiculo": textFilter("estado_veiculo"),
		"modelo_id":      idFilter("modelo_id"),
		"local_id":       idFilter("local_id"),
		"cor":            textFilter("cor"),
		"ano_modelo":     intFilter("ano_modelo"),
	},
	sortable: []string{"created_at", "placa", "preco_venda", "ano_modelo", "hodometro"},
}

var vitrineCRUD = &crud[models.VeiculoLoja, models.CreateVeiculoLojaRequest, models.UpdateVeiculoLojaRequest]{
	name:     "veículo na loja",
	entity:   func(s *session.Session) *hooks.VitrineHooks { return s.Hooks.Vitrine },
	filters:  map[string]filter{"veiculo_id": idFilter("veiculo_id")},
	sortable: []string{"created_at", "preco"},
}

var anunciosCRUD = &crud[models.Anuncio, models.CreateAnuncioRequest, models.UpdateAnuncioRequest]{
	name:   "anúncio",
	entity: func(s *session.Session) *hooks.AnuncioHooks { return s.Hooks.Anuncios },
	filters: map[string]filter{
		"status":          textFilter("status"),
		"plataforma_id":   idFilter("plataforma_id"),
		"veiculo_loja_id": idFilter("veiculo_loja_id"),
		"repetido_id":     idFilter("repetido_id"),
	},
	sortable:     []string{"created_at", "titulo", "publicado_em", "visualizacoes"},
	beforeCreate: anuncioRefs,
}

func anuncioRefs(ctx context.Context, s *session.Session, in *models.CreateAnuncioRequest) error {
	if err := ofTenant(ctx, s.Hooks.Plataformas, in.PlataformaID, "plataforma"); err != nil {
		return err
	}
	if in.VeiculoLojaID != nil {
		if err := ofTenant(ctx, s.Hooks.Vitrine, *in.VeiculoLojaID, "veículo na loja"); err != nil {
			return err
		}
	}
	if in.RepetidoID != nil {
		return ofTenant(ctx, s.Hooks.Repetidos, *in.RepetidoID, "grupo de repetidos")
	}
	return nil
}

// ofTenant responde NotFound para ids de outro tenant, como um GET faria
func ofTenant[R, I, U any](ctx context.Context, e *hooks.Entity[R, I, U], id uuid.UUID, name string) error {
	if id == uuid.Nil {
		return errors.NotFoundf("%s %s", name, id)
	}
	row, err := e.Get(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return errors.NotFoundf("%s %s", name, id)
	}
	return nil
}

var empresaCRUD = &crud[models.Empresa, models.CreateEmpresaRequest, models.UpdateEmpresaRequest]{
	name:   "empresa",
	entity: func(s *session.Session) *hooks.EmpresaHooks { return s.Hooks.Empresa },
}

var modelosCRUD = &crud[models.Modelo, models.CreateModeloRequest, models.UpdateModeloRequest]{
	name:     "modelo",
	entity:   func(s *session.Session) *hooks.ModeloHooks { return s.Hooks.Modelos },
	filters:  map[string]filter{"marca": textFilter("marca")},
	sortable: []string{"marca", "nome", "ano_modelo"},
}

var locaisCRUD = &crud[models.Local, models.CreateLocalRequest, models.UpdateLocalRequest]{
	name:     "local",
	entity:   func(s *session.Session) *hooks.LocalHooks { return s.Hooks.Locais },
	sortable: []string{"nome"},
}

var caracteristicasCRUD = &crud[models.Caracteristica, models.NomeRequest, models.UpdateNomeRequest]{
	name:     "característica",
	entity:   func(s *session.Session) *hooks.CaracteristicaHooks { return s.Hooks.Caracteristicas },
	sortable: []string{"nome"},
}

var plataformasCRUD = &crud[models.Plataforma, models.CreatePlataformaRequest, models.UpdatePlataformaRequest]{
	name:     "plataforma",
	entity:   func(s *session.Session) *hooks.PlataformaHooks { return s.Hooks.Plataformas },
	sortable: []string{"nome"},
}

var repetidosCRUD = &crud[models.Repetido, models.CreateRepetidoRequest, models.UpdateRepetidoRequest]{
	name:   "grupo de repetidos",
	entity: func(s *session.Session) *hooks.RepetidoHooks { return s.Hooks.Repetidos },
	filters: map[string]filter{
		"modelo_id":  idFilter("modelo_id"),
		"cor":        textFilter("cor"),
		"ano_modelo": intFilter("ano_modelo"),
	},
	sortable: []string{"created_at", "quantidade"},
}
