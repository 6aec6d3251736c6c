package repository

import (
	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/models"
)

var byNome = backend.Order{Column: "nome", Ascending: true}
var recentes = backend.Order{Column: "created_at", Ascending: false}

var (
	TenantsTable         = Table[models.Tenant]{Name: "tenants", Unscoped: true, DefaultSort: byNome}
	TenantMembersTable   = Table[models.TenantMember]{Name: "tenant_members", DefaultSort: recentes}
	TenantInvitesTable   = Table[models.TenantInvite]{Name: "tenant_invites", DefaultSort: recentes}
	LojasTable           = Table[models.Loja]{Name: "lojas", SearchFields: []string{"nome", "endereco"}, DefaultSort: byNome}
	EmpresasTable        = Table[models.Empresa]{Name: "empresas", SearchFields: []string{"razao_social", "nome_fantasia", "cnpj"}, DefaultSort: byNome}
	ModelosTable         = Table[models.Modelo]{Name: "modelos", SearchFields: []string{"marca", "nome", "versao"}, DefaultSort: backend.Order{Column: "marca", Ascending: true}}
	LocaisTable          = Table[models.Local]{Name: "locais", SearchFields: []string{"nome", "endereco"}, DefaultSort: byNome}
	CaracteristicasTable = Table[models.Caracteristica]{Name: "caracteristicas", SearchFields: []string{"nome"}, DefaultSort: byNome}
	PlataformasTable     = Table[models.Plataforma]{Name: "plataformas", SearchFields: []string{"nome"}, DefaultSort: byNome}
	VeiculosTable        = Table[models.Veiculo]{Name: "veiculos", SearchFields: []string{"placa", "cor", "observacao"}, DefaultSort: recentes}
	VeiculosLojaTable    = Table[models.VeiculoLoja]{Name: "veiculos_loja", DefaultSort: recentes}
	RepetidosTable       = Table[models.Repetido]{Name: "repetidos", SearchFields: []string{"cor"}, DefaultSort: recentes}
	AnunciosTable        = Table[models.Anuncio]{Name: "anuncios", SearchFields: []string{"titulo", "descricao"}, DefaultSort: recentes}
)

// Repositórios sem finders específicos
type (
	ModeloRepository         = Repository[models.Modelo, models.CreateModeloRequest, models.UpdateModeloRequest]
	LocalRepository          = Repository[models.Local, models.CreateLocalRequest, models.UpdateLocalRequest]
	CaracteristicaRepository = Repository[models.Caracteristica, models.NomeRequest, models.UpdateNomeRequest]
	PlataformaRepository     = Repository[models.Plataforma, models.CreatePlataformaRequest, models.UpdatePlataformaRequest]
	RepetidoRepository       = Repository[models.Repetido, models.CreateRepetidoRequest, models.UpdateRepetidoRequest]
)

func NewModeloRepository(tables backend.TableStore) *ModeloRepository {
	return New[models.Modelo, models.CreateModeloRequest, models.UpdateModeloRequest](tables, ModelosTable)
}

func NewLocalRepository(tables backend.TableStore) *LocalRepository {
	return New[models.Local, models.CreateLocalRequest, models.UpdateLocalRequest](tables, LocaisTable)
}

func NewCaracteristicaRepository(tables backend.TableStore) *CaracteristicaRepository {
	return New[models.Caracteristica, models.NomeRequest, models.UpdateNomeRequest](tables, CaracteristicasTable)
}

func NewPlataformaRepository(tables backend.TableStore) *PlataformaRepository {
	return New[models.Plataforma, models.CreatePlataformaRequest, models.UpdatePlataformaRequest](tables, PlataformasTable)
}

func NewRepetidoRepository(tables backend.TableStore) *RepetidoRepository {
	return New[models.Repetido, models.CreateRepetidoRequest, models.UpdateRepetidoRequest](tables, RepetidosTable)
}
