package hooks

import (
	"context"

	"github.com/google/uuid"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/querycache"
	"github.com/gestao-concessionaria-api/internal/repository"
)

// Nomes das entidades, primeira parte de toda chave
const (
	Veiculos        = "veiculos"
	Vitrine         = "vitrine"
	Lojas           = "lojas"
	Anuncios        = "anuncios"
	Empresa         = "empresa"
	Modelos         = "modelos"
	Locais          = "locais"
	Caracteristicas = "caracteristicas"
	Plataformas     = "plataformas"
	Repetidos       = "repetidos"
)

type (
	VeiculoHooks        = Entity[models.Veiculo, models.CreateVeiculoRequest, models.UpdateVeiculoRequest]
	VitrineHooks        = Entity[models.VeiculoLoja, models.CreateVeiculoLojaRequest, models.UpdateVeiculoLojaRequest]
	LojaHooks           = Entity[models.Loja, models.CreateLojaRequest, models.UpdateLojaRequest]
	AnuncioHooks        = Entity[models.Anuncio, models.CreateAnuncioRequest, models.UpdateAnuncioRequest]
	EmpresaHooks        = Entity[models.Empresa, models.CreateEmpresaRequest, models.UpdateEmpresaRequest]
	ModeloHooks         = Entity[models.Modelo, models.CreateModeloRequest, models.UpdateModeloRequest]
	LocalHooks          = Entity[models.Local, models.CreateLocalRequest, models.UpdateLocalRequest]
	CaracteristicaHooks = Entity[models.Caracteristica, models.NomeRequest, models.UpdateNomeRequest]
	PlataformaHooks     = Entity[models.Plataforma, models.CreatePlataformaRequest, models.UpdatePlataformaRequest]
	RepetidoHooks       = Entity[models.Repetido, models.CreateRepetidoRequest, models.UpdateRepetidoRequest]
)

// Set reúne os hooks de todas as entidades de uma sessão
type Set struct {
	cache *querycache.Client

	Veiculos        *VeiculoHooks
	Vitrine         *VitrineHooks
	Lojas           *LojaHooks
	Anuncios        *AnuncioHooks
	Empresa         *EmpresaHooks
	Modelos         *ModeloHooks
	Locais          *LocalHooks
	Caracteristicas *CaracteristicaHooks
	Plataformas     *PlataformaHooks
	Repetidos       *RepetidoHooks

	byTable map[string][]invalidator
}

type invalidator interface {
	InvalidateLists() int
}

func NewSet(tables backend.TableStore, cache *querycache.Client, scope Scope) *Set {
	s := &Set{
		cache: cache,
		Veiculos: NewEntity(Veiculos, cache, repository.NewVeiculoRepository(tables).Repository, scope,
			func(v *models.Veiculo) uuid.UUID { return v.ID }),
		Vitrine: NewEntity(Vitrine, cache, repository.NewVeiculoLojaRepository(tables).Repository, scope,
			func(v *models.VeiculoLoja) uuid.UUID { return v.ID }).PerLoja("loja_id"),
		Lojas: NewEntity(Lojas, cache, repository.NewLojaRepository(tables).Repository, scope,
			func(l *models.Loja) uuid.UUID { return l.ID }),
		Anuncios: NewEntity(Anuncios, cache, repository.NewAnuncioRepository(tables).Repository, scope,
			func(a *models.Anuncio) uuid.UUID { return a.ID }),
		Empresa: NewEntity(Empresa, cache, repository.NewEmpresaRepository(tables).Repository, scope,
			func(e *models.Empresa) uuid.UUID { return e.ID }),
		Modelos: NewEntity(Modelos, cache, repository.NewModeloRepository(tables), scope,
			func(m *models.Modelo) uuid.UUID { return m.ID }),
		Locais: NewEntity(Locais, cache, repository.NewLocalRepository(tables), scope,
			func(l *models.Local) uuid.UUID { return l.ID }),
		Caracteristicas: NewEntity(Caracteristicas, cache, repository.NewCaracteristicaRepository(tables), scope,
			func(c *models.Caracteristica) uuid.UUID { return c.ID }),
		Plataformas: NewEntity(Plataformas, cache, repository.NewPlataformaRepository(tables), scope,
			func(p *models.Plataforma) uuid.UUID { return p.ID }),
		Repetidos: NewEntity(Repetidos, cache, repository.NewRepetidoRepository(tables), scope,
			func(r *models.Repetido) uuid.UUID { return r.ID }),
	}
	s.byTable = map[string][]invalidator{
		// a vitrine exibe dados do veículo
		repository.VeiculosTable.Name:        {s.Veiculos, s.Vitrine},
		repository.VeiculosLojaTable.Name:    {s.Vitrine},
		repository.LojasTable.Name:           {s.Lojas},
		repository.AnunciosTable.Name:        {s.Anuncios},
		repository.EmpresasTable.Name:        {s.Empresa},
		repository.ModelosTable.Name:         {s.Modelos},
		repository.LocaisTable.Name:          {s.Locais},
		repository.CaracteristicasTable.Name: {s.Caracteristicas},
		repository.PlataformasTable.Name:     {s.Plataformas},
		repository.RepetidosTable.Name:       {s.Repetidos},
	}
	return s
}

// InvalidateTable invalida as listas das entidades lidas da tabela.
// Devolve false para tabelas sem hooks.
func (s *Set) InvalidateTable(table string) bool {
	inv, ok := s.byTable[table]
	for _, i := range inv {
		i.InvalidateLists()
	}
	return ok
}

// Tables lista as tabelas observadas pelos hooks
func (s *Set) Tables() []string {
	out := make([]string, 0, len(s.byTable))
	for t := range s.byTable {
		out = append(out, t)
	}
	return out
}

// GruposRepetidos agrupa os veículos disponíveis candidatos a anúncio de repetidos
func (s *Set) GruposRepetidos(ctx context.Context) ([]models.GrupoRepetido, error) {
	repo, err := s.Veiculos.Repo()
	if err != nil {
		return nil, err
	}
	tenantID, _ := repo.TenantID()
	key := querycache.Key{Veiculos, "list", tenantID, "repetidos"}
	grupos, err := querycache.Query(ctx, s.cache, key, func(ctx context.Context) (*[]models.GrupoRepetido, error) {
		g, err := (&repository.VeiculoRepository{Repository: repo}).FindRepetidos(ctx)
		return &g, err
	})
	if err != nil || grupos == nil {
		return nil, err
	}
	return *grupos, nil
}

// EstoquePorEstado conta os veículos por estado de venda
func (s *Set) EstoquePorEstado(ctx context.Context) (map[models.EstadoVenda]int, error) {
	repo, err := s.Veiculos.Repo()
	if err != nil {
		return nil, err
	}
	tenantID, _ := repo.TenantID()
	key := querycache.Key{Veiculos, "list", tenantID, "por-estado"}
	contagem, err := querycache.Query(ctx, s.cache, key, func(ctx context.Context) (*map[models.EstadoVenda]int, error) {
		m, err := (&repository.VeiculoRepository{Repository: repo}).ContarPorEstado(ctx)
		return &m, err
	})
	if err != nil || contagem == nil {
		return nil, err
	}
	return *contagem, nil
}

// Engajamento soma os contadores dos anúncios ativos
type Engajamento struct {
	models.EngajamentoRequest
	AnunciosAtivos int `json:"anuncios_ativos"`
}

func (s *Set) Engajamento(ctx context.Context) (*Engajamento, error) {
	repo, err := s.Anuncios.Repo()
	if err != nil {
		return nil, err
	}
	tenantID, _ := repo.TenantID()
	key := querycache.Key{Anuncios, "list", tenantID, "engajamento"}
	return querycache.Query(ctx, s.cache, key, func(ctx context.Context) (*Engajamento, error) {
		total, ativos, err := (&repository.AnuncioRepository{Repository: repo}).SomarEngajamento(ctx)
		if err != nil {
			return nil, err
		}
		return &Engajamento{EngajamentoRequest: total, AnunciosAtivos: ativos}, nil
	})
}

// RegistrarEngajamento soma contadores em um anúncio e atualiza o cache como um Update
func (s *Set) RegistrarEngajamento(ctx context.Context, id uuid.UUID, req models.EngajamentoRequest) (*models.Anuncio, error) {
	tenantID, repo, err := s.Anuncios.scoped()
	if err != nil {
		return nil, err
	}
	res := (&repository.AnuncioRepository{Repository: repo}).RegistrarEngajamento(ctx, id, req)
	return s.Anuncios.afterUpdate(s.Anuncios.DetailKey(tenantID, id), res)
}
