package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/result"
)

type VeiculoRepository struct {
	*Repository[models.Veiculo, models.CreateVeiculoRequest, models.UpdateVeiculoRequest]
}

func NewVeiculoRepository(tables backend.TableStore) *VeiculoRepository {
	return &VeiculoRepository{New[models.Veiculo, models.CreateVeiculoRequest, models.UpdateVeiculoRequest](tables, VeiculosTable)}
}

func (r *VeiculoRepository) WithTenant(tenantID uuid.UUID) *VeiculoRepository {
	return &VeiculoRepository{r.Repository.WithTenant(tenantID)}
}

// FindByPlaca busca pela placa normalizada
func (r *VeiculoRepository) FindByPlaca(ctx context.Context, placa string) result.Result[models.Veiculo] {
	return r.FindOne(ctx, backend.Eq("placa", models.NormalizePlaca(placa)))
}

// FindDisponiveis lista os veículos com estado de venda disponível
func (r *VeiculoRepository) FindDisponiveis(ctx context.Context, opts FindOptions) result.Result[result.Page[models.Veiculo]] {
	opts.Where = append(opts.Where, backend.Eq("estado_venda", models.EstadoVendaDisponivel))
	return r.FindAll(ctx, opts)
}

// FindRepetidos agrupa os disponíveis por modelo, cor e ano modelo e devolve
// os grupos com dois ou mais veículos (candidatos a anúncio de repetidos)
func (r *VeiculoRepository) FindRepetidos(ctx context.Context) ([]models.GrupoRepetido, error) {
	veiculos, err := r.FindWhere(ctx, []backend.Order{{Column: "created_at", Ascending: true}},
		backend.Eq("estado_venda", models.EstadoVendaDisponivel))
	if err != nil {
		return nil, err
	}

	type chave struct {
		modelo uuid.UUID
		cor    string
		ano    int
	}
	grupos := map[chave]*models.GrupoRepetido{}
	var ordem []chave
	for _, v := range veiculos {
		k := chave{modelo: v.ModeloID, cor: v.Cor, ano: v.AnoModelo}
		g, ok := grupos[k]
		if !ok {
			g = &models.GrupoRepetido{ModeloID: v.ModeloID, Cor: v.Cor, AnoModelo: v.AnoModelo}
			grupos[k] = g
			ordem = append(ordem, k)
		}
		g.Quantidade++
		g.VeiculoIDs = append(g.VeiculoIDs, v.ID)
	}

	out := make([]models.GrupoRepetido, 0, len(ordem))
	for _, k := range ordem {
		if g := grupos[k]; g.Quantidade >= 2 {
			out = append(out, *g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Quantidade > out[j].Quantidade })
	return out, nil
}

// ContarPorEstado conta os veículos de cada estado de venda
func (r *VeiculoRepository) ContarPorEstado(ctx context.Context) (map[models.EstadoVenda]int, error) {
	out := map[models.EstadoVenda]int{}
	for _, estado := range []models.EstadoVenda{models.EstadoVendaDisponivel, models.EstadoVendaReservado, models.EstadoVendaVendido} {
		res := r.Count(ctx, map[string]any{"estado_venda": estado})
		if !res.Success() {
			return nil, fmt.Errorf("failed to count veiculos %s: %w", estado, res.Err)
		}
		out[estado] = *res.Data
	}
	return out, nil
}

type VeiculoLojaRepository struct {
	*Repository[models.VeiculoLoja, models.CreateVeiculoLojaRequest, models.UpdateVeiculoLojaRequest]
}

func NewVeiculoLojaRepository(tables backend.TableStore) *VeiculoLojaRepository {
	return &VeiculoLojaRepository{New[models.VeiculoLoja, models.CreateVeiculoLojaRequest, models.UpdateVeiculoLojaRequest](tables, VeiculosLojaTable)}
}

func (r *VeiculoLojaRepository) WithTenant(tenantID uuid.UUID) *VeiculoLojaRepository {
	return &VeiculoLojaRepository{r.Repository.WithTenant(tenantID)}
}

// FindByLoja lista a vitrine de uma loja
func (r *VeiculoLojaRepository) FindByLoja(ctx context.Context, lojaID uuid.UUID, opts FindOptions) result.Result[result.Page[models.VeiculoLoja]] {
	opts.Where = append(opts.Where, backend.Eq("loja_id", lojaID))
	return r.FindAll(ctx, opts)
}

// FindByVeiculo lista as lojas onde o veículo está exposto
func (r *VeiculoLojaRepository) FindByVeiculo(ctx context.Context, veiculoID uuid.UUID) ([]models.VeiculoLoja, error) {
	return r.FindWhere(ctx, []backend.Order{{Column: "created_at", Ascending: true}}, backend.Eq("veiculo_id", veiculoID))
}
