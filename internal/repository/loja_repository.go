package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/result"
)

type LojaRepository struct {
	*Repository[models.Loja, models.CreateLojaRequest, models.UpdateLojaRequest]
}

func NewLojaRepository(tables backend.TableStore) *LojaRepository {
	return &LojaRepository{New[models.Loja, models.CreateLojaRequest, models.UpdateLojaRequest](tables, LojasTable)}
}

func (r *LojaRepository) WithTenant(tenantID uuid.UUID) *LojaRepository {
	return &LojaRepository{r.Repository.WithTenant(tenantID)}
}

// FindOrdered lista todas as lojas do tenant por nome crescente
func (r *LojaRepository) FindOrdered(ctx context.Context) ([]models.Loja, error) {
	return r.FindWhere(ctx, []backend.Order{byNome})
}

type EmpresaRepository struct {
	*Repository[models.Empresa, models.CreateEmpresaRequest, models.UpdateEmpresaRequest]
}

func NewEmpresaRepository(tables backend.TableStore) *EmpresaRepository {
	return &EmpresaRepository{New[models.Empresa, models.CreateEmpresaRequest, models.UpdateEmpresaRequest](tables, EmpresasTable)}
}

func (r *EmpresaRepository) WithTenant(tenantID uuid.UUID) *EmpresaRepository {
	return &EmpresaRepository{r.Repository.WithTenant(tenantID)}
}

// FindAtual devolve a empresa do tenant (há no máximo uma)
func (r *EmpresaRepository) FindAtual(ctx context.Context) result.Result[models.Empresa] {
	return r.FindOne(ctx)
}

// FindByCNPJ busca pelo CNPJ, aceitando com ou sem pontuação
func (r *EmpresaRepository) FindByCNPJ(ctx context.Context, cnpj string) result.Result[models.Empresa] {
	return r.FindOne(ctx, backend.Eq("cnpj", models.NormalizeCNPJ(cnpj)))
}
