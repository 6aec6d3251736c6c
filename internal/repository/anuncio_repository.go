package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/result"
)

// tentativas de RegistrarEngajamento quando outra sessão altera o anúncio
const engajamentoTentativas = 3

type AnuncioRepository struct {
	*Repository[models.Anuncio, models.CreateAnuncioRequest, models.UpdateAnuncioRequest]
}

func NewAnuncioRepository(tables backend.TableStore) *AnuncioRepository {
	return &AnuncioRepository{New[models.Anuncio, models.CreateAnuncioRequest, models.UpdateAnuncioRequest](tables, AnunciosTable)}
}

func (r *AnuncioRepository) WithTenant(tenantID uuid.UUID) *AnuncioRepository {
	return &AnuncioRepository{r.Repository.WithTenant(tenantID)}
}

func (r *AnuncioRepository) FindByVeiculoLoja(ctx context.Context, veiculoLojaID uuid.UUID) ([]models.Anuncio, error) {
	return r.FindWhere(ctx, []backend.Order{recentes}, backend.Eq("veiculo_loja_id", veiculoLojaID))
}

func (r *AnuncioRepository) FindByPlataforma(ctx context.Context, plataformaID uuid.UUID, opts FindOptions) result.Result[result.Page[models.Anuncio]] {
	opts.Where = append(opts.Where, backend.Eq("plataforma_id", plataformaID))
	return r.FindAll(ctx, opts)
}

// RegistrarEngajamento soma os contadores. A escrita é condicionada ao
// updated_at lido, e é refeita se outra sessão alterou o anúncio no meio.
func (r *AnuncioRepository) RegistrarEngajamento(ctx context.Context, id uuid.UUID, req models.EngajamentoRequest) result.Result[models.Anuncio] {
	if err := req.Validate(); err != nil {
		return result.Fail[models.Anuncio](err)
	}

	for i := 0; i < engajamentoTentativas; i++ {
		atual := r.FindByID(ctx, id)
		if !atual.Found() {
			if atual.Kind == result.NotFound {
				return result.Fail[models.Anuncio](errors.NotFoundf("anuncios %s", id))
			}
			return atual
		}
		a := atual.Data
		values := backend.Row{
			"visualizacoes": int64(a.Visualizacoes + req.Visualizacoes),
			"favoritos":     int64(a.Favoritos + req.Favoritos),
			"mensagens":     int64(a.Mensagens + req.Mensagens),
		}
		rows, err := r.tables.Update(ctx, r.query().Eq("id", id).Eq("updated_at", a.UpdatedAt), values)
		if err != nil {
			return result.Fail[models.Anuncio](fmt.Errorf("failed to update anuncios: %w", err))
		}
		if len(rows) > 0 {
			return decodeOne[models.Anuncio](rows[0])
		}
	}
	return result.Fail[models.Anuncio](fmt.Errorf("%w: engajamento do anúncio %s", result.ErrConflict, id))
}

// SomarEngajamento totaliza os contadores dos anúncios ativos do tenant
func (r *AnuncioRepository) SomarEngajamento(ctx context.Context) (models.EngajamentoRequest, int, error) {
	ativos, err := r.FindWhere(ctx, nil, backend.Eq("status", models.StatusAnuncioAtivo))
	if err != nil {
		return models.EngajamentoRequest{}, 0, err
	}
	var total models.EngajamentoRequest
	for _, a := range ativos {
		total.Visualizacoes += a.Visualizacoes
		total.Favoritos += a.Favoritos
		total.Mensagens += a.Mensagens
	}
	return total, len(ativos), nil
}
