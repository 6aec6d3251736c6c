package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gestao-concessionaria-api/internal/hooks"
	"github.com/gestao-concessionaria-api/internal/models"
)

// Resumo é o painel inicial do dashboard
type Resumo struct {
	Estoque        map[models.EstadoVenda]int `json:"estoque"`
	TotalVeiculos  int                        `json:"total_veiculos"`
	Lojas          int                        `json:"lojas"`
	Engajamento    hooks.Engajamento          `json:"engajamento"`
	GruposRepetido int                        `json:"grupos_repetidos"`
	LojaID         *uuid.UUID                 `json:"loja_id,omitempty"`
	NaVitrine      *int                       `json:"na_vitrine,omitempty"`
}

// LojaSelecionada é o pedaço do estado de tenant que o dashboard usa
type LojaSelecionada interface {
	SelectedLojaID() (uuid.UUID, bool)
}

type DashboardService struct {
	hooks *hooks.Set
	lojas LojaSelecionada
}

func NewDashboardService(h *hooks.Set, lojas LojaSelecionada) *DashboardService {
	return &DashboardService{hooks: h, lojas: lojas}
}

// Resumo busca os números do painel em paralelo; cada parte passa pelo
// cache da sessão e é invalidada pelas mesmas notificações das listas.
func (s *DashboardService) Resumo(ctx context.Context) (*Resumo, error) {
	var r Resumo
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		estoque, err := s.hooks.EstoquePorEstado(ctx)
		if err != nil {
			return err
		}
		r.Estoque = estoque
		for _, n := range estoque {
			r.TotalVeiculos += n
		}
		return nil
	})
	g.Go(func() error {
		n, err := s.hooks.Lojas.Count(ctx, nil)
		r.Lojas = n
		return err
	})
	g.Go(func() error {
		e, err := s.hooks.Engajamento(ctx)
		if err == nil && e != nil {
			r.Engajamento = *e
		}
		return err
	})
	g.Go(func() error {
		grupos, err := s.hooks.GruposRepetidos(ctx)
		r.GruposRepetido = len(grupos)
		return err
	})
	if lojaID, ok := s.lojas.SelectedLojaID(); ok {
		r.LojaID = &lojaID
		g.Go(func() error {
			n, err := s.hooks.Vitrine.Count(ctx, map[string]any{"loja_id": lojaID})
			r.NaVitrine = &n
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &r, nil
}
