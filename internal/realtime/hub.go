// Package realtime distribui alterações de linhas (postgres_changes) para
// as sessões interessadas, opcionalmente entre instâncias via Redis.
package realtime

import (
	"context"
	"sync"

	"github.com/gestao-concessionaria-api/internal/backend"
)

type subscription struct {
	filter backend.Filter
	fn     func(backend.RowChange)
}

// Hub faz o fan-out síncrono dos eventos para os assinantes locais
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]subscription
	next    uint64
	forward func(context.Context, backend.RowChange)
}

func NewHub() *Hub {
	return &Hub{subs: map[uint64]subscription{}}
}

// Publish entrega o evento localmente e o repassa às outras instâncias
func (h *Hub) Publish(ctx context.Context, change backend.RowChange) {
	h.dispatch(change)

	h.mu.RLock()
	forward := h.forward
	h.mu.RUnlock()
	if forward != nil {
		forward(ctx, change)
	}
}

func (h *Hub) Subscribe(filter backend.Filter, fn func(backend.RowChange)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.subs[id] = subscription{filter: filter, fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Len devolve o número de assinaturas ativas
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// dispatch chama os assinantes fora do lock, para que possam
// cancelar a assinatura dentro do callback
func (h *Hub) dispatch(change backend.RowChange) {
	h.mu.RLock()
	targets := make([]func(backend.RowChange), 0, len(h.subs))
	for _, s := range h.subs {
		if s.filter.Matches(change) {
			targets = append(targets, s.fn)
		}
	}
	h.mu.RUnlock()

	for _, fn := range targets {
		fn(change)
	}
}

func (h *Hub) setForward(fn func(context.Context, backend.RowChange)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forward = fn
}
