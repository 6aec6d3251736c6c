package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	qt "github.com/frankban/quicktest"
	"github.com/redis/go-redis/v9"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/cache"
	"github.com/gestao-concessionaria-api/internal/realtime"
)

func TestHubFiltersAndUnsubscribe(t *testing.T) {
	c := qt.New(t)
	hub := realtime.NewHub()

	var veiculos, inserts, all int
	unsub := hub.Subscribe(backend.Filter{Schema: "public", Table: "veiculos", Event: backend.EventAll}, func(backend.RowChange) { veiculos++ })
	hub.Subscribe(backend.Filter{Event: backend.EventInsert}, func(backend.RowChange) { inserts++ })
	hub.Subscribe(backend.Filter{}, func(backend.RowChange) { all++ })

	ctx := context.Background()
	hub.Publish(ctx, backend.RowChange{Schema: "public", Table: "veiculos", Event: backend.EventInsert})
	hub.Publish(ctx, backend.RowChange{Schema: "public", Table: "veiculos", Event: backend.EventUpdate})
	hub.Publish(ctx, backend.RowChange{Schema: "public", Table: "lojas", Event: backend.EventInsert})

	c.Assert(veiculos, qt.Equals, 2)
	c.Assert(inserts, qt.Equals, 2)
	c.Assert(all, qt.Equals, 3)

	unsub()
	unsub()
	c.Assert(hub.Len(), qt.Equals, 2)
	hub.Publish(ctx, backend.RowChange{Schema: "public", Table: "veiculos", Event: backend.EventDelete})
	c.Assert(veiculos, qt.Equals, 2)
}

func TestHubUnsubscribeInsideCallback(t *testing.T) {
	c := qt.New(t)
	hub := realtime.NewHub()
	calls := 0
	var unsub func()
	unsub = hub.Subscribe(backend.Filter{}, func(backend.RowChange) {
		calls++
		unsub()
	})
	hub.Publish(context.Background(), backend.RowChange{Table: "lojas"})
	hub.Publish(context.Background(), backend.RowChange{Table: "lojas"})
	c.Assert(calls, qt.Equals, 1)
}

func TestRedisBridgeBetweenInstances(t *testing.T) {
	c := qt.New(t)
	mr := miniredis.RunT(t)
	newClient := func() *cache.Client {
		cl := cache.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		c.Cleanup(func() { cl.Close() })
		return cl
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubA, hubB := realtime.NewHub(), realtime.NewHub()
	bridgeA := realtime.NewRedisBridge(hubA, newClient(), "realtime:test")
	bridgeB := realtime.NewRedisBridge(hubB, newClient(), "realtime:test")
	go bridgeA.Run(ctx)
	go bridgeB.Run(ctx)

	gotA := make(chan backend.RowChange, 4)
	gotB := make(chan backend.RowChange, 4)
	hubA.Subscribe(backend.Filter{}, func(ch backend.RowChange) { gotA <- ch })
	hubB.Subscribe(backend.Filter{}, func(ch backend.RowChange) { gotB <- ch })

	// espera as duas assinaturas Redis ficarem ativas
	for deadline := time.Now().Add(2 * time.Second); mr.PubSubNumSub("realtime:test")["realtime:test"] < 2; {
		if time.Now().After(deadline) {
			c.Fatal("bridges não assinaram o canal")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hubA.Publish(ctx, backend.RowChange{
		Schema: "public", Table: "veiculos", Event: backend.EventUpdate,
		New: backend.Row{"tenant_id": "t1"},
	})

	select {
	case ch := <-gotB:
		c.Assert(ch.Table, qt.Equals, "veiculos")
		c.Assert(ch.TenantID(), qt.Equals, "t1")
	case <-time.After(2 * time.Second):
		c.Fatal("evento não chegou na outra instância")
	}

	// a instância de origem recebe só a entrega local
	local := <-gotA
	c.Assert(local.Table, qt.Equals, "veiculos")
	select {
	case <-gotA:
		c.Fatal("evento ecoado para a origem")
	case <-time.After(100 * time.Millisecond):
	}
}
