package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Persister é o armazenamento persistente do cliente (equivalente ao
// localStorage do navegador): sobrevive a recargas da sessão.
type Persister interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// RedisPersister grava as chaves com prefixo e TTL no Redis
type RedisPersister struct {
	client *Client
	prefix string
	ttl    time.Duration
}

func NewRedisPersister(client *Client, prefix string, ttl time.Duration) *RedisPersister {
	return &RedisPersister{client: client, prefix: prefix, ttl: ttl}
}

func (p *RedisPersister) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := p.client.Get(ctx, p.prefix+key)
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (p *RedisPersister) Set(ctx context.Context, key, value string) error {
	return p.client.Set(ctx, p.prefix+key, value, p.ttl)
}

func (p *RedisPersister) Delete(ctx context.Context, key string) error {
	return p.client.Delete(ctx, p.prefix+key)
}

// MemoryPersister guarda tudo em memória; usado em testes e sem Redis
type MemoryPersister struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{values: map[string]string{}}
}

func (p *MemoryPersister) Get(_ context.Context, key string) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	return v, ok, nil
}

func (p *MemoryPersister) Set(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	return nil
}

func (p *MemoryPersister) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
	return nil
}
