// Package querycache é o cache de consultas de cada sessão. Chaves são
// hierárquicas e a invalidação é por prefixo; entradas têm tempo de stale e
// de coleta, buscas concorrentes da mesma chave são unificadas e falhas
// transitórias são repetidas com espera dobrada.
package querycache

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/metrics"
	"github.com/gestao-concessionaria-api/internal/result"
)

const (
	DefaultStaleTime  = 5 * time.Minute
	DefaultGCTime     = 10 * time.Minute
	DefaultRetry      = 3
	DefaultRetryDelay = time.Second
	MaxRetryDelay     = 30 * time.Second
)

type Options struct {
	StaleTime  time.Duration
	GCTime     time.Duration
	Retry      int
	RetryDelay time.Duration
	Clock      clock.Clock
}

type entry struct {
	key       Key
	parts     []string
	data      any
	hasData   bool
	stale     bool
	updatedAt time.Time
	lastUsed  time.Time
	// version muda a cada invalidação; um fetch iniciado antes dela grava o
	// resultado já marcado como stale
	version  int
	fetching int
}

// Client guarda as entradas de uma sessão. Seguro para uso concorrente.
type Client struct {
	opts    Options
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	log     *zap.Logger
}

// New cria o cache aplicando os padrões (stale 5m, gc 10m, 3 retries)
// aos campos zerados. Retry negativo desliga as novas tentativas.
func New(opts Options) *Client {
	if opts.StaleTime == 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.GCTime == 0 {
		opts.GCTime = DefaultGCTime
	}
	if opts.Retry == 0 {
		opts.Retry = DefaultRetry
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	return &Client{
		opts:    opts,
		entries: make(map[string]*entry),
		log:     logger.Named("querycache"),
	}
}

// FetchFunc busca o valor no backend
type FetchFunc func(ctx context.Context) (any, error)

// Fetch devolve o valor em cache se ainda estiver fresco; caso contrário
// chama fn. Chamadas concorrentes para a mesma chave compartilham um único fn.
func (c *Client) Fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	h := key.hash()
	now := c.opts.Clock.Now()

	if data, ok := c.fresh(h, now); ok {
		metrics.QueryCacheLookups.WithLabelValues(key.Entity(), "hit").Inc()
		return data, nil
	}
	metrics.QueryCacheLookups.WithLabelValues(key.Entity(), "miss").Inc()

	v, err, _ := c.group.Do(h, func() (any, error) {
		// outro fetch pode ter terminado entre a checagem e o Do
		if data, ok := c.fresh(h, c.opts.Clock.Now()); ok {
			return data, nil
		}
		e, version := c.begin(h, key)
		data, err := c.call(ctx, key, fn)
		c.finish(h, e, version, data, err)
		return data, err
	})
	if err != nil {
		metrics.QueryFetchErrors.WithLabelValues(key.Entity()).Inc()
		return nil, err
	}
	return v, nil
}

func (c *Client) fresh(h string, now time.Time) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[h]
	if e == nil {
		return nil, false
	}
	e.lastUsed = now
	if e.hasData && !e.stale && now.Sub(e.updatedAt) < c.opts.StaleTime {
		return e.data, true
	}
	return nil, false
}

func (c *Client) begin(h string, key Key) (*entry, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[h]
	if e == nil {
		e = &entry{key: key, parts: key.parts(), lastUsed: c.opts.Clock.Now()}
		c.entries[h] = e
	}
	e.fetching++
	return e, e.version
}

func (c *Client) finish(h string, e *entry, version int, data any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.fetching--
	// removida durante o fetch: o resultado é descartado
	if c.entries[h] != e || err != nil {
		return
	}
	e.data = data
	e.hasData = true
	e.updatedAt = c.opts.Clock.Now()
	e.stale = e.version != version
}

func (c *Client) call(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	var data any
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			var err error
			data, err = fn(ctx)
			return err
		},
		IsFatalError: isFatal,
		NotifyFunc: func(err error, attempt int) {
			c.log.Debug("query fetch failed, retrying",
				zap.String("key", key.String()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		},
		Attempts:    c.opts.Retry + 1,
		Delay:       c.opts.RetryDelay,
		MaxDelay:    MaxRetryDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       c.opts.Clock,
		Stop:        ctx.Done(),
	})
	switch {
	case err == nil:
		return data, nil
	case retry.IsAttemptsExceeded(err):
		return nil, retry.LastError(err)
	case retry.IsRetryStopped(err):
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, retry.LastError(err)
	}
	return nil, err
}

// isFatal: ausência, validação, conflito e autorização não melhoram com nova tentativa
func isFatal(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, errors.Unauthorized), errors.Is(err, errors.Forbidden):
		return true
	}
	return result.Classify(err) != result.TransportError
}

// GetQueryData devolve o valor guardado, fresco ou não
func (c *Client) GetQueryData(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key.hash()]
	if e == nil || !e.hasData {
		return nil, false
	}
	e.lastUsed = c.opts.Clock.Now()
	return e.data, true
}

// SetQueryData grava um valor fresco para a chave
func (c *Client) SetQueryData(key Key, data any) {
	h := key.hash()
	now := c.opts.Clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[h]
	if e == nil {
		e = &entry{key: key, parts: key.parts()}
		c.entries[h] = e
	}
	e.data = data
	e.hasData = true
	e.stale = false
	e.updatedAt = now
	e.lastUsed = now
}

// IsStale indica se a próxima leitura da chave vai ao backend
func (c *Client) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key.hash()]
	if e == nil || !e.hasData {
		return true
	}
	return e.stale || c.opts.Clock.Now().Sub(e.updatedAt) >= c.opts.StaleTime
}

// InvalidateQueries marca como stale toda chave com o prefixo e devolve
// quantas foram afetadas
func (c *Client) InvalidateQueries(prefix Key) int {
	p := prefix.parts()
	c.mu.Lock()
	n := 0
	for _, e := range c.entries {
		if hasPrefix(e.parts, p) {
			e.stale = true
			e.version++
			n++
		}
	}
	c.mu.Unlock()
	metrics.QueryCacheInvalidations.WithLabelValues(prefix.Entity()).Inc()
	if n > 0 {
		c.log.Debug("queries invalidated", zap.String("prefix", prefix.String()), zap.Int("count", n))
	}
	return n
}

// RemoveQueries apaga as entradas com o prefixo
func (c *Client) RemoveQueries(prefix Key) int {
	p := prefix.parts()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for h, e := range c.entries {
		if hasPrefix(e.parts, p) {
			delete(c.entries, h)
			n++
		}
	}
	return n
}

// Clear esvazia o cache
func (c *Client) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// GC remove entradas sem uso há mais de GCTime
func (c *Client) GC() int {
	now := c.opts.Clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for h, e := range c.entries {
		if e.fetching == 0 && now.Sub(e.lastUsed) >= c.opts.GCTime {
			delete(c.entries, h)
			n++
		}
	}
	return n
}

// Len é o número de entradas
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys lista as chaves guardadas, ordem indefinida
func (c *Client) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.key.String())
	}
	return out
}

// Query é a versão tipada de Fetch
func Query[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (*T, error)) (*T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return nil, err
	}
	return typed[T](v, key)
}

// Get é a versão tipada de GetQueryData
func Get[T any](c *Client, key Key) (*T, bool) {
	v, ok := c.GetQueryData(key)
	if !ok {
		return nil, false
	}
	out, err := typed[T](v, key)
	if err != nil {
		return nil, false
	}
	return out, true
}

func typed[T any](v any, key Key) (*T, error) {
	switch out := v.(type) {
	case nil:
		return nil, nil
	case *T:
		return out, nil
	}
	return nil, errors.Errorf("query %s guarda %T", key, v)
}
