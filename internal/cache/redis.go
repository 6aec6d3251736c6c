package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gestao-concessionaria-api/internal/config"
)

type Client struct {
	Client *redis.Client // exposto para pub/sub e filas
}

// NewClient conecta ao Redis e testa a conexão
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{Client: client}, nil
}

// Wrap usa um *redis.Client já criado
func Wrap(client *redis.Client) *Client {
	return &Client{Client: client}
}

// Get devolve redis.Nil quando a chave não existe
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.Client.Set(ctx, key, value, expiration).Err()
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.Client.Exists(ctx, key).Result()
	return count > 0, err
}

// Publish publica uma mensagem em um canal
func (c *Client) Publish(ctx context.Context, channel string, message interface{}) error {
	return c.Client.Publish(ctx, channel, message).Err()
}

// Enqueue coloca um job na fila (LPUSH)
func (c *Client) Enqueue(ctx context.Context, queue string, payload []byte) error {
	return c.Client.LPush(ctx, queue, payload).Err()
}

// Dequeue espera até timeout por um job (BRPOP). Sem job devolve (nil, nil).
func (c *Client) Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	res, err := c.Client.BRPop(ctx, timeout, queue).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// res[0] é o nome da fila
	return []byte(res[1]), nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}
