package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/cache"
	"github.com/gestao-concessionaria-api/internal/logger"
)

type envelope struct {
	Origin string            `json:"origin"`
	Change backend.RowChange `json:"change"`
}

// RedisBridge liga o Hub local a um canal Redis compartilhado pelas instâncias.
// Cada instância ignora as mensagens que ela mesma publicou.
type RedisBridge struct {
	hub     *Hub
	client  *cache.Client
	channel string
	origin  string
	log     *zap.Logger
}

func NewRedisBridge(hub *Hub, client *cache.Client, channel string) *RedisBridge {
	b := &RedisBridge{
		hub:     hub,
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		log:     logger.Named("realtime"),
	}
	hub.setForward(b.forward)
	return b
}

func (b *RedisBridge) forward(ctx context.Context, change backend.RowChange) {
	payload, err := json.Marshal(envelope{Origin: b.origin, Change: change})
	if err != nil {
		b.log.Error("Erro ao serializar evento", zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, b.channel, payload); err != nil {
		b.log.Warn("Erro ao publicar evento no Redis",
			zap.String("table", change.Table), zap.Error(err))
	}
}

// Run recebe eventos das outras instâncias até o contexto ser cancelado
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.Client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// garante que a assinatura está ativa antes de receber
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	b.log.Info("Bridge realtime ativa", zap.String("channel", b.channel))

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.log.Warn("Erro ao receber mensagem", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			b.log.Warn("Evento inválido descartado", zap.Error(err))
			continue
		}
		if env.Origin == b.origin {
			continue
		}
		b.hub.dispatch(env.Change)
	}
}
