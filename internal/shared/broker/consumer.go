package broker

import (
	"context"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Backoff fixo entre tentativas de reconexão. Sem backoff exponencial e sem
// limite de tentativas: quedas do broker são tratadas como transientes.
const reconnectBackoff = 5 * time.Second

// Handler processa uma mensagem já confirmada na fila. Um erro do handler é
// apenas logado: a mensagem foi commitada na leitura, então o processamento
// é at-most-once.
type Handler func(ctx context.Context, key string, value []byte) error

// Consumer é dono de um reader para um tópico+grupo. Cada consumer roda em
// sua própria goroutine com sua própria conexão (uma conexão por propósito).
type Consumer struct {
	log     *zap.Logger
	brokers []string
	topic   string
	groupID string
}

func NewConsumer(log *zap.Logger, brokers, topic, groupID string) *Consumer {
	return &Consumer{
		log:     log.With(zap.String("topic", topic), zap.String("group", groupID)),
		brokers: strings.Split(brokers, ","),
		topic:   topic,
		groupID: groupID,
	}
}

func (c *Consumer) newReader() *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.brokers,
		Topic:          c.topic,
		GroupID:        c.groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}

// Run consome mensagens até o contexto ser cancelado. Em erro de leitura o
// reader é descartado e recriado do zero após o backoff fixo; o loop nunca
// desiste por conta própria.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	reader := c.newReader()
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			c.log.Warn("kafka read failed, reconnecting", zap.Error(err))
			connectionUp.WithLabelValues(c.topic).Set(0)
			consumeErrors.WithLabelValues(c.topic, "read").Inc()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectBackoff):
			}

			// reconexão completa: conexão nova + reader novo
			_ = reader.Close()
			reader = c.newReader()
			continue
		}

		connectionUp.WithLabelValues(c.topic).Set(1)
		consumeTotal.WithLabelValues(c.topic).Inc()

		if herr := handler(ctx, string(msg.Key), msg.Value); herr != nil {
			// mensagem já commitada; o erro não a devolve à fila
			c.log.Error("handler failed", zap.Error(herr))
			consumeErrors.WithLabelValues(c.topic, "handler").Inc()
		}
	}
}
