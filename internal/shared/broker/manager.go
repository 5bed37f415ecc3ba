package broker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Manager é o dono explícito das conexões de publicação: um writer por tópico,
// criado no start do processo, recriado após falha e fechado no shutdown.
// Substitui o padrão de conexão global mutável por tópico.
type Manager struct {
	log     *zap.Logger
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewManager(log *zap.Logger, brokers string) *Manager {
	return &Manager{
		log:     log,
		brokers: strings.Split(brokers, ","),
		writers: make(map[string]*kafka.Writer),
	}
}

// writer retorna (ou cria) o writer do tópico. Tópicos são duráveis e
// auto-criados no primeiro publish.
func (m *Manager) writer(topic string) *kafka.Writer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(m.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	m.writers[topic] = w
	return w
}

// dropWriter descarta o writer do tópico; o próximo publish recria a conexão.
func (m *Manager) dropWriter(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.writers[topic]; ok {
		_ = w.Close()
		delete(m.writers, topic)
	}
}

// Publish envia uma mensagem em melhor esforço. Em caso de falha registra o
// erro, marca a conexão como down, dispara a reconexão (writer recriado no
// próximo uso) e devolve o erro: a mensagem NÃO é retransmitida.
func (m *Manager) Publish(ctx context.Context, topic, key string, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}

	err := m.writer(topic).WriteMessages(ctx, msg)
	if err != nil {
		m.log.Warn("broker publish failed",
			zap.String("topic", topic),
			zap.Error(err),
		)
		publishFailures.WithLabelValues(topic).Inc()
		connectionUp.WithLabelValues(topic).Set(0)
		m.dropWriter(topic)
		return err
	}

	publishTotal.WithLabelValues(topic).Inc()
	connectionUp.WithLabelValues(topic).Set(1)
	return nil
}

// Close encerra todos os writers abertos.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for topic, w := range m.writers {
		_ = w.Close()
		delete(m.writers, topic)
	}
}
