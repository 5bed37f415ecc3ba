package broker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Saúde da conexão por tópico, observável em /metrics (1 = up, 0 = down).
var (
	connectionUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "broker_connection_up",
		Help: "estado da conexão com o broker por tópico",
	}, []string{"topic"})

	publishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broker_publish_total",
		Help: "mensagens publicadas com sucesso",
	}, []string{"topic"})

	publishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broker_publish_failures_total",
		Help: "falhas de publicação (mensagem descartada)",
	}, []string{"topic"})

	consumeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broker_consume_total",
		Help: "mensagens consumidas",
	}, []string{"topic"})

	consumeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broker_consume_errors_total",
		Help: "erros de consumo por estágio",
	}, []string{"topic", "stage"})
)
