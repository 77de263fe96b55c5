package services

import "github.com/prometheus/client_golang/prometheus"

// Domain-level counters complementing the HTTP metrics middleware. Labels are
// kept to small fixed sets so cardinality stays bounded.
var (
	// aiRequests counts calls to the AI core by outcome ("ok" or "error").
	aiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ai_requests_total",
			Help: "Total number of AI core chat calls.",
		},
		[]string{"outcome"},
	)

	// escalationsOpened counts escalation records created for low-confidence answers.
	escalationsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_escalations_opened_total",
			Help: "Total number of escalations opened for low-confidence answers.",
		},
	)

	// historyCache tracks chat history cache lookups by result ("hit" or "miss").
	historyCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_history_cache_lookups_total",
			Help: "Chat history cache lookups by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(aiRequests, escalationsOpened, historyCache)
}
