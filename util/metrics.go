package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	roundStartedCounter  prometheus.Counter
	shuffleCounter       prometheus.Counter
	outcomeCounter       *prometheus.CounterVec
	seatRemovedCounter   *prometheus.CounterVec
	seatedPlayersGauge   prometheus.Gauge
	connectionCountGauge prometheus.Gauge
}

func (m *metrics) RoundStarted() {
	m.roundStartedCounter.Inc()
}

func (m *metrics) DeckShuffled() {
	m.shuffleCounter.Inc()
}

// Outcome counts a resolved hand: blackjack, bust, win, lose, forfeit.
func (m *metrics) Outcome(kind string) {
	m.outcomeCounter.WithLabelValues(kind).Inc()
}

func (m *metrics) SeatRemoved(reason string) {
	m.seatRemovedCounter.WithLabelValues(reason).Inc()
}

func (m *metrics) SetSeatedPlayers(count int) {
	m.seatedPlayersGauge.Set(float64(count))
}

func (m *metrics) ConnectionOpened() {
	m.connectionCountGauge.Inc()
}

func (m *metrics) ConnectionClosed() {
	m.connectionCountGauge.Dec()
}

var Metrics = &metrics{
	roundStartedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "rounds_started_total",
		Help: "Total number of rounds started",
	}),
	shuffleCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "deck_shuffles_total",
		Help: "Total number of times the shoe was reloaded between rounds",
	}),
	outcomeCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hand_outcomes_total",
		Help: "Resolved player hands by outcome",
	}, []string{"outcome"}),
	seatRemovedCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seats_removed_total",
		Help: "Players removed from the table by reason",
	}, []string{"reason"}),
	seatedPlayersGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seated_players_count",
		Help: "Number of players currently seated at the table",
	}),
	connectionCountGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "open_connections_count",
		Help: "Number of open client connections",
	}),
}
