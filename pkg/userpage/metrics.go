package userpage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scrollTriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_scroll_triggers_total",
			Help: "Scroll trigger edges by outcome",
		},
		[]string{"tab", "result"}, // result: "fetched", "ignored"
	)

	tabSwitchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_tab_switches_total",
			Help: "Tab activations",
		},
		[]string{"tab"},
	)
)
