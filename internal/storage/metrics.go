// Package storage holds what the digest store drivers share.
package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var digestSaves = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "worklog_digest_saves_total",
	Help: "Digest saves by storage driver and outcome.",
}, []string{"driver", "outcome"})

// ObserveSave counts one Save call for driver.
func ObserveSave(driver string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	digestSaves.WithLabelValues(driver, outcome).Inc()
}
