// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package openid

import "github.com/prometheus/client_golang/prometheus"

// Registration outcomes recorded by Metrics.
const (
	registrationCreated = "created"
	registrationInvalid = "invalid"
	registrationFailed  = "failed"
)

// Metrics counts OpenID save outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Saves         *prometheus.CounterVec
	Registrations *prometheus.CounterVec
}

// NewMetrics creates and registers the OpenID metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holoid_openid_saves_total",
				Help: "Total number of OpenID session saves by result",
			},
			[]string{"result"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holoid_openid_registrations_total",
				Help: "Total number of automatic player registrations by status",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(m.Saves)
	reg.MustRegister(m.Registrations)

	return m
}

func (m *Metrics) recordSave(result Result) {
	if m == nil {
		return
	}
	m.Saves.WithLabelValues(result.String()).Inc()
}

func (m *Metrics) recordRegistration(status string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(status).Inc()
}
