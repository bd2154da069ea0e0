// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package clearkey

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	licenseRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clearkey_license_requests_total",
			Help: "Number of Clearkey license requests served, partitioned by HTTP status code.",
		},
		[]string{"code"},
	)

	licenseKeys = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clearkey_license_keys_total",
			Help: "Number of distinct key IDs per license request, partitioned by result.",
		},
		[]string{"result"},
	)
)

const (
	keyResultServed  = "served"
	keyResultUnknown = "unknown"
)

// MustRegisterMetrics registers the license server collectors in reg.
func MustRegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(licenseRequests, licenseKeys)
}

func recordRequest(code int) {
	licenseRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

func recordKeys(served, unknown int) {
	licenseKeys.WithLabelValues(keyResultServed).Add(float64(served))
	licenseKeys.WithLabelValues(keyResultUnknown).Add(float64(unknown))
}
