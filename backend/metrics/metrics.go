// Copyright (C) 2025 hushchat <dev@hushchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hushchat_requests_total",
		Help: "HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hushchat_rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter",
	})

	SecurityEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hushchat_security_events_total",
		Help: "Security events recorded, by kind",
	}, []string{"kind"})

	MessagesStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hushchat_messages_stored_total",
		Help: "Messages persisted, split by encrypted flag",
	}, []string{"encrypted"})

	StreamsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hushchat_streams_active",
		Help: "Currently open message stream subscriptions",
	})
)

func ObserveRequest(method, path string, status int) {
	requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func ObserveMessageStored(encrypted bool) {
	MessagesStored.WithLabelValues(strconv.FormatBool(encrypted)).Inc()
}
