// Copyright (C) 2025 hushchat <dev@hushchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import (
	"time"
)

// Security event kinds recorded for out-of-band monitoring.
const (
	EventXSSAttempt    = "xss_attempt"
	EventCSRFViolation = "csrf_violation"
	EventAuthFailure   = "auth_failure"
	EventRateLimited   = "rate_limited"
)

// SecurityEvent describes a suspicious request. Recording is fire-and-forget
// and must never block or fail the request that triggered it.
type SecurityEvent struct {
	Kind      string            `json:"kind"`
	Path      string            `json:"path"`
	ActorIP   string            `json:"actor_ip"`
	Details   map[string]string `json:"details,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
