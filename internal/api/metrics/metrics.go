// Package metrics defines and registers all custom Prometheus metrics for the
// blazechat API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default Prometheus registry at import time via
// promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blazechat"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// SignupsTotal counts registration attempts.
// Label:
//   - result: "ok", "conflict", "weak_password", or "error"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts credential sign-in attempts.
// Label:
//   - result: "ok" or "unauthorized"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// TokenRefreshTotal counts explicit refresh-token exchanges (rotations).
// Label:
//   - result: "ok" or "unauthorized"
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of refresh-token exchanges, by result.",
	},
	[]string{"result"},
)

// SilentRenewalsTotal counts access tokens minted in-flight by the guard
// chain when the access cookie was missing or expired but the refresh
// cookie still resolved.
var SilentRenewalsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "silent_renewals_total",
		Help:      "Total number of access tokens minted by in-request silent renewal.",
	},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDenialsTotal counts requests rejected by the guard chain.
// Label:
//   - guard: the stage that denied ("csrf", "identity", "suspension", "role", "permission")
var GuardDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_denials_total",
		Help:      "Total number of requests rejected by the guard chain, by stage.",
	},
	[]string{"guard"},
)
