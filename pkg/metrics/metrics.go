package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── 访问生命周期 ──

var visitTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gatepass_visit_transitions_total",
		Help: "Total number of committed visit status transitions",
	},
	[]string{"from", "to"},
)

var visitsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gatepass_visits_created_total",
		Help: "Total number of visit requests created",
	},
	[]string{"type"},
)

// ── 过期扫描 ──

var sweepRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gatepass_sweep_runs_total",
		Help: "Total number of expiration sweeps",
	},
	[]string{"mode", "result"}, // mode: lazy|periodic|manual
)

var sweepExpiredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "gatepass_sweep_expired_total",
		Help: "Total number of pending visits transitioned to expired by sweeps",
	},
)

// ── 前台签到签退 ──

var lobbyEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gatepass_lobby_events_total",
		Help: "Total number of lobby check-in/check-out attempts by result",
	},
	[]string{"action", "result"},
)

// ── 通知 ──

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gatepass_notifications_total",
		Help: "Total number of notification deliveries by kind and result",
	},
	[]string{"kind", "result"},
)

// RecordTransition 记录一次已提交的状态流转
func RecordTransition(from, to string) {
	visitTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordVisitCreated 记录新建访问
func RecordVisitCreated(visitType string) {
	visitsCreatedTotal.WithLabelValues(visitType).Inc()
}

// RecordSweep 记录一次扫描及其过期条数
func RecordSweep(mode string, expired int64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	sweepRunsTotal.WithLabelValues(mode, result).Inc()
	if expired > 0 {
		sweepExpiredTotal.Add(float64(expired))
	}
}

// RecordLobby 记录签到/签退结果，result 取 ok 或错误类别
func RecordLobby(action, result string) {
	lobbyEventsTotal.WithLabelValues(action, result).Inc()
}

// RecordNotification 记录通知发送结果
func RecordNotification(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	notificationsTotal.WithLabelValues(kind, result).Inc()
}
