// Package metrics 生命周期动作的 prometheus 指标
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 动作结果标签
const (
	OutcomeSuccess      = "success"
	OutcomePrecondition = "precondition"
	OutcomeLookup       = "lookup"
	OutcomeFailure      = "failure"
)

// CampaignMetrics 活动动作指标
type CampaignMetrics struct {
	actions  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	settled  *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	synced   prometheus.Gauge
}

var (
	campaignOnce     sync.Once
	campaignRegistry *CampaignMetrics
)

// NewCampaignMetrics 创建指标并注册到 reg；reg 为空时不注册
func NewCampaignMetrics(reg prometheus.Registerer) *CampaignMetrics {
	m := &CampaignMetrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_actions_total",
			Help: "Lifecycle actions by name and outcome.",
		}, []string{"action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campaign_action_duration_seconds",
			Help:    "Time from request to submission per action.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_settled_lovelace_total",
			Help: "Lovelace paid out by settlement actions.",
		}, []string{"action"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_tokens_total",
			Help: "Tokens minted or burned by kind.",
		}, []string{"kind"}),
		synced: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "campaign_synced",
			Help: "Campaigns refreshed by the last sync run.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.actions, m.duration, m.settled, m.tokens, m.synced)
	}
	return m
}

// Campaign 注册到默认 registry 的全局指标
func Campaign() *CampaignMetrics {
	campaignOnce.Do(func() {
		campaignRegistry = NewCampaignMetrics(prometheus.DefaultRegisterer)
	})
	return campaignRegistry
}

// ObserveAction 记录一次动作的结果与耗时
func (m *CampaignMetrics) ObserveAction(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if action == "" {
		action = "unknown"
	}
	m.actions.WithLabelValues(action, outcome).Inc()
	m.duration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// ObserveSettled 记录结算金额
func (m *CampaignMetrics) ObserveSettled(action string, lovelace int64) {
	if m == nil || lovelace <= 0 {
		return
	}
	m.settled.WithLabelValues(action).Add(float64(lovelace))
}

// ObserveTokens 记录铸造（minted）或销毁（burned）数量
func (m *CampaignMetrics) ObserveTokens(kind string, quantity int64) {
	if m == nil || quantity <= 0 {
		return
	}
	m.tokens.WithLabelValues(kind).Add(float64(quantity))
}

// SetSynced 最近一次同步刷新的活动数
func (m *CampaignMetrics) SetSynced(n int) {
	if m == nil {
		return
	}
	m.synced.Set(float64(n))
}
