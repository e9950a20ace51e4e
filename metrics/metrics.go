// Package metrics 定义服务暴露的 Prometheus 指标。
package metrics

import (
	"net/http"

	ua "github.com/mileusna/useragent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "story4u"

// Metrics 持有所有指标及其注册表
type Metrics struct {
	registry *prometheus.Registry

	Requests   *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	RateLimit  *prometheus.CounterVec
	SurveyVote prometheus.Counter
}

// New 创建并注册指标。每个实例使用独立的注册表。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests handled.",
		}, []string{"method", "path", "status", "user_agent"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time taken to handle HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		RateLimit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Rate limiter decisions by operation class, tier and outcome.",
		}, []string{"class", "tier", "outcome"}),
		SurveyVote: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "survey_votes_total",
			Help:      "Number of accepted survey votes.",
		}),
	}
	reg.MustRegister(
		m.Requests, m.Duration, m.RateLimit, m.SurveyVote,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler 以 Prometheus 文本格式输出指标
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回底层注册表，测试中用于读取指标
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// UserAgent 返回请求 User-Agent 的浏览器/客户端名称
func UserAgent(header string) string {
	if header == "" {
		return "unknown"
	}
	name := ua.Parse(header).Name
	if name == "" {
		return "other"
	}
	return name
}
