// Package metrics 业务指标，通过 /metrics 暴露给 prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fundmagic"

var (
	// PledgesAccepted 成功的支持次数
	PledgesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pledges_accepted_total",
		Help:      "Number of pledges committed.",
	})

	// PledgesRejected 被拒绝的支持次数，按原因区分
	PledgesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pledges_rejected_total",
		Help:      "Number of pledges rejected, by reason.",
	}, []string{"reason"})

	// PledgedCents 累计支持金额（分）
	PledgedCents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pledged_cents_total",
		Help:      "Total amount pledged, in cents.",
	})

	// ProjectsCreated 创建的项目数
	ProjectsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projects_created_total",
		Help:      "Number of projects created.",
	})

	// ProjectsClosed 项目状态迁移，trigger 为 pledge 或 deadline
	ProjectsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "project_transitions_total",
		Help:      "Project status transitions, by resulting status and trigger.",
	}, []string{"status", "trigger"})
)
