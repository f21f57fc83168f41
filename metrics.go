// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linkframe

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters the engines update over the lifetime of a
// process. A single Metrics value may be shared across many sequential
// phases/sessions (§5: one phase runs to completion before the next
// begins, so concurrent increments never happen).
type Metrics struct {
	framesSent      prometheus.Counter
	framesRetried   prometheus.Counter
	phasesFailed    prometheus.Counter
	phasesSucceeded prometheus.Counter
}

// NewMetrics registers linkframe's counters on reg and returns a Metrics
// ready to pass to WithMetrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkframe_frames_sent_total",
			Help: "Total frames transmitted by the sender engine, including retransmissions.",
		}),
		framesRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkframe_frames_retried_total",
			Help: "Total retransmissions caused by a receive timeout.",
		}),
		phasesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkframe_phases_failed_total",
			Help: "Total phases that ended in ErrRetriesExhausted, ErrRemoteError, or a handler error.",
		}),
		phasesSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkframe_phases_succeeded_total",
			Help: "Total phases that reached their terminal frame successfully.",
		}),
	}
	reg.MustRegister(m.framesSent, m.framesRetried, m.phasesFailed, m.phasesSucceeded)
	return m
}
