// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package prodigy

import "expvar"

// runnerMetrics records per-runner activity counters, in the same shape as
// github.com/creachadair/chirp's peerMetrics.
type runnerMetrics struct {
	packetsSent    expvar.Int
	packetsRecv    expvar.Int
	packetsDropped expvar.Int
	exchangesOut   expvar.Int // outbound exchanges initiated
	exchangesErr   expvar.Int // outbound exchanges that failed
	exchangesPend  expvar.Int // outbound exchanges currently pending
	requestsIn     expvar.Int // inbound requests received
	requestsErr    expvar.Int // inbound requests whose handler errored
	handlersActive expvar.Int // inbound handler tasks currently running

	emap *expvar.Map
}

func newRunnerMetrics() *runnerMetrics {
	m := &runnerMetrics{emap: new(expvar.Map)}
	m.emap.Set("packets_sent", &m.packetsSent)
	m.emap.Set("packets_received", &m.packetsRecv)
	m.emap.Set("packets_dropped", &m.packetsDropped)
	m.emap.Set("exchanges_out", &m.exchangesOut)
	m.emap.Set("exchanges_out_failed", &m.exchangesErr)
	m.emap.Set("exchanges_pending", &m.exchangesPend)
	m.emap.Set("requests_in", &m.requestsIn)
	m.emap.Set("requests_in_failed", &m.requestsErr)
	m.emap.Set("handlers_active", &m.handlersActive)
	return m
}

// Metrics returns an [expvar.Map] of this runner's activity counters. The
// caller is free to add further entries to it.
func (r *Runner) Metrics() *expvar.Map { return r.metrics.emap }
