package connectivity_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"gazette-tasks/internal/infra/connectivity"
	"gazette-tasks/internal/observability/metrics"
)

type scriptedPinger struct {
	results []error
	i       int
}

func (p *scriptedPinger) PingContext(context.Context) error {
	if p.i >= len(p.results) {
		return nil
	}
	err := p.results[p.i]
	p.i++
	return err
}

type recordingTarget struct {
	calls []bool
	err   error
}

func (r *recordingTarget) SetOnline(_ context.Context, online bool) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, online)
	return nil
}

func TestMonitor_Check(t *testing.T) {
	down := errors.New("connection refused")
	pinger := &scriptedPinger{results: []error{down, down, nil, down, down, down, down, nil, nil}}
	target := &recordingTarget{}
	m := connectivity.NewMonitor(pinger, target, 0, nil)

	var observed []bool
	for range pinger.results {
		observed = append(observed, m.Check(context.Background()))
	}

	assert.Equal(t, []bool{true, true, true, true, true, false, false, true, true}, observed)
	assert.Equal(t, []bool{false, true}, target.calls)
}

func TestMonitor_TargetErrorKeepsState(t *testing.T) {
	down := errors.New("timeout")
	pinger := &scriptedPinger{results: []error{down, down, down}}
	target := &recordingTarget{err: errors.New("enable failed")}
	m := connectivity.NewMonitor(pinger, target, 0, nil)

	for range pinger.results {
		m.Check(context.Background())
	}
	assert.True(t, m.Check(context.Background()))
}

type poolPinger struct{ scriptedPinger }

func (poolPinger) Stats() sql.DBStats { return sql.DBStats{InUse: 2, Idle: 5} }

func TestMonitor_RecordsPoolStats(t *testing.T) {
	m := connectivity.NewMonitor(&poolPinger{}, &recordingTarget{}, 0, nil)
	m.Check(context.Background())

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DBConnectionsActive))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.DBConnectionsIdle))
}
