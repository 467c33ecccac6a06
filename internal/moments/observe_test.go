package moments

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queryCount returns the store_query_duration_seconds sample count for op and outcome.
func queryCount(t *testing.T, op, outcome string) uint64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "moment_stack_store_query_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["op"] == op && labels["outcome"] == outcome {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func TestObserveCountsMissingRowsAsOK(t *testing.T) {
	const op = "observe_test_get"
	cases := []struct {
		name    string
		err     error
		outcome string
	}{
		{"found", nil, "ok"},
		{"not found", model.ErrNotFound, "ok"},
		{"not owned", model.ErrNotFoundOrForbidden, "ok"},
		{"store failure", storeError("get moment", errors.New("conn reset")), "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := queryCount(t, op, tc.outcome)
			err := tc.err
			observe(op, time.Now(), &err)
			assert.Equal(t, before+1, queryCount(t, op, tc.outcome))
		})
	}
}

func TestQueryFailure(t *testing.T) {
	assert.NoError(t, queryFailure(nil))
	assert.NoError(t, queryFailure(model.ErrNotFound))
	assert.NoError(t, queryFailure(fmt.Errorf("wrapped: %w", model.ErrNotFoundOrForbidden)))

	failure := storeError("list moments", errors.New("timeout"))
	assert.ErrorIs(t, queryFailure(failure), model.ErrStore)
}
