package docdb

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kvdoc/internal/ir"
)

func TestWithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := createTestDB(t, WithMetrics(reg))
	ctx := context.Background()

	require.NoError(t, d.UpdateOne(ctx, "c", ir.IRObject{"key": ir.IRString("k")}, record("k", ir.IRInt(1)), true))
	_, err := d.FindOne(ctx, "c", ir.IRObject{"key": ir.IRString("k")})
	require.NoError(t, err)
	_, err = d.FindOne(ctx, "c", ir.IRObject{"key": ir.IRString("missing")})
	require.Error(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	results := make(map[string]float64)
	for _, mf := range mfs {
		names[mf.GetName()] = true
		if mf.GetName() != "kvdoc_docdb_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			results[labels["op"]+"/"+labels["result"]] += m.GetCounter().GetValue()
		}
	}

	assert.True(t, names["kvdoc_docdb_operations_total"])
	assert.True(t, names["kvdoc_docdb_operation_duration_seconds"])
	assert.Equal(t, 1.0, results["update_one/ok"])
	assert.Equal(t, 1.0, results["find_one/ok"])
	assert.Equal(t, 1.0, results["find_one/NOT_FOUND"])
}

func TestNopMetricsByDefault(t *testing.T) {
	d := createTestDB(t)
	assert.IsType(t, NopMetrics{}, d.metrics)
}
