package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgprism/pgprism/internal/diff"
	"github.com/pgprism/pgprism/test"
)

func TestCompareTimedPlans(t *testing.T) {
	base := test.LoadSampleAnalysis(t, "nested.txt")
	target := test.LoadSampleAnalysis(t, "nested_indexed.txt")

	report, err := diff.Compare(base, target, diff.Options{})
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, diff.MetricTime, report.Metric)
	assert.Equal(t, "improved", report.Verdict)
	assert.InDelta(t, 129.345, report.Summary.BaseExecutionMs, 1e-6)
	assert.InDelta(t, -83.145, report.Summary.DeltaExecutionMs, 1e-6)

	require.NotEmpty(t, report.Improvements)
	first := report.Improvements[0]
	assert.Equal(t, "Sort", first.Signature)
	assert.InDelta(t, -49.048, first.DeltaSelf, 1e-6)
	assert.InDelta(t, -100, first.PercentChange, 1e-6)

	// The Nested Loop is new in the indexed plan: 38.000 ms total minus the
	// per-loop child contribution 0.300*1 + 0.250*100 leaves 12.7 ms self.
	require.NotEmpty(t, report.Regressions)
	hottest := report.Regressions[0]
	assert.Equal(t, "Nested Loop", hottest.Signature)
	assert.InDelta(t, 12.7, hottest.DeltaSelf, 1e-6)
	assert.InDelta(t, 100, hottest.PercentChange, 1e-6)
	assert.Equal(t, 0, hottest.BaseCount)
	assert.Equal(t, 1, hottest.TargetCount)

	require.NotEmpty(t, report.Insights)
}

func TestCompareFallsBackToCost(t *testing.T) {
	base := test.LoadSampleAnalysis(t, "nested.txt")
	target := test.LoadSampleAnalysis(t, "notiming.txt")

	report, err := diff.Compare(base, target, diff.Options{})
	require.NoError(t, err)
	assert.Equal(t, diff.MetricCost, report.Metric)

	md := report.Markdown()
	assert.Contains(t, md, "- Metric: self cost")
	assert.Contains(t, md, "Base self (cost)")
}

func TestCompareMarkdown(t *testing.T) {
	base := test.LoadSampleAnalysis(t, "nested.txt")
	target := test.LoadSampleAnalysis(t, "nested_indexed.txt")

	report, err := diff.Compare(base, target, diff.Options{})
	require.NoError(t, err)

	md := report.Markdown()
	assert.Contains(t, md, "# pgprism diff")
	assert.Contains(t, md, "- Metric: self time")
	assert.Contains(t, md, "- Verdict: improved")
	assert.Contains(t, md, "| Sort |")
	assert.Contains(t, md, "✅")
}

func TestCompareIdenticalPlans(t *testing.T) {
	base := test.LoadSampleAnalysis(t, "nested.txt")
	target := test.LoadSampleAnalysis(t, "nested.txt")

	report, err := diff.Compare(base, target, diff.Options{})
	require.NoError(t, err)
	assert.Equal(t, "unchanged", report.Verdict)
	assert.Empty(t, report.Regressions)
	assert.Empty(t, report.Improvements)
	assert.Empty(t, report.Insights)
}

func TestCompareRespectsOptions(t *testing.T) {
	base := test.LoadSampleAnalysis(t, "nested.txt")
	target := test.LoadSampleAnalysis(t, "nested_indexed.txt")

	report, err := diff.Compare(base, target, diff.Options{MinSelfDelta: 1000})
	require.NoError(t, err)
	assert.Empty(t, report.Regressions)
	assert.Empty(t, report.Improvements)

	report, err = diff.Compare(base, target, diff.Options{MaxItems: 1})
	require.NoError(t, err)
	assert.Len(t, report.Improvements, 1)
}

func TestReportJSON(t *testing.T) {
	base := test.LoadSampleAnalysis(t, "nested.txt")
	target := test.LoadSampleAnalysis(t, "nested_indexed.txt")

	report, err := diff.Compare(base, target, diff.Options{})
	require.NoError(t, err)

	out, err := report.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"metric": "time"`)
	assert.Contains(t, string(out), `"signature": "Sort"`)
}

func TestCompareMissingAnalysis(t *testing.T) {
	base := test.LoadSampleAnalysis(t, "nested.txt")

	_, err := diff.Compare(nil, base, diff.Options{})
	require.Error(t, err)

	_, err = diff.Compare(base, nil, diff.Options{})
	require.Error(t, err)
}
