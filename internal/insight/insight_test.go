package insight_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgprism/pgprism/internal/analyzer"
	"github.com/pgprism/pgprism/internal/insight"
	"github.com/pgprism/pgprism/internal/model"
	"github.com/pgprism/pgprism/test"
)

func TestMessagesHotSpot(t *testing.T) {
	analysis := test.LoadSampleAnalysis(t, "nested.txt")

	msgs := insight.Messages(analysis)
	require.Len(t, msgs, 1)
	assert.Equal(t, insight.SeverityWarning, msgs[0].Severity)
	assert.Contains(t, msgs[0].Text, "Sort")
	assert.Contains(t, msgs[0].Text, "49.048 ms")
}

func TestMessagesHotSpotCritical(t *testing.T) {
	plan := &model.Plan{
		Root: &model.PlanNode{
			NodeType: "Seq Scan",
			Target:   "on events",
			Actual:   &model.Actuals{Timing: &model.Timing{Total: 90}, Rows: 1, Loops: 1},
		},
		Tail: []string{"Execution Time: 100.000 ms"},
	}
	analysis, err := analyzer.Analyze(plan)
	require.NoError(t, err)

	msgs := insight.Messages(analysis)
	require.NotEmpty(t, msgs)
	assert.Equal(t, insight.SeverityCritical, msgs[0].Severity)
	assert.Contains(t, msgs[0].Text, "Seq Scan on events")
	assert.Contains(t, msgs[0].Text, "90.0%")
}

func TestMessagesWithoutTiming(t *testing.T) {
	analysis := test.LoadSampleAnalysis(t, "notiming.txt")

	msgs := insight.Messages(analysis)
	require.Len(t, msgs, 3)

	// The Seq Scan expected 21000 rows and produced 10.
	assert.Equal(t, insight.SeverityWarning, msgs[0].Severity)
	assert.Contains(t, msgs[0].Text, "2100x")
	assert.Contains(t, msgs[0].Text, "Seq Scan on users u")

	assert.Equal(t, insight.SeverityInfo, msgs[1].Severity)
	assert.Contains(t, msgs[1].Text, "Costliest node: Seq Scan on users u")

	assert.Equal(t, insight.SeverityInfo, msgs[2].Severity)
	assert.Contains(t, msgs[2].Text, "No timing data")
}

func TestMessagesNoFindings(t *testing.T) {
	assert.Nil(t, insight.Messages(nil))
}
