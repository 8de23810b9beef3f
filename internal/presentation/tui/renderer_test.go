package tui_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/studioflow/internal/presentation/tui"
	"github.com/aretw0/studioflow/pkg/domain"
)

func TestSummary(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	rec := &domain.RunRecord{
		ID:          "abc",
		Status:      domain.RunFailed,
		RunDir:      "/tmp/run",
		StartedAt:   start,
		CompletedAt: &end,
		Error:       "execution error in step 1",
		Steps: []domain.StepRecord{
			{Index: 0, Measure: "AddOverhangs", Kind: domain.KindModel, Applicable: true, Warnings: []string{"w"}},
			{Index: 1, Measure: "SetSchedule", Kind: domain.KindWorkspace, Errors: []string{"zone | missing"}},
			{Index: 2, Measure: "Skip", Kind: domain.KindModel},
		},
		ObjectiveFunctions: map[string]any{"objective_function_2": 3.5, "objective_function_1": 1.0},
	}

	got := tui.Summary(rec)
	assert.Contains(t, got, "# Run `abc`")
	assert.Contains(t, got, "**Status:** failed")
	assert.Contains(t, got, "**Duration:** 1m30s")
	assert.Contains(t, got, "| 0 | AddOverhangs | ModelMeasure | Success | 1 |")
	assert.Contains(t, got, `| 1 | SetSchedule | EnergyPlusMeasure | Fail: zone \| missing | 0 |`)
	assert.Contains(t, got, "| 2 | Skip | ModelMeasure | NA | 0 |")
	assert.Less(t, strings.Index(got, "objective_function_1"), strings.Index(got, "objective_function_2"))
}

func TestNewRenderer(t *testing.T) {
	out, err := tui.NewRenderer()("# Title")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
}
