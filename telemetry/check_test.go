package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLabelsValid(t *testing.T) {
	rows := append(testRunLabels(0, "a").Rows(), testRunLabels(1, "b").Rows()...)

	sum, err := CheckLabels(rows)
	require.NoError(t, err)
	assert.Equal(t, LabelSummary{Runs: 2, Agents: 2, Frames: 3, Rows: 12}, sum)

	sum, err = CheckLabels(nil)
	require.NoError(t, err)
	assert.Zero(t, sum.Rows)
}

func TestCheckLabelsInvalid(t *testing.T) {
	base := func() []LabelRow {
		return append(testRunLabels(0, "a").Rows(), testRunLabels(1, "b").Rows()...)
	}

	tests := []struct {
		name   string
		mutate func([]LabelRow) []LabelRow
	}{
		{"frames swapped", func(r []LabelRow) []LabelRow {
			r[0].Frame, r[1].Frame = r[1].Frame, r[0].Frame
			return r
		}},
		{"runs reversed", func(r []LabelRow) []LabelRow {
			return append(r[6:], r[:6]...)
		}},
		{"agent split", func(r []LabelRow) []LabelRow {
			r[1], r[3] = r[3], r[1]
			return r
		}},
		{"missing frame", func(r []LabelRow) []LabelRow {
			return append(r[:2], r[3:]...)
		}},
		{"roster changed", func(r []LabelRow) []LabelRow {
			for i := 9; i < 12; i++ {
				r[i].Agent = "r3"
			}
			return r
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckLabels(tt.mutate(base()))
			assert.ErrorIs(t, err, ErrLabelOrder)
		})
	}
}
