package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMergesAdjacentEqualStyles(t *testing.T) {
	runs := []TextRun{
		{Text: "He", Style: TextStyle{Bold: true}},
		{Text: "llo", Style: TextStyle{Bold: true}},
		{Text: "", Style: TextStyle{Italic: true}},
		{Text: " World", Style: TextStyle{}},
	}
	out := Normalize(runs)
	require.Len(t, out, 2)
	assert.Equal(t, "Hello", out[0].Text)
	assert.Equal(t, " World", out[1].Text)
}

func TestNormalizeRestoresSentinelWhenEmpty(t *testing.T) {
	out := Normalize([]TextRun{{Text: ""}, {Text: ""}})
	require.Len(t, out, 1)
	assert.Equal(t, "", out[0].Text)
}

func TestSplitRunsAtBoundaryProducesNoZeroLengthRuns(t *testing.T) {
	runs := []TextRun{
		{Text: "Hello", Style: TextStyle{Bold: true}},
		{Text: "World", Style: TextStyle{}},
	}
	before, after := SplitRunsAt(runs, 5)
	require.Len(t, before, 1)
	require.Len(t, after, 1)
	assert.Equal(t, "Hello", before[0].Text)
	assert.Equal(t, "World", after[0].Text)
}

func TestSplitRunsAtInsideRunPreservesStyle(t *testing.T) {
	runs := []TextRun{{Text: "Hello", Style: TextStyle{Bold: true}}}
	before, after := SplitRunsAt(runs, 2)
	require.Len(t, before, 1)
	require.Len(t, after, 1)
	assert.Equal(t, "He", before[0].Text)
	assert.Equal(t, "llo", after[0].Text)
	assert.True(t, before[0].Style.Bold)
	assert.True(t, after[0].Style.Bold)
}

func TestInsertTextIntoRunsInheritsRightBiasedStyleAtBoundary(t *testing.T) {
	runs := []TextRun{
		{Text: "He", Style: TextStyle{Bold: true}},
		{Text: "llo", Style: TextStyle{}},
	}
	out := insertTextIntoRuns(runs, 2, "XX")
	text := (Block{Runs: out}).Text()
	assert.Equal(t, "HeXXllo", text)

	require.Len(t, out, 2)
	assert.Equal(t, "He", out[0].Text)
	assert.Equal(t, "XXllo", out[1].Text)
	assert.False(t, out[1].Style.Bold, "insert at a run boundary should inherit the following run's style")
}

func TestApplyFormattingToRangeOnlyAffectsInside(t *testing.T) {
	runs := []TextRun{{Text: "Hello World"}}
	out := ApplyFormattingToRange(runs, 6, 11, func(s TextStyle) TextStyle {
		s.Bold = true
		return s
	})
	require.Len(t, out, 2)
	assert.Equal(t, "Hello ", out[0].Text)
	assert.False(t, out[0].Style.Bold)
	assert.Equal(t, "World", out[1].Text)
	assert.True(t, out[1].Style.Bold)
}
