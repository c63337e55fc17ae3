package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textDoc(text string) Document {
	ResetBlockIDCounter()
	d := NewDocument("doc1", "untitled")
	d.Blocks[0].Runs = []TextRun{{Text: text}}
	return d
}

func blockTexts(d Document) []string {
	out := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		out[i] = b.Text()
	}
	return out
}

func TestApplyInsertText(t *testing.T) {
	d := textDoc("Hello")
	out := Apply(d, InsertText(Position{BlockIndex: 0, Offset: 5}, " World"))
	assert.Equal(t, "Hello World", out.Blocks[0].Text())
	assert.Equal(t, "Hello", d.Blocks[0].Text(), "apply must not mutate its input")
}

func TestApplyInsertTextOutOfRangeIsNoop(t *testing.T) {
	d := textDoc("Hello")
	out := Apply(d, InsertText(Position{BlockIndex: 0, Offset: 99}, "x"))
	assert.Equal(t, "Hello", out.Blocks[0].Text())

	out = Apply(d, InsertText(Position{BlockIndex: 7, Offset: 0}, "x"))
	assert.Equal(t, "Hello", out.Blocks[0].Text())
}

func TestApplyDeleteTextSingleBlock(t *testing.T) {
	d := textDoc("Hello")
	out := Apply(d, DeleteText(Range{Start: Position{0, 1}, End: Position{0, 4}}))
	assert.Equal(t, "Ho", out.Blocks[0].Text())
}

func TestApplyDeleteTextCrossBlock(t *testing.T) {
	ResetBlockIDCounter()
	d := NewDocument("doc1", "")
	d.Blocks[0].Runs = []TextRun{{Text: "Hello"}}
	d.Blocks = append(d.Blocks, Block{ID: "b2", Type: BlockParagraph, Runs: []TextRun{{Text: "World"}}})

	out := Apply(d, DeleteText(Range{Start: Position{0, 3}, End: Position{1, 2}}))
	require.Len(t, out.Blocks, 1)
	assert.Equal(t, "Helrld", out.Blocks[0].Text())
}

func TestApplyFormattingAndRemove(t *testing.T) {
	d := textDoc("Hello")
	bolded := Apply(d, ApplyFormatting(Range{Start: Position{0, 1}, End: Position{0, 4}}, TextStyle{Bold: true}))
	require.Len(t, bolded.Blocks[0].Runs, 3)
	assert.False(t, bolded.Blocks[0].Runs[0].Style.Bold)
	assert.True(t, bolded.Blocks[0].Runs[1].Style.Bold)
	assert.False(t, bolded.Blocks[0].Runs[2].Style.Bold)
	assert.Equal(t, "ell", bolded.Blocks[0].Runs[1].Text)

	unbolded := Apply(bolded, RemoveFormatting(Range{Start: Position{0, 1}, End: Position{0, 4}}, TextStyle{Bold: true}))
	assert.Len(t, unbolded.Blocks[0].Runs, 1)
	assert.Equal(t, "Hello", unbolded.Blocks[0].Runs[0].Text)
}

func TestApplySplitAndMergeBlock(t *testing.T) {
	d := textDoc("Hello")
	split := Apply(d, SplitBlock(Position{0, 2}))
	require.Len(t, split.Blocks, 2)
	assert.Equal(t, []string{"He", "llo"}, blockTexts(split))

	merged := Apply(split, MergeBlock(1))
	require.Len(t, merged.Blocks, 1)
	assert.Equal(t, "Hello", merged.Blocks[0].Text())
}

func TestApplyMergeBlockNoopAtZero(t *testing.T) {
	d := textDoc("Hello")
	out := Apply(d, MergeBlock(0))
	assert.Equal(t, "Hello", out.Blocks[0].Text())
	assert.Len(t, out.Blocks, 1)
}

func TestApplyInsertBlockAndDeleteBlock(t *testing.T) {
	d := textDoc("Hello")
	withNew := Apply(d, InsertBlock(0, BlockParagraph))
	require.Len(t, withNew.Blocks, 2)
	assert.Equal(t, "", withNew.Blocks[1].Text())

	withNew = Apply(withNew, InsertText(Position{1, 0}, "Second"))
	assert.Equal(t, []string{"Hello", "Second"}, blockTexts(withNew))

	deleted := Apply(withNew, DeleteBlock(0))
	assert.Equal(t, []string{"Second"}, blockTexts(deleted))
}

func TestApplyDeleteBlockLastOneLeavesEmptyParagraph(t *testing.T) {
	d := textDoc("Hello")
	out := Apply(d, DeleteBlock(0))
	require.Len(t, out.Blocks, 1)
	assert.Equal(t, BlockParagraph, out.Blocks[0].Type)
	assert.Equal(t, "", out.Blocks[0].Text())
}

func TestApplyChangeBlockTypeToTableCreatesDefaultData(t *testing.T) {
	d := textDoc("Hello")
	out := Apply(d, ChangeBlockType(0, BlockTable))
	require.NotNil(t, out.Blocks[0].TableData)
	assert.Len(t, out.Blocks[0].TableData, 2)
	assert.Len(t, out.Blocks[0].TableData[0], 2)
}

func TestApplySetTableDataRejectsNonRectangular(t *testing.T) {
	d := textDoc("Hello")
	table := Apply(d, ChangeBlockType(0, BlockTable))

	bad := [][]TableCell{
		{{Runs: []TextRun{{Text: "a"}}}},
		{{Runs: []TextRun{{Text: "b"}}}, {Runs: []TextRun{{Text: "c"}}}},
	}
	out := Apply(table, SetTableData(0, bad))
	assert.Len(t, out.Blocks[0].TableData, 2, "non-rectangular table data must be rejected as a no-op")
}

func TestApplySetImageOnlyAppliesToImageBlocks(t *testing.T) {
	d := textDoc("Hello")
	out := Apply(d, SetImage(0, "http://example.com/a.png"))
	assert.Nil(t, out.Blocks[0].ImageURL)

	img := Apply(d, ChangeBlockType(0, BlockImage))
	img = Apply(img, SetImage(0, "http://example.com/a.png"))
	require.NotNil(t, img.Blocks[0].ImageURL)
	assert.Equal(t, "http://example.com/a.png", *img.Blocks[0].ImageURL)
}

func TestApplySetIndentClamps(t *testing.T) {
	d := textDoc("Hello")
	out := Apply(d, SetIndent(0, 99))
	assert.Equal(t, 8, out.Blocks[0].IndentLevel)

	out = Apply(d, SetIndent(0, -5))
	assert.Equal(t, 0, out.Blocks[0].IndentLevel)
}

func TestApplyUnknownOpTypeIsNoop(t *testing.T) {
	d := textDoc("Hello")
	out := Apply(d, Operation{Type: "not_a_real_op"})
	assert.Equal(t, "Hello", out.Blocks[0].Text())
}
