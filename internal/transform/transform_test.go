package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbitr/altdocs/internal/model"
)

func doc(texts ...string) model.Document {
	model.ResetBlockIDCounter()
	blocks := make([]model.Block, len(texts))
	for i, text := range texts {
		blocks[i] = model.Block{
			ID:        model.NewBlockID(),
			Type:      model.BlockParagraph,
			Alignment: model.AlignLeft,
			Runs:      []model.TextRun{{Text: text}},
		}
	}
	return model.Document{ID: "doc1", Title: "t", Blocks: blocks}
}

func texts(d model.Document) []string {
	out := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		out[i] = b.Text()
	}
	return out
}

// stripIDs blanks every block ID so two documents can be compared on
// content and structure alone. Block IDs come from a process-wide
// counter (NewBlockID); two convergent apply orders can legitimately
// create "the same" new block (e.g. two concurrent blank splits) via a
// different number of intervening calls, so the raw ID string is not
// part of what TP1 promises to converge.
func stripIDs(d model.Document) model.Document {
	out := d
	out.Blocks = make([]model.Block, len(d.Blocks))
	for i, b := range d.Blocks {
		b.ID = ""
		out.Blocks[i] = b
	}
	return out
}

// assertConverges is property TP1 (spec §8.2): apply(apply(S,a),b') must
// equal apply(apply(S,b),a') for any concurrent pair generated against S.
func assertConverges(t *testing.T, s model.Document, a, b model.Operation) (converged model.Document) {
	t.Helper()
	aPrime, bPrime := TransformPair(a, b)

	left := model.Apply(model.Apply(s, a), bPrime)
	right := model.Apply(model.Apply(s, b), aPrime)
	assert.Equal(t, stripIDs(left), stripIDs(right), "TP1 violated: apply(apply(S,a),b') != apply(apply(S,b),a')")
	return left
}

func TestTP1InsertInsertSamePosition(t *testing.T) {
	s := doc("AB")
	a := model.InsertText(model.Position{BlockIndex: 0, Offset: 1}, "X")
	b := model.InsertText(model.Position{BlockIndex: 0, Offset: 1}, "Y")
	out := assertConverges(t, s, a, b)
	assert.Equal(t, []string{"AXYB"}, texts(out))
}

func TestTP1InsertVsMultiCharDelete(t *testing.T) {
	s := doc("Hello")
	a := model.DeleteText(model.Range{Start: model.Position{0, 1}, End: model.Position{0, 4}})
	b := model.InsertText(model.Position{0, 2}, "Z")
	out := assertConverges(t, s, a, b)
	assert.Equal(t, []string{"Ho"}, texts(out))
}

func TestTP1InsertAtDeleteEndBoundarySurvives(t *testing.T) {
	s := doc("Hello")
	a := model.DeleteText(model.Range{Start: model.Position{0, 1}, End: model.Position{0, 4}})
	b := model.InsertText(model.Position{0, 4}, "Z")
	out := assertConverges(t, s, a, b)
	assert.Equal(t, []string{"HZo"}, texts(out))
}

func TestTP1InsertAtDeleteStartBoundarySurvives(t *testing.T) {
	s := doc("Hello")
	a := model.DeleteText(model.Range{Start: model.Position{0, 1}, End: model.Position{0, 4}})
	b := model.InsertText(model.Position{0, 1}, "Z")
	out := assertConverges(t, s, a, b)
	assert.Equal(t, []string{"HZo"}, texts(out))
}

func TestTP1SplitVsInsertAtSamePosition(t *testing.T) {
	s := doc("AB")
	split := model.SplitBlock(model.Position{0, 1})
	ins := model.InsertText(model.Position{0, 1}, "X")

	aPrime, bPrime := TransformPair(split, ins)
	withSplitFirst := model.Apply(model.Apply(s, split), bPrime)
	assert.Equal(t, []string{"A", "XB"}, texts(withSplitFirst))

	aPrime2, bPrime2 := TransformPair(ins, split)
	withInsertFirst := model.Apply(model.Apply(s, ins), bPrime2)
	assert.Equal(t, []string{"AX", "B"}, texts(withInsertFirst))

	// cross-check both were actually convergent on their own terms
	assert.Equal(t, stripIDs(model.Apply(model.Apply(s, split), bPrime)), stripIDs(model.Apply(model.Apply(s, ins), aPrime)))
	assert.Equal(t, stripIDs(model.Apply(model.Apply(s, ins), bPrime2)), stripIDs(model.Apply(model.Apply(s, split), aPrime2)))
}

func TestTP1SplitVsSplitSamePosition(t *testing.T) {
	s := doc("AB")
	a := model.SplitBlock(model.Position{0, 1})
	b := model.SplitBlock(model.Position{0, 1})
	out := assertConverges(t, s, a, b)
	assert.Equal(t, []string{"A", "", "B"}, texts(out))
}

func TestTP1DeleteVsDeleteOverlap(t *testing.T) {
	s := doc("0123456789")
	a := model.DeleteText(model.Range{Start: model.Position{0, 2}, End: model.Position{0, 6}})
	b := model.DeleteText(model.Range{Start: model.Position{0, 4}, End: model.Position{0, 8}})
	out := assertConverges(t, s, a, b)
	assert.Equal(t, []string{"0189"}, texts(out))
}

func TestTP1DeleteFullyConsumedByOtherDelete(t *testing.T) {
	s := doc("0123456789")
	a := model.DeleteText(model.Range{Start: model.Position{0, 4}, End: model.Position{0, 6}})
	b := model.DeleteText(model.Range{Start: model.Position{0, 2}, End: model.Position{0, 8}})
	out := assertConverges(t, s, a, b)
	assert.Equal(t, []string{"0189"}, texts(out))
}

func TestTP1MultiBlockDeleteVsFormatting(t *testing.T) {
	s := doc("Hello", "World")
	a := model.DeleteText(model.Range{Start: model.Position{0, 3}, End: model.Position{1, 2}})
	b := model.ApplyFormatting(model.Range{Start: model.Position{0, 0}, End: model.Position{1, 5}}, model.TextStyle{Bold: true})
	out := assertConverges(t, s, a, b)
	require.Len(t, out.Blocks, 1)
	assert.Equal(t, "Helrld", out.Blocks[0].Text())
	for _, r := range out.Blocks[0].Runs {
		assert.True(t, r.Style.Bold)
	}
}

func TestTP1MergeBlockVsMergeBlockDifferentIndices(t *testing.T) {
	s := doc("A", "B", "C")
	a := model.MergeBlock(1)
	b := model.MergeBlock(2)
	out := assertConverges(t, s, a, b)
	assert.Equal(t, []string{"ABC"}, texts(out))
}

func TestTP1MergeBlockVsMergeBlockSameIndexIsDuplicate(t *testing.T) {
	s := doc("A", "B", "C")
	a := model.MergeBlock(1)
	b := model.MergeBlock(1)
	out := assertConverges(t, s, a, b)
	assert.Equal(t, []string{"AB", "C"}, texts(out))
}

func TestTP1InsertBlockVsInsertBlockSameSlot(t *testing.T) {
	// Two concurrent blank-paragraph inserts at the same slot are
	// observationally identical regardless of which "wins" the tie, so
	// this checks shape (4 blocks, 2 of them blank paragraphs bracketed
	// by A and B) rather than exact block identity.
	s := doc("A", "B")
	a := model.InsertBlock(0, model.BlockParagraph)
	b := model.InsertBlock(0, model.BlockParagraph)
	aPrime, bPrime := TransformPair(a, b)

	withAFirst := model.Apply(model.Apply(s, a), bPrime)
	withBFirst := model.Apply(model.Apply(s, b), aPrime)

	want := []string{"A", "", "", "B"}
	assert.Equal(t, want, texts(withAFirst))
	assert.Equal(t, want, texts(withBFirst))
}

func TestTP1SameBlockAttributeSetterConverges(t *testing.T) {
	s := doc("Hello")
	a := model.SetIndent(0, 2)
	b := model.SetIndent(0, 5)
	out := assertConverges(t, s, a, b)
	assert.Equal(t, 2, out.Blocks[0].IndentLevel, "priority operand's value should win in both orders")
}

func TestTP1SetImageSameBlockConverges(t *testing.T) {
	model.ResetBlockIDCounter()
	d := model.NewDocument("doc1", "")
	d = model.Apply(d, model.ChangeBlockType(0, model.BlockImage))
	a := model.SetImage(0, "http://a")
	b := model.SetImage(0, "http://b")
	out := assertConverges(t, d, a, b)
	require.NotNil(t, out.Blocks[0].ImageURL)
	assert.Equal(t, "http://a", *out.Blocks[0].ImageURL)
}

func TestTransformSingleMatchesTransformPairSecondComponent(t *testing.T) {
	prior := model.InsertText(model.Position{0, 0}, "X")
	op := model.InsertText(model.Position{0, 1}, "Y")

	_, wantPrime := TransformPair(prior, op)
	got := TransformSingle(op, prior)
	assert.Equal(t, wantPrime, got)
}

func TestDeleteBlockTransformsPositions(t *testing.T) {
	s := doc("A", "B", "C")
	a := model.DeleteBlock(1)
	b := model.InsertText(model.Position{2, 0}, "X")
	out := assertConverges(t, s, a, b)
	assert.Equal(t, []string{"A", "XC"}, texts(out))
}
