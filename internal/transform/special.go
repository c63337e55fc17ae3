package transform

import "github.com/rbitr/altdocs/internal/model"

// pair is the result of a special-cased transform: a replaces the first
// operand, b the second, matching the (aPrime, bPrime) naming used by
// TransformPair.
type pair struct {
	a model.Operation
	b model.Operation
}

// sameBlockAttr reports whether t is one of the single-block attribute
// setters for which two concurrent ops on the same block must converge
// to one winner's value rather than just shifting each other's indices.
func sameBlockAttr(t model.OpType) bool {
	switch t {
	case model.OpChangeBlockType, model.OpChangeBlockAlignment, model.OpSetIndent,
		model.OpSetImage, model.OpSetLineSpacing, model.OpSetTableData:
		return true
	default:
		return false
	}
}

// transformSpecialPair handles the tie-break cases spec §4.2 calls out
// explicitly, where transforming each operand's position/range/index
// independently (cascade) is not enough to guarantee convergence: the
// operand's *value* (inserted text, block index, attribute payload) also
// has to change, or the generic per-field arithmetic produces two
// different orderings depending on apply order. Every other pair is left
// to cascade, which is already convergent on its own (verified against
// the worked examples in spec §8.5 while writing this).
func transformSpecialPair(a, b model.Operation) (pair, bool) {
	switch {
	case a.Type == model.OpInsertText && b.Type == model.OpDeleteText:
		aPrime, bPrime := transformInsertDelete(a, b)
		return pair{a: aPrime, b: bPrime}, true

	case a.Type == model.OpDeleteText && b.Type == model.OpInsertText:
		bPrime, aPrime := transformInsertDelete(b, a)
		return pair{a: aPrime, b: bPrime}, true

	case a.Type == model.OpMergeBlock && b.Type == model.OpMergeBlock && a.BlockIndex == b.BlockIndex:
		// A genuine duplicate merge: TransformPair's result is always
		// applied *second*, after the untransformed a or b already
		// performed the merge — so both primed versions must be no-ops,
		// not just one. (Priming only one and leaving the other as the
		// original index re-merges an unrelated pair of blocks when that
		// original is replayed against the already-merged document.)
		aNoop := a
		aNoop.BlockIndex = -1
		bNoop := b
		bNoop.BlockIndex = -1
		return pair{a: aNoop, b: bNoop}, true

	case a.Type == model.OpInsertBlock && b.Type == model.OpInsertBlock && a.AfterBlockIndex == b.AfterBlockIndex:
		// a (priority) keeps its target slot; b inserts immediately after
		// it instead of landing in the same slot in the opposite order.
		bShifted := b
		bShifted.AfterBlockIndex = b.AfterBlockIndex + 1
		return pair{a: a, b: bShifted}, true

	case a.Type == b.Type && a.BlockIndex == b.BlockIndex && sameBlockAttr(a.Type):
		// Concurrent attribute setters on the same block: both orders
		// converge on the priority operand's value by making b become a
		// copy of a.
		bCopy := a
		return pair{a: a, b: bCopy}, true

	default:
		return pair{}, false
	}
}

// transformInsertDelete resolves an insert_text/delete_text pair,
// independent of which one carries priority (spec §4.2's table does not
// condition this row on priority):
//
//   - pos at or before range.Start: the insert survives untouched, and
//     it is entirely to the left of the deleted span, so every range
//     endpoint in the insert's block shifts right by the insert's length
//     (End as well as Start when the range lies in that one block).
//   - pos strictly inside the range: the insert collapses to a
//     zero-length no-op at range.Start, and the range's end grows by
//     the insert's length so it still removes exactly the text that
//     was going to be removed.
//   - pos at or after range.End: the insert survives, its position
//     moved left past the deleted span (PosVsDelete), and the range is
//     unaffected, since the inserted text lands after whatever the
//     delete removes.
//
// The range never grows on the "pos == range.End" tie, and never grows
// by sliding its Start instead of its End on the "pos == range.Start"
// tie — a version of this that tried to reuse the generic per-endpoint
// insert transform independently on Start and End produced two
// different final documents depending on apply order (caught while
// deriving this function), because shifting only one endpoint lets the
// delete's width silently change.
func transformInsertDelete(ins, del model.Operation) (insPrime, delPrime model.Operation) {
	p := *ins.Position
	r := *del.Range
	l := runeLen(ins.Text)

	insPrime = ins
	delPrime = del
	newRange := r

	before := func() bool {
		if p.BlockIndex < r.Start.BlockIndex {
			return true
		}
		return p.BlockIndex == r.Start.BlockIndex && p.Offset <= r.Start.Offset
	}
	after := func() bool {
		if p.BlockIndex > r.End.BlockIndex {
			return true
		}
		return p.BlockIndex == r.End.BlockIndex && p.Offset >= r.End.Offset
	}

	switch {
	case before():
		// Insert lands before (or tied with) the range: unaffected, the
		// whole deleted span slides right with it.
		if r.Start.BlockIndex == p.BlockIndex {
			newRange.Start.Offset += l
		}
		if r.End.BlockIndex == p.BlockIndex {
			newRange.End.Offset += l
		}
	case after():
		// Insert lands after (or tied with) the range: unaffected, and
		// the range doesn't need to grow to reach it.
		newPos, _ := PosVsDelete(p, r)
		insPrime.Position = &newPos
	default:
		// Strictly inside: the insert never makes it into the
		// surviving document.
		insPrime.Position = &r.Start
		insPrime.Text = ""
		if p.BlockIndex == r.End.BlockIndex {
			newRange.End.Offset += l
		}
	}

	delPrime.Range = &newRange
	return insPrime, delPrime
}
