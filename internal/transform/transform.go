package transform

import "github.com/rbitr/altdocs/internal/model"

// isStructural reports whether op can move another operation's
// positions/block indices — i.e. whether it changes the shape of the
// document rather than just the style/attributes of existing content.
func isStructural(t model.OpType) bool {
	switch t {
	case model.OpInsertText, model.OpDeleteText, model.OpSplitBlock, model.OpMergeBlock,
		model.OpInsertBlock, model.OpDeleteBlock:
		return true
	default:
		return false
	}
}

// cascade applies other's generic structural effect to op's own
// position/range/blockIndex fields. shiftOnTie controls tie-breaking at
// identical offsets for insert/split collisions; noop is set true when
// op's target block no longer exists.
func cascade(op model.Operation, other model.Operation, shiftOnTie bool) (result model.Operation, noop bool) {
	if !isStructural(other.Type) {
		return op, false
	}

	switch op.Type {
	case model.OpInsertText:
		p := transformPosition(*op.Position, other, shiftOnTie)
		op.Position = &p
	case model.OpSplitBlock:
		p := transformPosition(*op.Position, other, shiftOnTie)
		op.Position = &p
	case model.OpDeleteText, model.OpApplyFormatting, model.OpRemoveFormatting:
		r := transformRange(*op.Range, other)
		op.Range = &r
	case model.OpMergeBlock:
		idx, ok := TBlockIdx(op.BlockIndex, other)
		if !ok {
			return op, true
		}
		op.BlockIndex = idx
	case model.OpChangeBlockType, model.OpChangeBlockAlignment, model.OpSetIndent,
		model.OpSetImage, model.OpSetLineSpacing, model.OpDeleteBlock, model.OpSetTableData:
		idx, ok := TBlockIdx(op.BlockIndex, other)
		if !ok {
			return op, true
		}
		op.BlockIndex = idx
	case model.OpInsertBlock:
		op.AfterBlockIndex = TAfterBlockIdx(op.AfterBlockIndex, other)
	}
	return op, false
}

func transformPosition(pos model.Position, other model.Operation, shiftOnTie bool) model.Position {
	switch other.Type {
	case model.OpInsertText:
		return TPosVsInsert(pos, *other.Position, runeLen(other.Text), shiftOnTie)
	case model.OpDeleteText:
		return TPosVsDelete(pos, *other.Range)
	case model.OpSplitBlock:
		return TPosVsSplit(pos, *other.Position, shiftOnTie)
	case model.OpMergeBlock:
		return TPosVsMerge(pos, other.BlockIndex, other.MergeLength)
	case model.OpInsertBlock:
		return TPosVsInsertBlock(pos, other.AfterBlockIndex)
	case model.OpDeleteBlock:
		return TPosVsDeleteBlock(pos, other.BlockIndex)
	default:
		return pos
	}
}

func transformRange(r model.Range, other model.Operation) model.Range {
	r.Start = transformPosition(r.Start, other, false)
	r.End = transformPosition(r.End, other, true)
	return r
}

// TransformPair transforms the concurrent pair (a, b), both generated
// against the same base document, so that
//
//	apply(apply(S, a), b') == apply(apply(S, b), a')
//
// a carries priority: at an identical position it is treated as having
// happened "first".
func TransformPair(a, b model.Operation) (aPrime, bPrime model.Operation) {
	if special, ok := transformSpecialPair(a, b); ok {
		return special.a, special.b
	}

	// a has priority: on an exact tie it stays put (shiftOnTie=false) and
	// b is the one that shifts past it (shiftOnTie=true).
	var aNoop, bNoop bool
	aPrime, aNoop = cascade(a, b, false)
	bPrime, bNoop = cascade(b, a, true)
	if aNoop {
		aPrime = collapseToNoop(aPrime)
	}
	if bNoop {
		bPrime = collapseToNoop(bPrime)
	}
	return aPrime, bPrime
}

// TransformSingle rebases op against prior, an operation that has
// already been applied. It is equivalent to the second component of
// TransformPair(prior, op) — prior has priority.
func TransformSingle(op, prior model.Operation) model.Operation {
	_, opPrime := TransformPair(prior, op)
	return opPrime
}

// collapseToNoop turns an operation whose target block vanished into an
// observable no-op of the same operation family, so callers that only
// switch on Type keep working (apply() already treats out-of-range
// indices as no-ops, so a plain zeroed/invalid index would do too, but
// an explicit sentinel keeps intent clear for debugging/logging).
func collapseToNoop(op model.Operation) model.Operation {
	op.BlockIndex = -1
	op.AfterBlockIndex = -1
	return op
}
