// Package transform implements the operational-transform engine: the
// transformPair/transformSingle function pair and the position-transform
// primitives spec §4.2 defines them in terms of. Every function here is
// pure — it returns transformed values and never mutates its arguments.
package transform

import "github.com/rbitr/altdocs/internal/model"

// TPosVsInsert transforms pos against a concurrent insert_text of the
// given length at insertPos. Positions on a different block are
// untouched. shiftOnTie breaks a tie at identical offsets: true means
// pos is pushed past the inserted text.
func TPosVsInsert(pos model.Position, insertPos model.Position, textLen int, shiftOnTie bool) model.Position {
	if pos.BlockIndex != insertPos.BlockIndex {
		return pos
	}
	if pos.Offset < insertPos.Offset {
		return pos
	}
	if pos.Offset == insertPos.Offset && !shiftOnTie {
		return pos
	}
	pos.Offset += textLen
	return pos
}

// TPosVsDelete transforms pos against a concurrent delete_text over r,
// which may span multiple blocks. Positions strictly inside the deleted
// span collapse to r.Start; positions after it shift left.
func TPosVsDelete(pos model.Position, r model.Range) model.Position {
	newPos, _ := PosVsDelete(pos, r)
	return newPos
}

// PosVsDelete is TPosVsDelete's detailed form: it additionally reports
// whether pos fell strictly inside the deleted span ("swallowed"), which
// the insert_text-vs-delete_text transform needs to decide whether an
// insert survives or collapses to a no-op (spec §4.2 tie-break table).
func PosVsDelete(pos model.Position, r model.Range) (result model.Position, swallowed bool) {
	switch {
	case pos.BlockIndex < r.Start.BlockIndex:
		return pos, false
	case pos.BlockIndex > r.End.BlockIndex:
		pos.BlockIndex -= r.End.BlockIndex - r.Start.BlockIndex
		return pos, false
	case r.Start.BlockIndex == r.End.BlockIndex:
		// Single-block delete.
		if pos.BlockIndex != r.Start.BlockIndex {
			return pos, false
		}
		switch {
		case pos.Offset <= r.Start.Offset:
			return pos, false
		case pos.Offset < r.End.Offset:
			return r.Start, true
		default:
			pos.Offset -= r.End.Offset - r.Start.Offset
			return pos, false
		}
	case pos.BlockIndex == r.Start.BlockIndex:
		if pos.Offset <= r.Start.Offset {
			return pos, false
		}
		return r.Start, true
	case pos.BlockIndex == r.End.BlockIndex:
		if pos.Offset < r.End.Offset {
			return r.Start, true
		}
		return model.Position{BlockIndex: r.Start.BlockIndex, Offset: r.Start.Offset + (pos.Offset - r.End.Offset)}, false
	default:
		// Strictly inside the wholly deleted middle blocks.
		return r.Start, true
	}
}

// TPosVsSplit transforms pos against a concurrent split_block at
// splitPos. shiftOnTie breaks a tie at the exact split offset: true
// means pos moves into the new, second block.
func TPosVsSplit(pos model.Position, splitPos model.Position, shiftOnTie bool) model.Position {
	switch {
	case pos.BlockIndex < splitPos.BlockIndex:
		return pos
	case pos.BlockIndex > splitPos.BlockIndex:
		pos.BlockIndex++
		return pos
	default:
		switch {
		case pos.Offset < splitPos.Offset:
			return pos
		case pos.Offset == splitPos.Offset && !shiftOnTie:
			return pos
		default:
			return model.Position{BlockIndex: pos.BlockIndex + 1, Offset: pos.Offset - splitPos.Offset}
		}
	}
}

// TPosVsMerge transforms pos against a concurrent merge_block(mergeIdx)
// that merged block mergeIdx into block mergeIdx-1. prevLen is the
// rune-length of block mergeIdx-1's runs immediately before the merge —
// the room records it on every merge_block operation it applies (see
// internal/room), so transforms downstream of that history entry can
// place positions from the merged-away block correctly instead of
// guessing at offset 0.
func TPosVsMerge(pos model.Position, mergeIdx, prevLen int) model.Position {
	switch {
	case pos.BlockIndex < mergeIdx-1:
		return pos
	case pos.BlockIndex == mergeIdx-1:
		return pos
	case pos.BlockIndex == mergeIdx:
		return model.Position{BlockIndex: mergeIdx - 1, Offset: prevLen + pos.Offset}
	default:
		pos.BlockIndex--
		return pos
	}
}

// TPosVsInsertBlock transforms pos against a concurrent insert_block
// after afterIdx.
func TPosVsInsertBlock(pos model.Position, afterIdx int) model.Position {
	if pos.BlockIndex > afterIdx {
		pos.BlockIndex++
	}
	return pos
}

// TPosVsDeleteBlock transforms pos against a concurrent delete_block at
// delIdx. A position on the deleted block collapses to offset 0 of the
// block that now occupies its slot.
func TPosVsDeleteBlock(pos model.Position, delIdx int) model.Position {
	switch {
	case pos.BlockIndex < delIdx:
		return pos
	case pos.BlockIndex == delIdx:
		return model.Position{BlockIndex: delIdx, Offset: 0}
	default:
		pos.BlockIndex--
		return pos
	}
}

// TBlockIdx transforms a scalar block index against a concurrent
// structural operation. ok is false when the index denoted a block that
// no longer exists (it was deleted outright) — callers turn the
// containing operation into a no-op in that case.
func TBlockIdx(idx int, other model.Operation) (result int, ok bool) {
	switch other.Type {
	case model.OpSplitBlock:
		if other.Position == nil {
			return idx, true
		}
		if idx > other.Position.BlockIndex {
			return idx + 1, true
		}
		return idx, true
	case model.OpMergeBlock:
		switch {
		case idx == other.BlockIndex:
			return other.BlockIndex - 1, true
		case idx > other.BlockIndex:
			return idx - 1, true
		default:
			return idx, true
		}
	case model.OpInsertBlock:
		if idx > other.AfterBlockIndex {
			return idx + 1, true
		}
		return idx, true
	case model.OpDeleteBlock:
		switch {
		case idx == other.BlockIndex:
			return 0, false
		case idx > other.BlockIndex:
			return idx - 1, true
		default:
			return idx, true
		}
	default:
		return idx, true
	}
}

// TAfterBlockIdx transforms an insert_block's afterBlockIndex (which may
// legitimately be -1) against a concurrent structural operation. Unlike
// TBlockIdx it never reports "no longer exists": inserting after a block
// that was concurrently deleted degrades to inserting after that block's
// former predecessor, which always exists.
func TAfterBlockIdx(idx int, other model.Operation) int {
	switch other.Type {
	case model.OpSplitBlock:
		if other.Position != nil && idx > other.Position.BlockIndex {
			return idx + 1
		}
		return idx
	case model.OpMergeBlock:
		switch {
		case idx == other.BlockIndex:
			return other.BlockIndex - 1
		case idx > other.BlockIndex:
			return idx - 1
		default:
			return idx
		}
	case model.OpInsertBlock:
		if idx > other.AfterBlockIndex {
			return idx + 1
		}
		return idx
	case model.OpDeleteBlock:
		switch {
		case idx == other.BlockIndex:
			return other.BlockIndex - 1
		case idx > other.BlockIndex:
			return idx - 1
		default:
			return idx
		}
	default:
		return idx
	}
}

func runeLen(s string) int { return len([]rune(s)) }
