package model

// Apply is the pure apply(doc, op) -> doc function (spec §4.1). It never
// mutates doc; out-of-range or otherwise malformed operations return doc
// unchanged (a structural clone, so callers never alias the input).
func Apply(doc Document, op Operation) Document {
	switch op.Type {
	case OpInsertText:
		return applyInsertText(doc, op)
	case OpDeleteText:
		return applyDeleteText(doc, op)
	case OpApplyFormatting:
		return applyFormattingOp(doc, op, setFormatting)
	case OpRemoveFormatting:
		return applyFormattingOp(doc, op, clearFormatting)
	case OpSplitBlock:
		return applySplitBlock(doc, op)
	case OpMergeBlock:
		return applyMergeBlock(doc, op)
	case OpChangeBlockType:
		return applyChangeBlockType(doc, op)
	case OpChangeBlockAlignment:
		return applyChangeBlockAlignment(doc, op)
	case OpInsertBlock:
		return applyInsertBlock(doc, op)
	case OpSetIndent:
		return applySetIndent(doc, op)
	case OpSetImage:
		return applySetImage(doc, op)
	case OpSetLineSpacing:
		return applySetLineSpacing(doc, op)
	case OpDeleteBlock:
		return applyDeleteBlock(doc, op)
	case OpSetTableData:
		return applySetTableData(doc, op)
	default:
		return doc.Clone()
	}
}

func validBlockIndex(doc Document, idx int) bool {
	return idx >= 0 && idx < len(doc.Blocks)
}

func applyInsertText(doc Document, op Operation) Document {
	out := doc.Clone()
	if op.Position == nil || !validBlockIndex(out, op.Position.BlockIndex) {
		return out
	}
	b := &out.Blocks[op.Position.BlockIndex]
	if op.Position.Offset < 0 || op.Position.Offset > b.runeLen() {
		return out
	}
	b.Runs = insertTextIntoRuns(b.Runs, op.Position.Offset, op.Text)
	return out
}

func applyDeleteText(doc Document, op Operation) Document {
	out := doc.Clone()
	if op.Range == nil {
		return out
	}
	r := *op.Range
	if !validBlockIndex(out, r.Start.BlockIndex) || !validBlockIndex(out, r.End.BlockIndex) {
		return out
	}
	if r.End.BlockIndex < r.Start.BlockIndex {
		return out
	}
	if r.Start.BlockIndex == r.End.BlockIndex {
		b := &out.Blocks[r.Start.BlockIndex]
		n := b.runeLen()
		start, end := r.Start.Offset, r.End.Offset
		if start < 0 || end < start || end > n {
			return out
		}
		b.Runs = deleteRangeFromRuns(b.Runs, start, end)
		return out
	}

	startBlock := out.Blocks[r.Start.BlockIndex]
	endBlock := out.Blocks[r.End.BlockIndex]
	if r.Start.Offset < 0 || r.Start.Offset > startBlock.runeLen() {
		return doc.Clone()
	}
	if r.End.Offset < 0 || r.End.Offset > endBlock.runeLen() {
		return doc.Clone()
	}

	keepBefore, _ := SplitRunsAt(startBlock.Runs, r.Start.Offset)
	_, keepAfter := SplitRunsAt(endBlock.Runs, r.End.Offset)

	merged := Normalize(append(append([]TextRun(nil), keepBefore...), keepAfter...))
	out.Blocks[r.Start.BlockIndex].Runs = merged
	out.Blocks = append(out.Blocks[:r.Start.BlockIndex+1], out.Blocks[r.End.BlockIndex+1:]...)
	return out
}

func applyFormattingOp(doc Document, op Operation, combine func(TextStyle, TextStyle) TextStyle) Document {
	out := doc.Clone()
	if op.Range == nil || op.Style == nil {
		return out
	}
	r := *op.Range
	if !validBlockIndex(out, r.Start.BlockIndex) || !validBlockIndex(out, r.End.BlockIndex) || r.End.BlockIndex < r.Start.BlockIndex {
		return out
	}
	patch := *op.Style
	for bi := r.Start.BlockIndex; bi <= r.End.BlockIndex; bi++ {
		b := &out.Blocks[bi]
		n := b.runeLen()
		start := 0
		end := n
		if bi == r.Start.BlockIndex {
			start = r.Start.Offset
		}
		if bi == r.End.BlockIndex {
			end = r.End.Offset
		}
		if start < 0 {
			start = 0
		}
		if end > n {
			end = n
		}
		if end < start {
			continue
		}
		b.Runs = ApplyFormattingToRange(b.Runs, start, end, func(s TextStyle) TextStyle {
			return combine(s, patch)
		})
	}
	return out
}

func applySplitBlock(doc Document, op Operation) Document {
	out := doc.Clone()
	if op.Position == nil || !validBlockIndex(out, op.Position.BlockIndex) {
		return out
	}
	idx := op.Position.BlockIndex
	b := out.Blocks[idx]
	off := op.Position.Offset
	if off < 0 || off > b.runeLen() {
		return out
	}
	before, after := SplitRunsAt(b.Runs, off)

	origin := out.Blocks[idx]
	out.Blocks[idx].Runs = Normalize(before)

	newBlock := Block{
		ID:          NewBlockID(),
		Type:        BlockParagraph,
		Alignment:   origin.Alignment,
		IndentLevel: origin.IndentLevel,
		Runs:        Normalize(after),
	}
	if origin.LineSpacing != nil {
		ls := *origin.LineSpacing
		newBlock.LineSpacing = &ls
	}

	rest := make([]Block, 0, len(out.Blocks)-idx)
	rest = append(rest, newBlock)
	rest = append(rest, out.Blocks[idx+1:]...)
	out.Blocks = append(out.Blocks[:idx+1], rest...)
	return out
}

func applyMergeBlock(doc Document, op Operation) Document {
	out := doc.Clone()
	idx := op.BlockIndex
	if idx <= 0 || idx >= len(out.Blocks) {
		return out
	}
	prev := &out.Blocks[idx-1]
	cur := out.Blocks[idx]
	prev.Runs = Normalize(append(append([]TextRun(nil), prev.Runs...), cur.Runs...))
	out.Blocks = append(out.Blocks[:idx], out.Blocks[idx+1:]...)
	return out
}

func applyChangeBlockType(doc Document, op Operation) Document {
	out := doc.Clone()
	if !validBlockIndex(out, op.BlockIndex) {
		return out
	}
	out.Blocks[op.BlockIndex].Type = op.NewType
	if op.NewType == BlockTable && out.Blocks[op.BlockIndex].TableData == nil {
		out.Blocks[op.BlockIndex].TableData = defaultTableData()
	}
	return out
}

func applyChangeBlockAlignment(doc Document, op Operation) Document {
	out := doc.Clone()
	if !validBlockIndex(out, op.BlockIndex) {
		return out
	}
	out.Blocks[op.BlockIndex].Alignment = op.NewAlignment
	return out
}

func applyInsertBlock(doc Document, op Operation) Document {
	out := doc.Clone()
	if op.AfterBlockIndex < -1 || op.AfterBlockIndex > len(out.Blocks)-1 {
		return out
	}
	nb := NewBlankBlock(NewBlockID(), op.BlockType)
	at := op.AfterBlockIndex + 1
	blocks := make([]Block, 0, len(out.Blocks)+1)
	blocks = append(blocks, out.Blocks[:at]...)
	blocks = append(blocks, nb)
	blocks = append(blocks, out.Blocks[at:]...)
	out.Blocks = blocks
	return out
}

func applySetIndent(doc Document, op Operation) Document {
	out := doc.Clone()
	if !validBlockIndex(out, op.BlockIndex) {
		return out
	}
	lvl := op.IndentLevel
	if lvl < 0 {
		lvl = 0
	}
	if lvl > 8 {
		lvl = 8
	}
	out.Blocks[op.BlockIndex].IndentLevel = lvl
	return out
}

func applySetImage(doc Document, op Operation) Document {
	out := doc.Clone()
	if !validBlockIndex(out, op.BlockIndex) {
		return out
	}
	b := &out.Blocks[op.BlockIndex]
	if b.Type != BlockImage {
		return out
	}
	url := op.ImageURL
	b.ImageURL = &url
	return out
}

func applySetLineSpacing(doc Document, op Operation) Document {
	out := doc.Clone()
	if !validBlockIndex(out, op.BlockIndex) {
		return out
	}
	ls := op.LineSpacing
	out.Blocks[op.BlockIndex].LineSpacing = &ls
	return out
}

func applyDeleteBlock(doc Document, op Operation) Document {
	out := doc.Clone()
	if !validBlockIndex(out, op.BlockIndex) {
		return out
	}
	if len(out.Blocks) == 1 {
		out.Blocks[0] = emptyParagraph(NewBlockID())
		return out
	}
	out.Blocks = append(out.Blocks[:op.BlockIndex], out.Blocks[op.BlockIndex+1:]...)
	return out
}

func applySetTableData(doc Document, op Operation) Document {
	out := doc.Clone()
	if !validBlockIndex(out, op.BlockIndex) {
		return out
	}
	if !isRectangular(op.TableData) {
		return out
	}
	b := &out.Blocks[op.BlockIndex]
	if b.Type != BlockTable {
		return out
	}
	cloned := make([][]TableCell, len(op.TableData))
	for r, row := range op.TableData {
		cloned[r] = make([]TableCell, len(row))
		for c, cell := range row {
			runs := cell.Runs
			if len(runs) == 0 {
				runs = []TextRun{sentinelRun()}
			}
			cp := make([]TextRun, len(runs))
			copy(cp, runs)
			cloned[r][c] = TableCell{Runs: cp}
		}
	}
	b.TableData = cloned
	return out
}

func isRectangular(data [][]TableCell) bool {
	if len(data) == 0 {
		return false
	}
	width := len(data[0])
	if width == 0 {
		return false
	}
	for _, row := range data {
		if len(row) != width {
			return false
		}
	}
	return true
}
