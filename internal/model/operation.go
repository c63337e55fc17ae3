package model

// OpType discriminates the Operation sum type (spec §3.6). We use a
// tagged struct with one optional payload group per variant rather than
// an interface + type assertions, so apply() and the OT engine can both
// dispatch with a single explicit switch instead of reflection.
type OpType string

const (
	OpInsertText           OpType = "insert_text"
	OpDeleteText           OpType = "delete_text"
	OpApplyFormatting      OpType = "apply_formatting"
	OpRemoveFormatting     OpType = "remove_formatting"
	OpSplitBlock           OpType = "split_block"
	OpMergeBlock           OpType = "merge_block"
	OpChangeBlockType      OpType = "change_block_type"
	OpChangeBlockAlignment OpType = "change_block_alignment"
	OpInsertBlock          OpType = "insert_block"
	OpSetIndent            OpType = "set_indent"
	OpSetImage             OpType = "set_image"
	OpSetLineSpacing       OpType = "set_line_spacing"
	OpDeleteBlock          OpType = "delete_block"
	OpSetTableData         OpType = "set_table_data"
)

// Operation is the single wire/in-memory representation of every edit
// variant. Only the fields relevant to Type are meaningful; the rest are
// left at their zero value. JSON field names mirror spec §3.6.
type Operation struct {
	Type OpType `json:"type"`

	Position *Position `json:"position,omitempty"` // insert_text, split_block
	Range    *Range     `json:"range,omitempty"`    // delete_text, apply_formatting, remove_formatting
	Text     string     `json:"text,omitempty"`     // insert_text
	Style    *TextStyle `json:"style,omitempty"`    // apply_formatting, remove_formatting

	BlockIndex int `json:"blockIndex,omitempty"` // merge_block, change_block_type/alignment, set_indent, set_image, set_line_spacing, delete_block, set_table_data

	NewType      BlockType `json:"newType,omitempty"`      // change_block_type
	NewAlignment Alignment `json:"newAlignment,omitempty"` // change_block_alignment

	AfterBlockIndex int       `json:"afterBlockIndex,omitempty"` // insert_block
	BlockType       BlockType `json:"blockType,omitempty"`       // insert_block

	IndentLevel int `json:"indentLevel,omitempty"` // set_indent

	ImageURL string `json:"imageUrl,omitempty"` // set_image

	LineSpacing LineSpacing `json:"lineSpacing,omitempty"` // set_line_spacing

	TableData [][]TableCell `json:"tableData,omitempty"` // set_table_data

	// MergeLength is the rune-length of the preceding block's runs
	// immediately before a merge_block takes effect. It is not set by
	// clients; the room stamps it in when an op is applied, so that
	// later transforms against this history entry can place positions
	// from the merged-away block correctly (see internal/transform).
	MergeLength int `json:"mergeLength,omitempty"` // merge_block
}

// Constructors below exist purely for readability at call sites (tests,
// the OT engine); Operation itself has no invariants that require them.

func InsertText(pos Position, text string) Operation {
	return Operation{Type: OpInsertText, Position: &pos, Text: text}
}

func DeleteText(r Range) Operation {
	return Operation{Type: OpDeleteText, Range: &r}
}

func ApplyFormatting(r Range, style TextStyle) Operation {
	return Operation{Type: OpApplyFormatting, Range: &r, Style: &style}
}

func RemoveFormatting(r Range, style TextStyle) Operation {
	return Operation{Type: OpRemoveFormatting, Range: &r, Style: &style}
}

func SplitBlock(pos Position) Operation {
	return Operation{Type: OpSplitBlock, Position: &pos}
}

func MergeBlock(blockIndex int) Operation {
	return Operation{Type: OpMergeBlock, BlockIndex: blockIndex}
}

func ChangeBlockType(blockIndex int, t BlockType) Operation {
	return Operation{Type: OpChangeBlockType, BlockIndex: blockIndex, NewType: t}
}

func ChangeBlockAlignment(blockIndex int, a Alignment) Operation {
	return Operation{Type: OpChangeBlockAlignment, BlockIndex: blockIndex, NewAlignment: a}
}

func InsertBlock(afterBlockIndex int, t BlockType) Operation {
	return Operation{Type: OpInsertBlock, AfterBlockIndex: afterBlockIndex, BlockType: t}
}

func SetIndent(blockIndex, level int) Operation {
	return Operation{Type: OpSetIndent, BlockIndex: blockIndex, IndentLevel: level}
}

func SetImage(blockIndex int, url string) Operation {
	return Operation{Type: OpSetImage, BlockIndex: blockIndex, ImageURL: url}
}

func SetLineSpacing(blockIndex int, ls LineSpacing) Operation {
	return Operation{Type: OpSetLineSpacing, BlockIndex: blockIndex, LineSpacing: ls}
}

func DeleteBlock(blockIndex int) Operation {
	return Operation{Type: OpDeleteBlock, BlockIndex: blockIndex}
}

func SetTableData(blockIndex int, data [][]TableCell) Operation {
	return Operation{Type: OpSetTableData, BlockIndex: blockIndex, TableData: data}
}
