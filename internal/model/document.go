// Package model defines the block-structured document and the pure
// apply(doc, op) function. Nothing in this package mutates its inputs:
// every exported function returns a new value and leaves its arguments
// untouched, so the OT engine and the room can reason about documents
// by value.
package model

import (
	"fmt"
	"sync/atomic"
	"time"
)

// BlockType enumerates the block variants a document can contain.
type BlockType string

const (
	BlockParagraph     BlockType = "paragraph"
	BlockHeading1      BlockType = "heading1"
	BlockHeading2      BlockType = "heading2"
	BlockHeading3      BlockType = "heading3"
	BlockBulletItem    BlockType = "bullet-list-item"
	BlockNumberedItem  BlockType = "numbered-list-item"
	BlockQuote         BlockType = "blockquote"
	BlockCode          BlockType = "code-block"
	BlockHorizontalRule BlockType = "horizontal-rule"
	BlockImage         BlockType = "image"
	BlockTable         BlockType = "table"
)

// Alignment is the paragraph-level text alignment of a block.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// LineSpacing is restricted to the discrete values the editor exposes.
type LineSpacing float64

const (
	LineSpacingSingle      LineSpacing = 1.0
	LineSpacingSlight      LineSpacing = 1.15
	LineSpacingOneAndHalf  LineSpacing = 1.5
	LineSpacingDouble      LineSpacing = 2.0
)

// TextStyle carries the independent, optional run attributes. Every field
// is a plain value whose zero value means "not set"; a false boolean and
// an unset one are the same.
type TextStyle struct {
	Bold            bool `json:"bold,omitempty"`
	Italic          bool `json:"italic,omitempty"`
	Underline       bool `json:"underline,omitempty"`
	Strikethrough   bool `json:"strikethrough,omitempty"`
	Code            bool `json:"code,omitempty"`
	FontSize        float64 `json:"fontSize,omitempty"`
	FontFamily      string  `json:"fontFamily,omitempty"`
	Color           string  `json:"color,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
}

// Equal reports whether two styles carry the same attribute values,
// treating zero values as equal to "unset" for every field (spec §4.1
// Normalize: "undefined and false/missing are equal for booleans" — we
// extend that same equivalence to the other attributes for merge
// purposes, since a zero-value float/string never distinguishes a real
// edit from an absent one in this model).
func (s TextStyle) Equal(o TextStyle) bool {
	return s == o
}

// TextRun is a maximal contiguous run of text sharing one style.
type TextRun struct {
	Text  string    `json:"text"`
	Style TextStyle `json:"style"`
}

// TableCell holds the runs for one cell of a table block.
type TableCell struct {
	Runs []TextRun `json:"runs"`
}

// Block is one addressable unit of a document.
type Block struct {
	ID          string      `json:"id"`
	Type        BlockType   `json:"type"`
	Alignment   Alignment   `json:"alignment"`
	IndentLevel int         `json:"indentLevel"`
	LineSpacing *LineSpacing `json:"lineSpacing,omitempty"`
	Runs        []TextRun   `json:"runs"`
	ImageURL    *string     `json:"imageUrl,omitempty"`
	TableData   [][]TableCell `json:"tableData,omitempty"`
}

// Document is an ordered sequence of blocks plus identity.
type Document struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Position addresses an offset inside the concatenated run text of one block.
type Position struct {
	BlockIndex int `json:"blockIndex"`
	Offset     int `json:"offset"`
}

// Range is a half-open [Start, End) span across one or more blocks.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// sentinelRun is restored whenever normalization would otherwise leave a
// block (or cell) with zero runs.
func sentinelRun() TextRun { return TextRun{Text: "", Style: TextStyle{}} }

// emptyParagraph returns a single blank paragraph block, used whenever a
// document would otherwise be left with zero blocks.
func emptyParagraph(id string) Block {
	return Block{
		ID:        id,
		Type:      BlockParagraph,
		Alignment: AlignLeft,
		Runs:      []TextRun{sentinelRun()},
	}
}

// blockIDCounter is the process-wide, test-resettable monotonic counter
// backing NewBlockID. Kept private: callers only ever see the generator
// and the reset hook, per spec §4.1 and §9.
var blockIDCounter atomic.Uint64

// ResetBlockIDCounter resets the block-ID generator. Tests call this at
// the start of every run so generated IDs are deterministic.
func ResetBlockIDCounter() {
	blockIDCounter.Store(0)
}

// NewBlockID returns a block identifier unique within the process
// lifetime: a coarse timestamp combined with a monotonically increasing
// counter. The exact format is not part of the contract (spec §4.1).
func NewBlockID() string {
	n := blockIDCounter.Add(1)
	return fmt.Sprintf("blk_%d_%d", time.Now().UnixNano()/1_000_000, n)
}

// Clone returns a deep copy of the document. apply() never mutates its
// input; callers that need to retain the pre-apply document (e.g. for
// undo or for comparing against a concurrent transform) can rely on this.
func (d Document) Clone() Document {
	out := Document{ID: d.ID, Title: d.Title, Blocks: make([]Block, len(d.Blocks))}
	for i, b := range d.Blocks {
		out.Blocks[i] = b.Clone()
	}
	return out
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	out := b
	out.Runs = make([]TextRun, len(b.Runs))
	copy(out.Runs, b.Runs)
	if b.ImageURL != nil {
		u := *b.ImageURL
		out.ImageURL = &u
	}
	if b.LineSpacing != nil {
		ls := *b.LineSpacing
		out.LineSpacing = &ls
	}
	if b.TableData != nil {
		out.TableData = make([][]TableCell, len(b.TableData))
		for r, row := range b.TableData {
			out.TableData[r] = make([]TableCell, len(row))
			for c, cell := range row {
				cellRuns := make([]TextRun, len(cell.Runs))
				copy(cellRuns, cell.Runs)
				out.TableData[r][c] = TableCell{Runs: cellRuns}
			}
		}
	}
	return out
}

// Text concatenates the run text of a block; offsets in Position/Range
// are measured against this string (spec §3.4: UTF-16-style code units,
// which for our purposes we treat as UTF-8 byte-agnostic rune counts
// applied uniformly by every op in this package).
func (b Block) Text() string {
	var sb []rune
	for _, r := range b.Runs {
		sb = append(sb, []rune(r.Text)...)
	}
	return string(sb)
}

// runeLen returns the rune-count length of a block's text.
func (b Block) runeLen() int {
	n := 0
	for _, r := range b.Runs {
		n += len([]rune(r.Text))
	}
	return n
}

// defaultTableData builds the 2x2 blank cell matrix new table blocks start with.
func defaultTableData() [][]TableCell {
	rows := make([][]TableCell, 2)
	for r := range rows {
		rows[r] = make([]TableCell, 2)
		for c := range rows[r] {
			rows[r][c] = TableCell{Runs: []TextRun{sentinelRun()}}
		}
	}
	return rows
}

// NewBlankBlock constructs a new, empty block of the given type,
// inserting the sentinel run (and, for tables, the default matrix).
func NewBlankBlock(id string, t BlockType) Block {
	b := Block{
		ID:        id,
		Type:      t,
		Alignment: AlignLeft,
		Runs:      []TextRun{sentinelRun()},
	}
	if t == BlockTable {
		b.TableData = defaultTableData()
	}
	return b
}

// NewDocument builds a fresh document containing a single empty paragraph.
func NewDocument(id, title string) Document {
	return Document{
		ID:     id,
		Title:  title,
		Blocks: []Block{emptyParagraph(NewBlockID())},
	}
}
