package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbitr/altdocs/internal/model"
)

func block(id string, t model.BlockType, text string) model.Block {
	return model.Block{ID: id, Type: t, Alignment: model.AlignLeft, Runs: []model.TextRun{{Text: text}}}
}

func TestToMarkdownHeadingsAndParagraph(t *testing.T) {
	doc := model.Document{
		ID:    "doc1",
		Title: "Title",
		Blocks: []model.Block{
			block("b1", model.BlockHeading1, "Intro"),
			block("b2", model.BlockParagraph, "hello world"),
		},
	}
	md := ToMarkdown(doc)
	assert.Contains(t, md, "# Intro")
	assert.Contains(t, md, "hello world")
}

func TestToMarkdownAppliesInlineStyles(t *testing.T) {
	doc := model.Document{
		ID: "doc1",
		Blocks: []model.Block{
			{
				ID:        "b1",
				Type:      model.BlockParagraph,
				Alignment: model.AlignLeft,
				Runs: []model.TextRun{
					{Text: "bold", Style: model.TextStyle{Bold: true}},
					{Text: " and ", Style: model.TextStyle{}},
					{Text: "code", Style: model.TextStyle{Code: true}},
				},
			},
		},
	}
	md := ToMarkdown(doc)
	assert.Contains(t, md, "**bold**")
	assert.Contains(t, md, "`code`")
}

func TestToMarkdownCodeBlockAndRule(t *testing.T) {
	doc := model.Document{
		ID: "doc1",
		Blocks: []model.Block{
			block("b1", model.BlockCode, "x := 1"),
			block("b2", model.BlockHorizontalRule, ""),
		},
	}
	md := ToMarkdown(doc)
	assert.Contains(t, md, "```\nx := 1\n```")
	assert.Contains(t, md, "---")
}

func TestTableOfContentsProducesSlugsAndDedupes(t *testing.T) {
	md := "# Overview\n\nsome text\n\n## Details\n\nmore text\n\n# Overview\n"
	toc := TableOfContents(md)
	require.Len(t, toc, 3)
	assert.Equal(t, "Overview", toc[0].Text)
	assert.Equal(t, "overview", toc[0].Anchor)
	assert.Equal(t, 1, toc[0].Level)
	assert.Equal(t, "details", toc[1].Anchor)
	assert.Equal(t, 2, toc[1].Level)
	assert.Equal(t, "overview-1", toc[2].Anchor)
}

func TestTableOfContentsNoHeadings(t *testing.T) {
	toc := TableOfContents("just a paragraph, no headings here")
	assert.Empty(t, toc)
}
