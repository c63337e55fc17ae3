// Package export renders a document to Markdown. It is a read-only
// projection (spec §C.1): it does not participate in OT and carries no
// invariant beyond idempotence — rendering the same document twice
// produces the same text.
package export

import (
	"fmt"
	"strings"

	"github.com/russross/blackfriday"
	"github.com/shurcooL/sanitized_anchor_name"

	"github.com/rbitr/altdocs/internal/model"
)

// ToMarkdown renders doc as GitHub-flavored Markdown.
func ToMarkdown(doc model.Document) string {
	var sb strings.Builder
	for i, b := range doc.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeBlock(&sb, b)
	}
	return sb.String()
}

func writeBlock(sb *strings.Builder, b model.Block) {
	switch b.Type {
	case model.BlockHeading1:
		sb.WriteString("# " + runsToMarkdown(b.Runs) + "\n")
	case model.BlockHeading2:
		sb.WriteString("## " + runsToMarkdown(b.Runs) + "\n")
	case model.BlockHeading3:
		sb.WriteString("### " + runsToMarkdown(b.Runs) + "\n")
	case model.BlockBulletItem:
		sb.WriteString("- " + runsToMarkdown(b.Runs) + "\n")
	case model.BlockNumberedItem:
		sb.WriteString("1. " + runsToMarkdown(b.Runs) + "\n")
	case model.BlockQuote:
		sb.WriteString("> " + runsToMarkdown(b.Runs) + "\n")
	case model.BlockCode:
		sb.WriteString("```\n" + b.Text() + "\n```\n")
	case model.BlockHorizontalRule:
		sb.WriteString("---\n")
	case model.BlockImage:
		url := ""
		if b.ImageURL != nil {
			url = *b.ImageURL
		}
		sb.WriteString(fmt.Sprintf("![](%s)\n", url))
	case model.BlockTable:
		writeTable(sb, b.TableData)
	default:
		sb.WriteString(runsToMarkdown(b.Runs) + "\n")
	}
}

func writeTable(sb *strings.Builder, rows [][]model.TableCell) {
	if len(rows) == 0 {
		return
	}
	writeRow := func(row []model.TableCell) {
		sb.WriteString("|")
		for _, cell := range row {
			sb.WriteString(" " + runsToMarkdown(cell.Runs) + " |")
		}
		sb.WriteString("\n")
	}
	writeRow(rows[0])
	sb.WriteString("|")
	for range rows[0] {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
}

func runsToMarkdown(runs []model.TextRun) string {
	var sb strings.Builder
	for _, r := range runs {
		text := r.Text
		switch {
		case r.Style.Code:
			text = "`" + text + "`"
		case r.Style.Bold && r.Style.Italic:
			text = "***" + text + "***"
		case r.Style.Bold:
			text = "**" + text + "**"
		case r.Style.Italic:
			text = "*" + text + "*"
		}
		if r.Style.Strikethrough {
			text = "~~" + text + "~~"
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// TOCEntry is one heading discovered in a rendered document.
type TOCEntry struct {
	Level  int
	Text   string
	Anchor string
}

// TableOfContents parses markdown with blackfriday (the same extension
// set blackfriday's own HeadingIDs feature uses) and walks its heading
// nodes, producing a table of contents with sanitized_anchor_name slugs —
// the library blackfriday itself delegates to for HeadingIDs, so these
// anchors match what a renderer using that extension would emit.
func TableOfContents(markdown string) []TOCEntry {
	const extensions = blackfriday.NoIntraEmphasis |
		blackfriday.FencedCode |
		blackfriday.Autolink |
		blackfriday.Strikethrough |
		blackfriday.HeadingIDs

	md := blackfriday.New(blackfriday.WithExtensions(extensions))
	doc := md.Parse([]byte(markdown))

	var entries []TOCEntry
	seen := make(map[string]int)
	doc.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if !entering || n.Type != blackfriday.Heading {
			return blackfriday.GoToNext
		}
		text := headingText(n)
		anchor := sanitized_anchor_name.Create(text)
		if count := seen[anchor]; count > 0 {
			anchor = fmt.Sprintf("%s-%d", anchor, count)
		}
		seen[anchor]++
		entries = append(entries, TOCEntry{Level: n.HeadingData.Level, Text: text, Anchor: anchor})
		return blackfriday.SkipChildren
	})
	return entries
}

func headingText(n *blackfriday.Node) string {
	var sb strings.Builder
	n.Walk(func(child *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if entering && child.Type == blackfriday.Text {
			sb.Write(child.Literal)
		}
		return blackfriday.GoToNext
	})
	return sb.String()
}
