package model

import "golang.org/x/exp/slices"

// Normalize drops zero-length runs and merges adjacent runs of equal
// style, restoring the sentinel run if the result would otherwise be
// empty (spec §3.2 invariants, §4.1 "Normalize").
func Normalize(runs []TextRun) []TextRun {
	out := make([]TextRun, 0, len(runs))
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Style.Equal(r.Style) {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return []TextRun{sentinelRun()}
	}
	return out
}

// SplitRunsAt splits a run slice at a rune offset into the concatenated
// text, preserving style boundaries: splitting inside a run yields two
// runs of that run's style, and splitting exactly at a run boundary
// creates no zero-length runs on either side.
func SplitRunsAt(runs []TextRun, offset int) (before, after []TextRun) {
	if offset <= 0 {
		return nil, append([]TextRun(nil), runs...)
	}
	pos := 0
	for i, r := range runs {
		rl := len([]rune(r.Text))
		if pos+rl <= offset {
			before = append(before, r)
			pos += rl
			continue
		}
		// offset falls inside this run (or exactly at its end, handled above).
		local := offset - pos
		runeText := []rune(r.Text)
		if local > 0 {
			before = append(before, TextRun{Text: string(runeText[:local]), Style: r.Style})
		}
		if local < rl {
			after = append(after, TextRun{Text: string(runeText[local:]), Style: r.Style})
		}
		after = append(after, runs[i+1:]...)
		return before, after
	}
	// offset >= total length: everything goes before.
	return append([]TextRun(nil), runs...), nil
}

// runeText returns runs as a single rune slice, used by insert/delete
// arithmetic that needs random access by rune offset.
func runeText(runs []TextRun) []rune {
	var out []rune
	for _, r := range runs {
		out = append(out, []rune(r.Text)...)
	}
	return out
}

// insertTextIntoRuns inserts text at a rune offset, inheriting the style
// of the run containing that offset. At a boundary it inherits the
// style of the run that starts there (right-biased), per spec §4.1.
func insertTextIntoRuns(runs []TextRun, offset int, text string) []TextRun {
	if text == "" {
		return append([]TextRun(nil), runs...)
	}
	total := 0
	for _, r := range runs {
		total += len([]rune(r.Text))
	}
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}

	style := TextStyle{}
	if len(runs) > 0 {
		style = runs[len(runs)-1].Style
	}
	pos := 0
	for _, r := range runs {
		rl := len([]rune(r.Text))
		if offset < pos+rl {
			style = r.Style
			break
		}
		pos += rl
	}

	before, after := SplitRunsAt(runs, offset)
	merged := append([]TextRun(nil), before...)
	merged = slices.Insert(merged, len(merged), TextRun{Text: text, Style: style})
	merged = append(merged, after...)
	return Normalize(merged)
}

// deleteRangeFromRuns removes the runes in [start, end) from runs.
func deleteRangeFromRuns(runs []TextRun, start, end int) []TextRun {
	if end <= start {
		return append([]TextRun(nil), runs...)
	}
	before, rest := SplitRunsAt(runs, start)
	length := end - start
	_, after := SplitRunsAt(rest, length)
	merged := append(append([]TextRun(nil), before...), after...)
	return Normalize(merged)
}

// ApplyFormattingToRange visits every run, splitting it at the range
// edges where it straddles them, applies transform to the style of the
// portion inside [startOff, endOff), and normalizes the result.
func ApplyFormattingToRange(runs []TextRun, startOff, endOff int, transform func(TextStyle) TextStyle) []TextRun {
	if endOff <= startOff {
		return append([]TextRun(nil), runs...)
	}
	before, rest := SplitRunsAt(runs, startOff)
	inside, after := SplitRunsAt(rest, endOff-startOff)

	transformed := make([]TextRun, len(inside))
	for i, r := range inside {
		transformed[i] = TextRun{Text: r.Text, Style: transform(r.Style)}
	}

	merged := append(append(append([]TextRun(nil), before...), transformed...), after...)
	return Normalize(merged)
}

func setFormatting(style, patch TextStyle) TextStyle {
	out := style
	if patch.Bold {
		out.Bold = true
	}
	if patch.Italic {
		out.Italic = true
	}
	if patch.Underline {
		out.Underline = true
	}
	if patch.Strikethrough {
		out.Strikethrough = true
	}
	if patch.Code {
		out.Code = true
	}
	if patch.FontSize != 0 {
		out.FontSize = patch.FontSize
	}
	if patch.FontFamily != "" {
		out.FontFamily = patch.FontFamily
	}
	if patch.Color != "" {
		out.Color = patch.Color
	}
	if patch.BackgroundColor != "" {
		out.BackgroundColor = patch.BackgroundColor
	}
	return out
}

func clearFormatting(style, patch TextStyle) TextStyle {
	out := style
	if patch.Bold {
		out.Bold = false
	}
	if patch.Italic {
		out.Italic = false
	}
	if patch.Underline {
		out.Underline = false
	}
	if patch.Strikethrough {
		out.Strikethrough = false
	}
	if patch.Code {
		out.Code = false
	}
	if patch.FontSize != 0 {
		out.FontSize = 0
	}
	if patch.FontFamily != "" {
		out.FontFamily = ""
	}
	if patch.Color != "" {
		out.Color = ""
	}
	if patch.BackgroundColor != "" {
		out.BackgroundColor = ""
	}
	return out
}
