package markdown

import (
	"strings"

	"bricklink/inventory/internal/htmldoc"
)

// renderTable lays out a tr/td grid as a pipe table. Rows are padded to a
// uniform column count, columns are sized to their widest line across every
// row, and multi-line cells expand their row into one physical line per
// embedded line.
func renderTable(n *htmldoc.Node) string {
	rows := collectRows(n)
	if len(rows) == 0 {
		return ""
	}

	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return ""
	}
	for i, row := range rows {
		for len(row) < cols {
			row = append(row, "")
		}
		rows[i] = row
	}

	widths := make([]int, cols)
	for _, row := range rows {
		for c, cell := range row {
			for _, line := range strings.Split(cell, "\n") {
				if len(line) > widths[c] {
					widths[c] = len(line)
				}
			}
		}
	}

	var b strings.Builder
	writeRow(&b, rows[0], widths)
	writeSeparator(&b, widths)
	for _, row := range rows[1:] {
		writeRow(&b, row, widths)
	}
	return b.String()
}

// collectRows walks tr descendants, looking through thead/tbody wrappers,
// and renders each row's th/td cells.
func collectRows(n *htmldoc.Node) [][]string {
	var rows [][]string
	for _, c := range n.Children {
		if c.Kind != htmldoc.KindElement {
			continue
		}
		if c.Tag == "tr" {
			var cells []string
			for _, cell := range c.Children {
				if cell.Kind == htmldoc.KindElement && (cell.Tag == "td" || cell.Tag == "th") {
					cells = append(cells, renderNode(cell))
				}
			}
			rows = append(rows, cells)
			continue
		}
		rows = append(rows, collectRows(c)...)
	}
	return rows
}

func writeRow(b *strings.Builder, row []string, widths []int) {
	split := make([][]string, len(row))
	height := 1
	for c, cell := range row {
		split[c] = strings.Split(cell, "\n")
		if len(split[c]) > height {
			height = len(split[c])
		}
	}
	for line := 0; line < height; line++ {
		b.WriteByte('|')
		for c := range row {
			text := ""
			if line < len(split[c]) {
				text = split[c][line]
			}
			b.WriteString(text)
			b.WriteString(strings.Repeat(" ", widths[c]-len(text)))
			b.WriteByte('|')
		}
		b.WriteByte('\n')
	}
}

// The Markdown table grammar needs at least three dashes per column.
func writeSeparator(b *strings.Builder, widths []int) {
	b.WriteByte('|')
	for _, w := range widths {
		if w < 3 {
			w = 3
		}
		b.WriteString(strings.Repeat("-", w))
		b.WriteByte('|')
	}
	b.WriteByte('\n')
}
