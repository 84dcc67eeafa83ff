// Package convert turns the dashboard's HTML-table export into a styled xlsx workbook.
package convert

import (
	"io"
	"strings"
	"unicode"

	"dtc_dms_report/internal/failure"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Cell is one table cell's cleaned text.
type Cell struct {
	Text   string
	Header bool
}

// Row is the cells of one table row in document order.
type Row struct {
	Cells []Cell
}

// Table is the first table of an export, rows in document order.
type Table struct {
	Rows []Row
}

// Columns is the length of the widest row.
func (t Table) Columns() int {
	n := 0
	for _, row := range t.Rows {
		n = max(n, len(row.Cells))
	}
	return n
}

// Values returns the cell text as a ragged grid.
func (t Table) Values() [][]string {
	values := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			values[i][j] = cell.Text
		}
	}
	return values
}

// ParseTable reads an HTML document and extracts its first table.
// contentType may carry a charset hint; otherwise the document's meta tags and content decide.
func ParseTable(r io.Reader, contentType string) (Table, error) {
	decoded, err := charset.NewReader(r, contentType)
	if err != nil {
		return Table{}, failure.New(failure.Parse, "decode", err)
	}

	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return Table{}, failure.New(failure.Parse, "parse-html", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return Table{}, failure.Newf(failure.Parse, "find-table", "document contains no table")
	}

	var result Table
	table.Find("tr").
		FilterFunction(func(_ int, tr *goquery.Selection) bool {
			// Rows of nested tables belong to those tables.
			return tr.Closest("table").IsSelection(table)
		}).
		Each(func(_ int, tr *goquery.Selection) {
			var row Row
			tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
				row.Cells = append(row.Cells, Cell{
					Text:   cellText(cell),
					Header: goquery.NodeName(cell) == "th",
				})
			})
			result.Rows = append(result.Rows, row)
		})

	return result, nil
}

// cellText flattens a cell's markup to text, keeping explicit line breaks.
func cellText(cell *goquery.Selection) string {
	cell = cell.Clone()
	cell.Find("br").ReplaceWithHtml("\n")
	cell.Find("script, style").Remove()
	return CleanText(cell.Text())
}

// CleanText trims every line of s, drops blank lines and joins the rest with newlines.
// CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimFunc(line, unicode.IsSpace)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
