package convert

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// WidthPolicy sizes columns from their longest cell.
type WidthPolicy struct {
	Padding float64
	Min     float64
	Max     float64
}

var DefaultWidthPolicy = WidthPolicy{Padding: 2, Min: 10, Max: 60}

const (
	borderColor = "000000"
	headerFill  = "D9E1F2"
)

// TextWidth is the number of display positions of the widest line of s.
// Combining marks and format characters take no position, so Thai vowel
// and tone marks do not inflate the width.
func TextWidth(s string) int {
	widest := 0
	for _, line := range strings.Split(s, "\n") {
		n := 0
		for _, r := range line {
			if unicode.In(r, unicode.Mn, unicode.Me, unicode.Cf) {
				continue
			}
			n++
		}
		widest = max(widest, n)
	}
	return widest
}

// ColumnWidths returns one width per column, clamped to [p.Min, p.Max].
func ColumnWidths(t Table, p WidthPolicy) []float64 {
	widths := make([]float64, t.Columns())
	for i := range widths {
		widths[i] = p.Min
	}
	for _, row := range t.Rows {
		for i, cell := range row.Cells {
			w := float64(TextWidth(cell.Text)) + p.Padding
			w = min(max(w, p.Min), p.Max)
			widths[i] = max(widths[i], w)
		}
	}
	return widths
}

func borders() []excelize.Border {
	sides := []string{"left", "top", "right", "bottom"}
	result := make([]excelize.Border, len(sides))
	for i, side := range sides {
		result[i] = excelize.Border{Type: side, Color: borderColor, Style: 1}
	}
	return result
}

// Render writes t into a new workbook on a single sheet.
// The first row and any th cells get the header style; every cell is bordered and wrapped.
func Render(t Table, sheetName string, p WidthPolicy) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheetName != "" && sheetName != sheet {
		if err := f.SetSheetName(sheet, sheetName); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to name sheet %q: %w", sheetName, err)
		}
		sheet = sheetName
	}

	bodyStyle, err := f.NewStyle(&excelize.Style{
		Border:    borders(),
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create body style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Border:    borders(),
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for r, row := range t.Rows {
		for c, cell := range row.Cells {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellStr(sheet, name, cell.Text); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write cell %s: %w", name, err)
			}

			style := bodyStyle
			if r == 0 || cell.Header {
				style = headerStyle
			}
			if err := f.SetCellStyle(sheet, name, name, style); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to style cell %s: %w", name, err)
			}
		}
	}

	for i, width := range ColumnWidths(t, p) {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	return f, nil
}
