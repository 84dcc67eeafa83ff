package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dtc_dms_report/internal/failure"

	"github.com/rs/zerolog/log"
)

// Options control the produced workbook.
type Options struct {
	SheetName string
	Widths    WidthPolicy
}

var DefaultOptions = Options{SheetName: "DMS", Widths: DefaultWidthPolicy}

// OutputPath is src with its extension replaced by .xlsx, never src itself.
func OutputPath(src string) string {
	ext := filepath.Ext(src)
	dst := strings.TrimSuffix(src, ext) + ".xlsx"
	if dst == src {
		dst = strings.TrimSuffix(src, ext) + "_converted.xlsx"
	}
	return dst
}

// File converts the HTML export at src into a workbook at dst and returns the parsed table.
// Every failure is a recoverable conversion error so the caller can ship src unchanged.
func File(src, dst string, opts Options) (Table, error) {
	if dst == src {
		return Table{}, failure.Newf(failure.Conversion, "convert", "output %s would overwrite the source", dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return Table{}, failure.New(failure.Conversion, "open-source", err)
	}
	defer in.Close()

	table, err := ParseTable(in, "")
	if err != nil {
		return Table{}, failure.New(failure.Conversion, "parse", err)
	}

	f, err := Render(table, opts.SheetName, opts.Widths)
	if err != nil {
		return Table{}, failure.New(failure.Conversion, "render", err)
	}
	defer f.Close()

	if err := f.SaveAs(dst); err != nil {
		return Table{}, failure.New(failure.Conversion, "save", fmt.Errorf("failed to save %s: %w", dst, err))
	}

	log.Info().
		Str("source", filepath.Base(src)).
		Str("output", filepath.Base(dst)).
		Int("rows", len(table.Rows)).
		Int("columns", table.Columns()).
		Msg("Converted export to xlsx")
	return table, nil
}
