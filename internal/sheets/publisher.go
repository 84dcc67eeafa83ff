package sheets

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

type rangeWriter interface {
	ClearRange(ctx context.Context, spreadsheetID, range_ string) error
	UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error
}

// Publisher mirrors the latest report table into a spreadsheet tab, replacing what was there.
type Publisher struct {
	client        rangeWriter
	spreadsheetID string
	sheetRange    string
}

func NewPublisher(client *Client, spreadsheetID, sheetRange string) *Publisher {
	return &Publisher{
		client:        client,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
	}
}

// Publish clears the target tab and writes rows starting at the configured anchor.
func (p *Publisher) Publish(ctx context.Context, rows [][]string) error {
	// Clear the whole tab so a shorter report leaves no stale rows behind.
	clearRange := strings.Split(p.sheetRange, "!")[0]

	log.Debug().
		Str("spreadsheet_id", p.spreadsheetID).
		Str("range", clearRange).
		Msg("Clearing sheet mirror")
	if err := p.client.ClearRange(ctx, p.spreadsheetID, clearRange); err != nil {
		return err
	}

	values := ToValues(rows)
	if len(values) == 0 {
		return nil
	}
	if err := p.client.UpdateRange(ctx, p.spreadsheetID, p.sheetRange, values); err != nil {
		return err
	}

	log.Info().
		Str("spreadsheet_id", p.spreadsheetID).
		Str("range", p.sheetRange).
		Int("rows", len(values)).
		Msg("Sheet mirror updated")
	return nil
}

// ToValues converts a ragged string grid to the API's row format.
func ToValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		out := make([]interface{}, len(row))
		for i, cell := range row {
			out[i] = cell
		}
		values = append(values, out)
	}
	return values
}
