package dashboard

import (
	"context"

	"dtc_dms_report/internal/artifact"
	"dtc_dms_report/internal/browser"
	"dtc_dms_report/internal/failure"

	"github.com/rs/zerolog/log"
)

// Export clicks the export control and waits for the downloaded file in dir.
// dir is emptied first so a stale file is never mistaken for this run's export.
func (d *Driver) Export(ctx context.Context, dir string) (artifact.Artifact, error) {
	if err := artifact.Prepare(dir); err != nil {
		return artifact.Artifact{}, failure.New(failure.Export, "prepare-downloads", err)
	}
	if _, err := artifact.Clear(dir); err != nil {
		return artifact.Artifact{}, failure.New(failure.Export, "prepare-downloads", err)
	}

	v := d.variants
	used, err := d.attempt(ctx, "export",
		clickStrategy("export-id", browser.CSS(v.ExportByID)),
		clickStrategy("export-title", browser.CSS(v.ExportByTitle)),
		clickStrategy("export-name", browser.XPath(v.ExportByName)),
	)
	if err != nil {
		return artifact.Artifact{}, failure.New(failure.Export, "click-export", err)
	}
	log.Info().Str("strategy", used).Msg("Export requested")

	file, err := artifact.Await(ctx, dir, d.timing.DownloadPoll)
	if err != nil {
		return artifact.Artifact{}, failure.New(failure.Export, "await-download", err)
	}
	return file, nil
}
