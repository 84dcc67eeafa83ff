package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"dtc_dms_report/internal/app"

	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	keepFiles := flag.Bool("keep-files", false, "leave downloaded and converted files in the scratch directory")
	headful := flag.Bool("headful", false, "show the browser window")
	envFile := flag.String("env-file", ".env", "dotenv file to load before reading configuration")
	flag.Parse()

	setupEnvironment(*envFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug().Msg("Starting DTC DMS report")

	return app.Main(ctx, app.Deps{
		Launch:    app.StartBrowser,
		Transport: app.InitializeTransport,
		Publisher: app.InitializePublisher,
		Notifier: func(cfg *app.Config) app.Notifier {
			return app.InitializeNotificationClient(cfg)
		},
		Configure: func(cfg *app.Config) {
			if *keepFiles {
				cfg.KeepFiles = true
			}
			if *headful {
				cfg.Browser.Headless = false
			}
		},
		Now: time.Now,
	})
}
