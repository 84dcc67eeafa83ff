package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// setupEnvironment loads the dotenv file and configures zerolog output and level.
// Variables already present in the environment win over the file.
func setupEnvironment(envFile string) {
	err := godotenv.Load(envFile)

	production := os.Getenv("ENV") == "production"
	if production {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("app", "dtc-dms-report").Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := os.Getenv("LOGLEVEL")
	level, known := resolveLevel(levelStr, production)
	zerolog.SetGlobalLevel(level)
	if !known {
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// reported after logging is configured
	if err == nil {
		log.Debug().Str("file", envFile).Msg("Loaded environment variables from dotenv file")
	} else {
		log.Debug().Str("file", envFile).Msg("No dotenv file loaded; using process environment")
	}
}

// resolveLevel maps LOGLEVEL to a zerolog level. Unset means warn in production and info
// elsewhere; unknown values fall back to info and report known=false.
func resolveLevel(raw string, production bool) (zerolog.Level, bool) {
	levelStr := strings.ToLower(strings.TrimSpace(raw))
	if levelStr == "warning" {
		levelStr = "warn"
	}
	switch level, err := zerolog.ParseLevel(levelStr); {
	case levelStr == "" && production:
		return zerolog.WarnLevel, true
	case err != nil:
		return zerolog.InfoLevel, false
	case level == zerolog.NoLevel:
		return zerolog.InfoLevel, true
	default:
		return level, true
	}
}
