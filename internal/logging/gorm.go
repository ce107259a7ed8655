package logging

import (
	"time"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"
)

type gormWriter struct {
	log zerolog.Logger
}

func (g gormWriter) Printf(format string, args ...interface{}) {
	g.log.Warn().Msgf(format, args...)
}

// Gorm routes gorm's slow-query and error output through zerolog.
// Record-not-found is expected in lookups and is not logged.
func Gorm(log zerolog.Logger, debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(gormWriter{log: log.With().Str("component", "gorm").Logger()}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
