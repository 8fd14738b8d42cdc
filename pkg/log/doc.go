/*
Package log provides structured logging for printq using zerolog.

The package wraps a single global zerolog.Logger with a small set of helpers
for the fields printq attaches most often: the component emitting the entry,
the queue being reconciled and the run that is in progress.

# Configuration

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: false,
		Output:     os.Stderr,
	})

Until Init is called the global logger discards everything, which keeps
library use and tests quiet.

# Context Loggers

	qlog := log.WithQueue("Office")
	qlog.Info().Str("change", "enable").Msg("Applying change")

	rlog := log.WithRunID(runID)
	rlog.Info().Int("resources", 4).Msg("Pass started")

Levels follow the usual meaning: debug for every external command line,
info for changes applied to the print server, warn for fallbacks and degraded
discovery, error for failed resources.
*/
package log
