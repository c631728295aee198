// Package logger provides structured logging for tapestry-archive.
//
// It wraps zerolog behind a small Logger interface so the pipeline can be
// handed a TestLogger in tests and the real logger in the CLI.
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.WithError(err).Error("Listing failed")
//
// Console output is coloured and goes to stderr so that it does not mix
// with the progress line on stdout. When LoggingConfig.File is set every
// entry is also appended to that file as a JSON line.
package logger
