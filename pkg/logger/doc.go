// Package logger provides the structured logging interface used across tmu
//
// It wraps zerolog with a small interface so core components can take a
// Logger by injection and tests can swap in TestLogger or NewNopLogger
// Console output goes to stderr in a colored human format; when a log file
// is configured every entry is also written there as JSON
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    ui.PrintError("Failed to initialize logger", err.Error())
//	    os.Exit(1)
//	}
//	log := logger.Component("session")
//	log.WithField("username", "alice").Info("Unfollowed")
//
// While the terminal status panel is running, pass WithConsole(io.Discard)
// so log lines do not corrupt the screen
package logger
