package logging

import (
	"log/slog"
)

// WithTeller creates a logger with teller context.
// Use this to automatically include the acting teller in all logs.
//
// Example:
//
//	log := logging.WithTeller(req.ActorID)
//	log.Info("deposit committed", "amount", amount)
func WithTeller(actorID string) *slog.Logger {
	return GetLogger().With("teller", actorID)
}

// WithRun creates a logger with simulation-run context.
//
// Example:
//
//	log := logging.WithRun(run.ID)
//	log.Info("run settled", "observed", observed)
func WithRun(runID string) *slog.Logger {
	return GetLogger().With("run_id", runID)
}

// WithMode creates a logger carrying the execution mode of the
// current run (unsafe or protected).
func WithMode(mode string) *slog.Logger {
	return GetLogger().With("mode", mode)
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("simulator")
//	log.Info("component initialized")
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError creates a logger with error context.
// Use this when logging errors to include the error in structured format.
//
// Example:
//
//	log := logging.WithError(err)
//	log.Error("operation failed", "operation", "withdraw")
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
