/*
Package log provides structured logging for the scheduler using zerolog.

A single global Logger is configured once via Init and read from
everywhere else in the process; context loggers (WithComponent,
WithExecutorID, WithJobID, WithTaskID) attach a field and return a child
zerolog.Logger rather than mutating global state.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	log.Logger.Info().Str("job_id", jobID).Msg("query accepted")

	jobLog := log.WithJobID(jobID)
	jobLog.Error().Err(err).Msg("planning failed")

# Log levels

  - Debug: per-task assignment and dispatch decisions
  - Info: job lifecycle transitions, executor registration
  - Warn: recoverable backpressure (no free executor slots)
  - Error: failed RPCs, persistence failures
  - Fatal: unrecoverable startup errors (log.Fatal exits the process)

# Output formats

JSON (production, scraped by a log pipeline):

	{"level":"info","component":"scheduler","job_id":"a1b2c3d","time":"2026-07-30T10:30:00Z","message":"query accepted"}

Console (development, zerolog.ConsoleWriter):

	10:30AM INF query accepted component=scheduler job_id=a1b2c3d

# Integration points

  - pkg/scheduler: job/task/dispatch logging via WithJobID/WithExecutorID
  - cmd/distsql: configures Init from --log-level/--log-json flags
*/
package log
