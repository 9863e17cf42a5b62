// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

/*
Package logging provides the process-wide zerolog logger for PathCredit.

Every component logs through zerolog. Libraries that expect a different
logging interface are bridged here:
  - slog (suture supervisor events via sutureslog): NewSlogLogger
  - watermill (conversion pipeline router): NewWatermillLogger

# Usage

	logging.Init(logging.Config{Level: "info", Format: "json"})
	logging.Info().Str("model", "shapley").Msg("Model registered")

	ctx = logging.ContextWithNewCorrelationID(ctx)
	logging.Ctx(ctx).Warn().Err(err).Msg("Scoring failed")

Always terminate event chains with Msg or Send; an unterminated chain is
never written.

# Fields

The logger writes time, level, message, error and, when enabled, caller.
Components add a "component" field through WithComponent. Request-scoped
code adds correlation_id and request_id through Ctx.
*/
package logging
