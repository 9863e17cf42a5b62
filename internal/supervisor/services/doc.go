// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

// Package services adapts blocking components to suture.Service.
//
// The event processor and the Markov trainer implement suture.Service
// directly. The HTTP server does not, so HTTPServerService translates
// ListenAndServe and Shutdown into a context-aware Serve.
package services
