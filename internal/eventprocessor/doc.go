// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

/*
Package eventprocessor runs conversion analysis asynchronously.

When the tracker attaches a conversion to a journey it publishes a
ConversionRecorded message on the attribution.conversions topic. The
analysis handler consumes it and:
  - rebuilds the journey from the store
  - scores it with every configured model
  - saves each result through a circuit breaker
  - drops the user's cached open journey

# Components

  - Bus: in-process Watermill gochannel pub/sub
  - ConversionPublisher: implements attribution.ConversionPublisher
  - Router: Watermill router with Recoverer, Retry and PoisonQueue middleware
  - AnalysisHandler: the consumer described above
  - Processor: wires the above and runs as a supervised service

# Failure Handling

Undecodable messages and conversions whose journey no longer exists are
acknowledged and counted; retrying cannot fix them. Store failures are
retried with exponential backoff. Once the retry budget is spent the message
is routed to the poison topic, where it is logged and counted.

While the breaker is open, saves fail immediately with
gobreaker.ErrOpenState instead of queueing behind a failing store.
*/
package eventprocessor
