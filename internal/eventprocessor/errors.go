// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package eventprocessor

import "errors"

// ErrNilPublisher is returned when a publisher is constructed without a
// Watermill publisher.
var ErrNilPublisher = errors.New("publisher cannot be nil")

// ErrInvalidConfig is returned when configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrMissingDependency is returned when the analysis handler is built
// without one of its collaborators.
var ErrMissingDependency = errors.New("missing dependency")
