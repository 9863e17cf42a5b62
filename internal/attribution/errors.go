// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package attribution

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyJourney is returned when a journey is built without touchpoints.
	ErrEmptyJourney = errors.New("journey requires at least one touchpoint")

	// ErrUnknownModel is returned when no model is registered for a type.
	ErrUnknownModel = errors.New("unknown attribution model")

	// ErrNoOpenJourney is returned when a conversion arrives for a user with
	// no unconverted journey to attach it to.
	ErrNoOpenJourney = errors.New("no open journey for user")

	// ErrTrainingInProgress is returned when a second training run starts
	// while one is already running on the same model.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrNotTrainable is returned when training is requested for a model
	// without learned parameters.
	ErrNotTrainable = errors.New("model is not trainable")

	// ErrInsufficientData is returned when too few journeys are available
	// to train.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrNotFound is returned by stores when a requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a malformed touchpoint, conversion or journey.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a validation failure, including
// ErrEmptyJourney.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrEmptyJourney)
}
