// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package eventprocessor

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// Topics used by the pipeline.
const (
	TopicConversions = "attribution.conversions"
	TopicPoison      = "attribution.conversions.poison"
)

// Metadata keys set on published messages.
const (
	MetadataJourneyID = "journey_id"
	MetadataUserID    = "user_id"
)

// NewConversionMessage encodes e as a Watermill message. The correlation id
// is carried in metadata so handler logs can be joined with request logs.
func NewConversionMessage(e *attribution.ConversionRecorded, correlationID string) (*message.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversion event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataJourneyID, e.JourneyID)
	msg.Metadata.Set(MetadataUserID, e.UserID)
	if correlationID == "" {
		correlationID = msg.UUID
	}
	middleware.SetCorrelationID(correlationID, msg)
	return msg, nil
}

// DecodeConversion parses a message produced by NewConversionMessage.
func DecodeConversion(msg *message.Message) (attribution.ConversionRecorded, error) {
	var e attribution.ConversionRecorded
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return e, fmt.Errorf("failed to decode conversion event %s: %w", msg.UUID, err)
	}
	if e.JourneyID == "" {
		return e, fmt.Errorf("conversion event %s has no journey id", msg.UUID)
	}
	return e, nil
}
