// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/pathcredit/internal/attribution"
	"github.com/tomtom215/pathcredit/internal/logging"
)

var _ attribution.ConversionPublisher = (*ConversionPublisher)(nil)

// ConversionPublisher queues recorded conversions for analysis.
type ConversionPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewConversionPublisher publishes to TopicConversions on publisher.
func NewConversionPublisher(publisher message.Publisher) (*ConversionPublisher, error) {
	if publisher == nil {
		return nil, ErrNilPublisher
	}
	return &ConversionPublisher{publisher: publisher, topic: TopicConversions}, nil
}

// PublishConversion implements attribution.ConversionPublisher.
func (p *ConversionPublisher) PublishConversion(ctx context.Context, event attribution.ConversionRecorded) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := NewConversionMessage(&event, logging.CorrelationIDFromContext(ctx))
	if err != nil {
		return err
	}
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish conversion %s: %w", event.ConversionID, err)
	}
	return nil
}
