// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package eventprocessor

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewBus creates the in-process pub/sub the pipeline runs on. Messages are
// not persisted: anything published while no subscriber is attached is
// dropped, so the router must be running before conversions are tracked.
func NewBus(bufferSize int64, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            bufferSize,
		Persistent:                     false,
		BlockPublishUntilSubscriberAck: false,
	}, logger)
}
