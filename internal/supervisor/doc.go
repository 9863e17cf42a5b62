// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

/*
Package supervisor runs the long-lived services of the PathCredit server
under a suture v4 supervisor tree.

# Overview

	RootSupervisor ("pathcredit")
	├── DataSupervisor ("data-layer")
	│   └── markov-trainer (if TRAINING_ENABLED)
	├── MessagingSupervisor ("messaging-layer")
	│   └── event-processor
	└── APISupervisor ("api-layer")
	    └── http-server

Each layer counts failures independently: a trainer that keeps failing backs
off without restarting the HTTP server.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(trainer)
	tree.AddMessagingService(processor)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout).
	    WaitFor(processor.Running()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

Supervisor events (restarts, backoff, timeouts) are logged through slog via
sutureslog, bridged to zerolog by the logging package.

# Services

Services implement suture.Service:

	Serve(ctx context.Context) error

and return when ctx is canceled. Returning suture.ErrDoNotRestart stops a
service permanently. String names the service in supervisor logs.

See the services subpackage for the HTTP server wrapper.
*/
package supervisor
