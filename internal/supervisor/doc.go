// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

/*
Package supervisor runs the server's long-lived services under suture v4.

	RootSupervisor ("replayrhythms")
	├── WorkersSupervisor ("workers-layer")
	│   └── ReplayPollerService (if POLLER_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events are
logged through sutureslog, which main wires to zerolog via
logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	if poller != nil {
	    tree.AddWorkerService(services.NewPollerService(poller))
	}
	errCh := tree.ServeBackground(ctx)

Service adapters live in the services subpackage.
*/
package supervisor
