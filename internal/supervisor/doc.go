// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

/*
Package supervisor runs Murmur's long-lived services under suture v4.

The tree has two layers so a failing maintenance task never takes the API
down:

	RootSupervisor ("murmur")
	├── DataSupervisor ("data-layer")
	│   └── StoreGCService (badger backend with gc_interval > 0)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events are
logged through the zerolog-backed slog handler from the logging package via
sutureslog.

Canceling the context passed to Serve stops every service. Draining the
fan-out queue and closing the store happen after Serve returns, in the
caller.
*/
package supervisor
