// Package status serves a read-only HTTP view of the controller:
//
//	GET /healthz  liveness and uptime
//	GET /status   execution state, program digest, tick count, session
//	GET /frame    last latched strip frame as #rrggbb colors
package status
