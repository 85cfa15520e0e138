// Package timeouts defines the timeout constants shared by the bootstrap
// commands. Repository and identity calls have none: a run is bounded only by
// --timeout or a signal.
package timeouts

import "time"

// HostLookup caps the DNS lookup used to decide on the local fallback.
const HostLookup = 2 * time.Second

// Shutdown limits how long telemetry exporters may flush on exit.
const Shutdown = 5 * time.Second
