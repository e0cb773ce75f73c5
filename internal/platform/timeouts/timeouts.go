// Package timeouts holds the durations shared by the verifier processes.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Request caps one verification or catalog request end to end.
const Request = 30 * time.Second

// Shutdown limits graceful shutdown of the gRPC and HTTP servers and the
// telemetry flush.
const Shutdown = 5 * time.Second

// HealthWait bounds how long a client waits for a peer to report SERVING.
const HealthWait = 10 * time.Second

// HealthPoll is the interval between health probes while waiting.
const HealthPoll = 200 * time.Millisecond
