// Package swarm dispatches a batch of independent conversations
// against a rate-limited completion API and returns the replies in
// input order.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────┐
//	│                        Engine                           │
//	├─────────────────────────────────────────────────────────┤
//	│  job source ──▶ worker ──▶ ┌───────────┐                │
//	│  (FIFO)     ──▶ worker ──▶ │ Collector │ ──▶ ordered    │
//	│             ──▶ worker ──▶ │  (slots)  │     outcomes   │
//	│                    │       └───────────┘                │
//	│                    ▼                                    │
//	│             AdmissionController                         │
//	│          (tokens + requests per window)                 │
//	└─────────────────────────────────────────────────────────┘
//
// Workers are the concurrency bound (requests in flight); the
// admission controller is the throughput bound (tokens and requests
// per accounting window). Every worker blocks in admission before each
// attempt, so the shared budget is the single serialization point.
//
// Failure isolation: every per-job error is converted to an Outcome
// inside the worker. A batch returns a full-length result sequence
// with nil in place of failed conversations; only configuration and
// setup problems surface as errors from Swarm.
package swarm
