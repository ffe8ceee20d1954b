// Package mail defines the outbound email surface of the engine: the
// Transport interface callers implement, an SMTP reference transport, and
// the asynchronous dispatcher that decouples flow latency from delivery.
package mail
