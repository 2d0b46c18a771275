// Package dispatch performs the network exchange for a single user message.
//
// Each Send is a small state machine: Idle -> Pending -> {Delivered, Failed},
// terminal in both cases. The user message is appended to the session before
// the network call starts (optimistic append), the per-session pending flag
// is true exactly while the exchange is in flight, and the outcome - the
// assistant reply or a system failure message - is reconciled into the
// session captured at send time, never "whatever is active now".
//
// Two Exchanger implementations exist: HTTPExchanger posts multipart form
// data to the configured backend endpoint, and LocalResponder synthesizes
// persona replies offline with a simulated thinking delay.
//
// There is no automatic retry and no backoff. A silent retry could duplicate
// messages in the transcript.
package dispatch
