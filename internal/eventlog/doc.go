// Package eventlog contains observers consuming lifecycle events.
//
// The [*Logger] writes events using github.com/apex/log, the [*JSONLRecorder]
// serializes them as JSON lines, the [*Metrics] exports them as prometheus
// metrics and the [*Summary] computes per-run statistics.
//
// These observers run synchronously inside the hooks, so they only do
// quick in-memory work or buffered writes.
package eventlog
