// Package sync is the operator surface of the synchronization engine.
//
// It wraps the orchestrator in a Service used by three callers: the admin HTTP
// handler (routes under /sync), the interval Scheduler started by the server,
// and the CLI commands. Every pass the Service runs is archived as a JSON
// report in object storage when an Archiver is configured:
//
//	<report_prefix>/<yyyy>/<mm>/<dd>/<run_id>.json
//
// Archive failures are logged and never fail the pass.
package sync
