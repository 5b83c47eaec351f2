// Package job runs analysis jobs.
//
// A job file is TOML with one [[job]] table per job. Every field left empty
// inherits the global configuration. Credential values may reference
// environment variables as ${NAME}; a job with any credential set uses its
// own vendor backend and never touches the shared lock marker.
//
// The [Orchestrator] runs jobs strictly one after another. Each job moves
// through Pending, LockCheck and Running to Completed, Skipped or Failed. A
// failed job never stops the jobs queued after it.
package job
