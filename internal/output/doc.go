// Package output writes what a run produces.
//
// [JobLog] is the per-job text log: it is truncated when a job starts and
// receives one section per backend answer, in the order the answers arrive.
// It implements the notification hooks of the extract and analysis packages
// so a job can subscribe it directly.
//
// [Summary] describes a whole run. Use [GetWriter] to render it as text or
// JSON, or [WriteSummary] to pick the destination as well.
package output
