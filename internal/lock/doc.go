// Package lock implements the advisory marker that keeps non-exempt jobs
// from sharing the default analysis backend.
//
// The marker is a JSON file created with O_EXCL, so checking for it and
// writing it is a single atomic step. It records who holds it and is never
// renewed or expired: a process that dies without releasing it leaves a stale
// marker behind until it is cleared by hand.
package lock
