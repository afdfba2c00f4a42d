package models

import "time"

// SyncAction records the last local mutation kind for a row. It is used to
// pick the matching remote operation during a push.
type SyncAction string

const (
	ActionNone   SyncAction = "none"
	ActionCreate SyncAction = "create"
	ActionUpdate SyncAction = "update"
	ActionDelete SyncAction = "delete"
)

// SyncMeta carries the per-row synchronization columns every entity table has.
//
// Synced is false while the row differs from the remote copy (dirty) and true
// once a push confirmed it. LastModified is device-clock time; it only moves
// forward and every local write refreshes it.
type SyncMeta struct {
	Synced       bool
	SyncAction   SyncAction
	LastModified time.Time
}

// Dirty reports whether the row still needs to be pushed.
func (m SyncMeta) Dirty() bool { return !m.Synced }
