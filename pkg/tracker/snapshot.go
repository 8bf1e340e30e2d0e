package tracker

import (
	"time"

	"escabot/pkg/escalator"
)

// Entry is one escalator's persisted record.
type Entry struct {
	Floors     escalator.Floors `json:"floors" cbor:"1,keyasint"`
	Status     escalator.Status `json:"status" cbor:"2,keyasint"`
	LastUpdate time.Time        `json:"last_update" cbor:"3,keyasint"`
}

// Snapshot is the persisted form of the engine: one entry per escalator in
// registry order.
type Snapshot struct {
	Entries []Entry `json:"entries" cbor:"1,keyasint"`
}

// DefaultSnapshot reports every escalator open as of now.
func DefaultSnapshot(reg *escalator.Registry, now time.Time) Snapshot {
	all := reg.All()
	snap := Snapshot{Entries: make([]Entry, len(all))}
	for i, f := range all {
		snap.Entries[i] = Entry{Floors: f, Status: escalator.Open, LastUpdate: now}
	}
	return snap
}
