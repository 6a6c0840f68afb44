package entities

import "time"

type DropStatus string

const (
	DropStatusUnknown  DropStatus = "unknown"
	DropStatusIssued   DropStatus = "issued"
	DropStatusRevoked  DropStatus = "revoked"
	DropStatusDisputed DropStatus = "disputed"
)

// Drop is one recorded, audited recycling contribution and the issuance it
// triggered. Ids are 1-based and dense; a drop id is assigned exactly once
// and the record is never deleted.
type Drop struct {
	ID           uint64
	User         string
	Amount       uint64
	Collector    string
	MetadataHash string
	Status       DropStatus
	Reason       string
	RecordedAt   time.Time
	UpdatedAt    time.Time
}

// Transitionable reports whether the drop may leave its current status.
// Only issued drops move; revoked and disputed are absorbing.
func (d Drop) Transitionable() bool {
	return d.Status == DropStatusIssued
}
