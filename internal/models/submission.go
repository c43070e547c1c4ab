package models

import "time"

// Reject reasons recorded on a Submission. A submission keeps at most one.
const (
	RejectNone        = ""
	RejectBlacklisted = "blacklisted"
	RejectMalformat   = "malformatted"
	RejectRestricted  = "already_restricted"
	RejectReported    = "already_reported"
)

// Submission tracks a forum post the bot has observed. Rows are never deleted;
// they are the audit trail for every decision the bot made.
type Submission struct {
	ID           string `gorm:"primaryKey"` // forum post id, e.g. "fw74zf"
	Rejected     bool
	RejectReason string
	Restricted   bool // set once the reported player is confirmed restricted
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
